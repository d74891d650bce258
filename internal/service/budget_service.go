package service

import (
	"context"

	"github.com/prn-tf/monedero/internal/domain"
	"github.com/prn-tf/monedero/internal/repository"
)

// BudgetService adds spending progress to the budget contract.
type BudgetService struct {
	*ResourceService[*domain.Budget]

	records repository.RecordRepository
}

// NewBudgetService creates a BudgetService.
func NewBudgetService(base *ResourceService[*domain.Budget], records repository.RecordRepository) *BudgetService {
	return &BudgetService{ResourceService: base, records: records}
}

// Progress returns the spending against the caller's budget id in the
// period containing asOf. A zero asOf means today.
func (s *BudgetService) Progress(ctx context.Context, ownerID, id int64, asOf domain.Date) (*domain.BudgetProgress, error) {
	budget, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if asOf.IsZero() {
		asOf = s.today()
	}

	start, end := budget.Period.Window(budget.StartOn, asOf)
	spent, err := s.records.SumAmounts(ctx, ownerID, repository.SumFilter{
		Kind:       domain.KindExpense,
		CategoryID: budget.CategoryID,
		From:       start,
		To:         end,
	})
	if err != nil {
		return nil, s.internal(err, "failed to sum spending of", ownerID, id)
	}

	progress := budget.Progress(start, end, spent)
	return &progress, nil
}

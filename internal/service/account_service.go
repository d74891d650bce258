package service

import (
	"context"

	"github.com/prn-tf/monedero/internal/domain"
	"github.com/prn-tf/monedero/internal/repository"
)

// AccountService adds balances to the account contract.
type AccountService struct {
	*ResourceService[*domain.Account]

	records repository.RecordRepository
}

// NewAccountService creates an AccountService.
func NewAccountService(base *ResourceService[*domain.Account], records repository.RecordRepository) *AccountService {
	return &AccountService{ResourceService: base, records: records}
}

// Balance is the current balance of an account.
type Balance struct {
	AccountID      int64        `json:"account_id"`
	Currency       string       `json:"currency"`
	InitialBalance domain.Money `json:"initial_balance"`
	Income         domain.Money `json:"income"`
	Expense        domain.Money `json:"expense"`
	Balance        domain.Money `json:"balance"`
}

// Balance returns the initial balance of the caller's account id plus every
// income minus every expense recorded on it.
func (s *AccountService) Balance(ctx context.Context, ownerID, id int64) (*Balance, error) {
	account, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	income, expense, err := sumBoth(ctx, s.records, ownerID, repository.SumFilter{AccountID: &account.ID})
	if err != nil {
		return nil, s.internal(err, "failed to compute balance of", ownerID, id)
	}

	return &Balance{
		AccountID:      account.ID,
		Currency:       account.Currency,
		InitialBalance: account.InitialBalance,
		Income:         income,
		Expense:        expense,
		Balance:        account.InitialBalance + income - expense,
	}, nil
}

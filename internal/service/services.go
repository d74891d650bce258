package service

import (
	"github.com/rs/zerolog"

	"github.com/prn-tf/monedero/internal/auth"
	"github.com/prn-tf/monedero/internal/domain"
	"github.com/prn-tf/monedero/internal/metrics"
	"github.com/prn-tf/monedero/internal/pkg/crypto"
	"github.com/prn-tf/monedero/internal/repository"
	"github.com/prn-tf/monedero/internal/storage"
)

// Services bundles every request-serving service.
type Services struct {
	Identity   *IdentityService
	Users      *UserService
	Accounts   *AccountService
	Categories *ResourceService[*domain.Category]
	Records    *RecordService
	Budgets    *BudgetService
	Recurring  *ResourceService[*domain.RecurringPayment]
	Debts      *ResourceService[*domain.Debt]
	Goals      *ResourceService[*domain.Goal]
}

// Deps contains what NewServices wires together.
type Deps struct {
	Repos   *repository.Repositories
	Hasher  crypto.Hasher
	Issuer  auth.Issuer
	Limiter *LoginLimiter

	// Receipts may be nil when receipt storage is not configured.
	Receipts storage.ReceiptStore

	Metrics *metrics.Metrics
	Logger  zerolog.Logger
}

// NewServices creates the services over deps.Repos.
func NewServices(deps Deps) *Services {
	repos := deps.Repos
	logger := deps.Logger
	refs := NewReferenceChecker(repos.Users, repos.Accounts, repos.Categories)

	return &Services{
		Identity: NewIdentityService(repos.Users, deps.Hasher, deps.Issuer, deps.Limiter, deps.Metrics, logger),
		Users:    NewUserService(repos.Users, deps.Hasher, logger),
		Accounts: NewAccountService(
			NewResourceService[*domain.Account]("account", repos.Accounts, domain.NewAccount, refs, logger),
			repos.Records,
		),
		Categories: NewResourceService[*domain.Category]("category", repos.Categories, domain.NewCategory, refs, logger),
		Records: NewRecordService(
			NewResourceService[*domain.Record]("record", repos.Records, domain.NewRecord, refs, logger),
			repos.Records,
			deps.Receipts,
		),
		Budgets: NewBudgetService(
			NewResourceService[*domain.Budget]("budget", repos.Budgets, domain.NewBudget, refs, logger),
			repos.Records,
		),
		Recurring: NewResourceService[*domain.RecurringPayment]("recurring_payment", repos.Recurring, domain.NewRecurringPayment, refs, logger),
		Debts:     NewResourceService[*domain.Debt]("debt", repos.Debts, domain.NewDebt, refs, logger),
		Goals:     NewResourceService[*domain.Goal]("goal", repos.Goals, domain.NewGoal, refs, logger),
	}
}

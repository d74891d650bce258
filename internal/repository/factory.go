package repository

import (
	"context"

	"github.com/prn-tf/monedero/internal/domain"
	"github.com/prn-tf/monedero/internal/repository/migrate"
)

// Repositories holds all repository instances.
type Repositories struct {
	Users      UserRepository
	Accounts   OwnedRepository[*domain.Account]
	Categories OwnedRepository[*domain.Category]
	Records    RecordRepository
	Budgets    OwnedRepository[*domain.Budget]
	Recurring  RecurringRepository
	Debts      OwnedRepository[*domain.Debt]
	Goals      OwnedRepository[*domain.Goal]
	Tx         TxManager
}

// DatabaseHealth is the connection handle behind a Store.
// It satisfies handler.DatabaseChecker.
type DatabaseHealth interface {
	Health(ctx context.Context) error
	Close() error
}

// Migrator applies and inspects schema migrations.
type Migrator interface {
	Up(ctx context.Context) error
	Down(ctx context.Context) error
	Status(ctx context.Context) ([]migrate.Migration, error)
	Version(ctx context.Context) (int64, error)
}

// Store bundles what a database driver provides.
type Store struct {
	Repos    *Repositories
	Database DatabaseHealth
	Migrator Migrator
}

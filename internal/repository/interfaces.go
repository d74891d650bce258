// Package repository defines data access interfaces for Monedero.
// These interfaces abstract database operations, allowing for different implementations
// (PostgreSQL, SQLite, in-memory for testing) while keeping the service layer clean.
package repository

import (
	"context"

	"github.com/prn-tf/monedero/internal/domain"
)

// =============================================================================
// User Repository
// =============================================================================

// UserRepository defines the interface for user data access.
type UserRepository interface {
	// Create creates a new user and sets its ID.
	// Returns domain.ErrDuplicateEmail if the email is taken. The unique
	// constraint is the arbiter, so this holds under concurrent registrations.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id int64) (*domain.User, error)

	// GetByEmail retrieves a user by normalized email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Update updates profile fields and the password hash of an existing user.
	Update(ctx context.Context, user *domain.User) error

	// Delete deletes a user by ID. Owned rows are removed by cascade.
	Delete(ctx context.Context, id int64) error

	// List returns all users with pagination.
	List(ctx context.Context, opts ListOptions) (*ListResult[*domain.User], error)

	// ExistsByEmail checks if a user with the given email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// =============================================================================
// Owned Resource Repositories
// =============================================================================

// OwnedRepository defines data access for a user-owned resource.
// Mutations always carry the owner in their WHERE clause.
type OwnedRepository[R domain.Resource] interface {
	// Create inserts r and sets its ID and timestamps.
	// Returns ErrReferenceViolation if the owner or a referenced row is missing.
	Create(ctx context.Context, r R) error

	// GetByID retrieves a row by ID regardless of owner.
	// Callers must compare the owner themselves.
	// Returns domain.ErrNotFound if no row exists.
	GetByID(ctx context.Context, id int64) (R, error)

	// List returns the rows owned by ownerID.
	List(ctx context.Context, ownerID int64, opts ListOptions) (*ListResult[R], error)

	// Update writes r matching both its ID and owner.
	// Returns domain.ErrNotFound if no such row exists.
	Update(ctx context.Context, r R) error

	// Delete removes the row matching (id, ownerID).
	// Returns false if no row matched.
	Delete(ctx context.Context, ownerID, id int64) (bool, error)
}

// SumFilter selects records for aggregation. The date range is [From, To).
type SumFilter struct {
	Kind       domain.EntryKind
	CategoryID *int64
	AccountID  *int64
	From       domain.Date
	To         domain.Date
}

// RecordRepository adds aggregation and receipt handling to records.
type RecordRepository interface {
	OwnedRepository[*domain.Record]

	// SumAmounts totals the amounts of the owner's records matching filter.
	SumAmounts(ctx context.Context, ownerID int64, filter SumFilter) (domain.Money, error)

	// SetReceiptKey stores the receipt object key of record (id, ownerID).
	// Returns false if no row matched.
	SetReceiptKey(ctx context.Context, ownerID, id int64, key string) (bool, error)
}

// RecurringRepository adds scheduling queries to recurring payments.
type RecurringRepository interface {
	OwnedRepository[*domain.RecurringPayment]

	// ListDue returns active payments of every owner with next_due_on on or
	// before asOf, oldest first.
	ListDue(ctx context.Context, asOf domain.Date, limit int) ([]*domain.RecurringPayment, error)

	// Advance moves p to p.NextDueOn and p.LastPostedOn, but only if the stored
	// next_due_on still equals expected. Returns false when another run got there first.
	Advance(ctx context.Context, p *domain.RecurringPayment, expected domain.Date) (bool, error)
}

// =============================================================================
// Common Types
// =============================================================================

// Pagination bounds.
const (
	DefaultListLimit = 100
	MaxListLimit     = 500
)

// ListOptions contains common pagination and filter options.
type ListOptions struct {
	// Offset is the number of records to skip.
	Offset int

	// Limit is the maximum number of records to return.
	Limit int

	// From and To restrict dated resources to [From, To). Zero means unbounded.
	From domain.Date
	To   domain.Date
}

// Normalize clamps Offset and Limit into their valid ranges.
func (o ListOptions) Normalize() ListOptions {
	if o.Offset < 0 {
		o.Offset = 0
	}
	if o.Limit <= 0 {
		o.Limit = DefaultListLimit
	}
	if o.Limit > MaxListLimit {
		o.Limit = MaxListLimit
	}
	return o
}

// ListResult is a generic paginated list result.
type ListResult[T any] struct {
	// Items is the list of items.
	Items []T `json:"items"`

	// Total is the total number of items (without pagination).
	Total int64 `json:"total"`

	// Offset is the current offset.
	Offset int `json:"offset"`

	// Limit is the current limit.
	Limit int `json:"limit"`
}

// =============================================================================
// Transaction Support
// =============================================================================

// TxManager defines the interface for transaction management.
type TxManager interface {
	// WithTx executes fn within a transaction carried by the context passed to fn.
	// Repositories called with that context take part in the transaction.
	// If fn returns an error, the transaction is rolled back.
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

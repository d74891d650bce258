package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/prn-tf/monedero/internal/domain"
	"github.com/prn-tf/monedero/internal/repository"
)

var bind = repository.DollarBinder

// OwnedRepository implements repository.OwnedRepository for one table.
type OwnedRepository[R domain.Resource] struct {
	db    *DB
	table repository.Table[R]
}

// NewOwnedRepository creates a repository over table.
func NewOwnedRepository[R domain.Resource](db *DB, table repository.Table[R]) *OwnedRepository[R] {
	return &OwnedRepository[R]{db: db, table: table}
}

// Ensure OwnedRepository implements repository.OwnedRepository
var _ repository.OwnedRepository[*domain.Goal] = (*OwnedRepository[*domain.Goal])(nil)

func (r *OwnedRepository[R]) dest(v R) []any {
	m := v.Meta()
	return append([]any{&m.ID, &m.OwnerID, &m.CreatedAt, &m.UpdatedAt}, r.table.Fields(v)...)
}

func (r *OwnedRepository[R]) scanRows(rows pgx.Rows) (R, error) {
	v := r.table.New()
	if err := rows.Scan(r.dest(v)...); err != nil {
		var zero R
		return zero, err
	}
	return v, nil
}

// Create inserts v.
func (r *OwnedRepository[R]) Create(ctx context.Context, v R) error {
	m := v.Meta()
	now := time.Now().UTC()
	args := append([]any{m.OwnerID, now, now}, r.table.Values(v)...)

	err := r.db.queryRow(ctx, r.table.InsertSQL(bind)+" RETURNING id", args, &m.ID)
	if err != nil {
		return wrapWrite("create "+r.table.Name, err)
	}

	m.CreatedAt = now
	m.UpdatedAt = now
	return nil
}

// GetByID retrieves a row by ID.
func (r *OwnedRepository[R]) GetByID(ctx context.Context, id int64) (R, error) {
	v := r.table.New()
	err := r.db.queryRow(ctx, r.table.SelectSQL()+" WHERE id = $1", []any{id}, r.dest(v)...)
	if err != nil {
		var zero R
		if isNoRows(err) {
			return zero, domain.ErrNotFound
		}
		return zero, fmt.Errorf("failed to get %s: %w", r.table.Name, err)
	}
	return v, nil
}

// List returns an owner's rows.
func (r *OwnedRepository[R]) List(ctx context.Context, ownerID int64, opts repository.ListOptions) (*repository.ListResult[R], error) {
	opts = opts.Normalize()
	query, count, args := r.table.ListSQL(bind, ownerID, opts)

	var total int64
	if err := r.db.queryRow(ctx, count, args, &total); err != nil {
		return nil, fmt.Errorf("failed to count %s: %w", r.table.Name, err)
	}

	items := make([]R, 0)
	err := r.db.query(ctx, query, append(args, opts.Limit, opts.Offset), func(rows pgx.Rows) error {
		v, err := r.scanRows(rows)
		if err != nil {
			return err
		}
		items = append(items, v)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", r.table.Name, err)
	}

	return &repository.ListResult[R]{
		Items:  items,
		Total:  total,
		Offset: opts.Offset,
		Limit:  opts.Limit,
	}, nil
}

// Update writes v where both its ID and owner match.
func (r *OwnedRepository[R]) Update(ctx context.Context, v R) error {
	m := v.Meta()
	now := time.Now().UTC()
	args := append(r.table.Values(v), now, m.ID, m.OwnerID)

	tag, err := r.db.exec(ctx, r.table.UpdateSQL(bind), args...)
	if err != nil {
		return wrapWrite("update "+r.table.Name, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	m.UpdatedAt = now
	return nil
}

// Delete removes the row matching (id, ownerID).
func (r *OwnedRepository[R]) Delete(ctx context.Context, ownerID, id int64) (bool, error) {
	tag, err := r.db.exec(ctx, r.table.DeleteSQL(bind), id, ownerID)
	if err != nil {
		return false, fmt.Errorf("failed to delete %s: %w", r.table.Name, err)
	}
	return tag.RowsAffected() > 0, nil
}

// =============================================================================
// Records
// =============================================================================

// RecordRepository implements repository.RecordRepository.
type RecordRepository struct {
	*OwnedRepository[*domain.Record]
}

// NewRecordRepository creates a new PostgreSQL record repository.
func NewRecordRepository(db *DB) *RecordRepository {
	return &RecordRepository{NewOwnedRepository(db, repository.Records)}
}

// Ensure RecordRepository implements repository.RecordRepository
var _ repository.RecordRepository = (*RecordRepository)(nil)

// SumAmounts totals matching record amounts.
func (r *RecordRepository) SumAmounts(ctx context.Context, ownerID int64, filter repository.SumFilter) (domain.Money, error) {
	query, args := repository.RecordSumSQL(bind, ownerID, filter)
	var sum int64
	if err := r.db.queryRow(ctx, query, args, &sum); err != nil {
		return 0, fmt.Errorf("failed to sum records: %w", err)
	}
	return domain.Money(sum), nil
}

// SetReceiptKey stores the receipt key of a record.
func (r *RecordRepository) SetReceiptKey(ctx context.Context, ownerID, id int64, key string) (bool, error) {
	tag, err := r.db.exec(ctx, repository.SetReceiptKeySQL(bind), key, time.Now().UTC(), id, ownerID)
	if err != nil {
		return false, fmt.Errorf("failed to set receipt key: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// =============================================================================
// Recurring payments
// =============================================================================

// RecurringRepository implements repository.RecurringRepository.
type RecurringRepository struct {
	*OwnedRepository[*domain.RecurringPayment]
}

// NewRecurringRepository creates a new PostgreSQL recurring payment repository.
func NewRecurringRepository(db *DB) *RecurringRepository {
	return &RecurringRepository{NewOwnedRepository(db, repository.RecurringPayments)}
}

// Ensure RecurringRepository implements repository.RecurringRepository
var _ repository.RecurringRepository = (*RecurringRepository)(nil)

// ListDue returns active payments due on or before asOf.
func (r *RecurringRepository) ListDue(ctx context.Context, asOf domain.Date, limit int) ([]*domain.RecurringPayment, error) {
	var due []*domain.RecurringPayment
	err := r.db.query(ctx, repository.RecurringDueSQL(bind), []any{asOf, limit}, func(rows pgx.Rows) error {
		p, err := r.scanRows(rows)
		if err != nil {
			return err
		}
		due = append(due, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list due payments: %w", err)
	}
	return due, nil
}

// Advance moves p forward if its stored next_due_on still equals expected.
func (r *RecurringRepository) Advance(ctx context.Context, p *domain.RecurringPayment, expected domain.Date) (bool, error) {
	now := time.Now().UTC()
	args := append(repository.AdvanceArgs(p), now, p.ID, expected)

	tag, err := r.db.exec(ctx, repository.RecurringAdvanceSQL(bind), args...)
	if err != nil {
		return false, fmt.Errorf("failed to advance recurring payment: %w", err)
	}
	if tag.RowsAffected() > 0 {
		p.UpdatedAt = now
	}
	return tag.RowsAffected() > 0, nil
}

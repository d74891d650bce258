package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/prn-tf/monedero/internal/domain"
	"github.com/prn-tf/monedero/internal/repository"
)

var bind = repository.QuestionBinder

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
var _ repository.OwnedRepository[*domain.Account] = (*OwnedRepository[*domain.Account])(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *OwnedRepository[R]) scan(row rowScanner) (R, error) {
	v := r.table.New()
	m := v.Meta()
	dest := append([]any{&m.ID, &m.OwnerID, timestamp{&m.CreatedAt}, timestamp{&m.UpdatedAt}}, r.table.Fields(v)...)
	if err := row.Scan(dest...); err != nil {
		var zero R
		return zero, err
	}
	return v, nil
}

// Create inserts v.
func (r *OwnedRepository[R]) Create(ctx context.Context, v R) error {
	m := v.Meta()
	now := time.Now().UTC()
	args := append([]any{m.OwnerID, formatTime(now), formatTime(now)}, r.table.Values(v)...)

	result, err := r.db.conn(ctx).ExecContext(ctx, r.table.InsertSQL(bind), args...)
	if err != nil {
		return wrapWrite("create "+r.table.Name, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	m.ID = id
	m.CreatedAt = now
	m.UpdatedAt = now
	return nil
}

// GetByID retrieves a row by ID.
func (r *OwnedRepository[R]) GetByID(ctx context.Context, id int64) (R, error) {
	row := r.db.conn(ctx).QueryRowContext(ctx, r.table.SelectSQL()+" WHERE id = ?", id)
	v, err := r.scan(row)
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
	q := r.db.conn(ctx)

	var total int64
	if err := q.QueryRowContext(ctx, count, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count %s: %w", r.table.Name, err)
	}

	rows, err := q.QueryContext(ctx, query, append(args, opts.Limit, opts.Offset)...)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", r.table.Name, err)
	}
	defer rows.Close()

	items := make([]R, 0)
	for rows.Next() {
		v, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", r.table.Name, err)
		}
		items = append(items, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", r.table.Name, err)
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
	args := append(r.table.Values(v), formatTime(now), m.ID, m.OwnerID)

	result, err := r.db.conn(ctx).ExecContext(ctx, r.table.UpdateSQL(bind), args...)
	if err != nil {
		return wrapWrite("update "+r.table.Name, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}

	m.UpdatedAt = now
	return nil
}

// Delete removes the row matching (id, ownerID).
func (r *OwnedRepository[R]) Delete(ctx context.Context, ownerID, id int64) (bool, error) {
	result, err := r.db.conn(ctx).ExecContext(ctx, r.table.DeleteSQL(bind), id, ownerID)
	if err != nil {
		return false, fmt.Errorf("failed to delete %s: %w", r.table.Name, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// =============================================================================
// Records
// =============================================================================

// RecordRepository implements repository.RecordRepository.
type RecordRepository struct {
	*OwnedRepository[*domain.Record]
}

// NewRecordRepository creates a new SQLite record repository.
func NewRecordRepository(db *DB) *RecordRepository {
	return &RecordRepository{NewOwnedRepository(db, repository.Records)}
}

// Ensure RecordRepository implements repository.RecordRepository
var _ repository.RecordRepository = (*RecordRepository)(nil)

// SumAmounts totals matching record amounts.
func (r *RecordRepository) SumAmounts(ctx context.Context, ownerID int64, filter repository.SumFilter) (domain.Money, error) {
	query, args := repository.RecordSumSQL(bind, ownerID, filter)
	var sum domain.Money
	if err := r.db.conn(ctx).QueryRowContext(ctx, query, args...).Scan(&sum); err != nil {
		return 0, fmt.Errorf("failed to sum records: %w", err)
	}
	return sum, nil
}

// SetReceiptKey stores the receipt key of a record.
func (r *RecordRepository) SetReceiptKey(ctx context.Context, ownerID, id int64, key string) (bool, error) {
	result, err := r.db.conn(ctx).ExecContext(ctx, repository.SetReceiptKeySQL(bind),
		key, formatTime(time.Now()), id, ownerID)
	if err != nil {
		return false, fmt.Errorf("failed to set receipt key: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// =============================================================================
// Recurring payments
// =============================================================================

// RecurringRepository implements repository.RecurringRepository.
type RecurringRepository struct {
	*OwnedRepository[*domain.RecurringPayment]
}

// NewRecurringRepository creates a new SQLite recurring payment repository.
func NewRecurringRepository(db *DB) *RecurringRepository {
	return &RecurringRepository{NewOwnedRepository(db, repository.RecurringPayments)}
}

// Ensure RecurringRepository implements repository.RecurringRepository
var _ repository.RecurringRepository = (*RecurringRepository)(nil)

// ListDue returns active payments due on or before asOf.
func (r *RecurringRepository) ListDue(ctx context.Context, asOf domain.Date, limit int) ([]*domain.RecurringPayment, error) {
	rows, err := r.db.conn(ctx).QueryContext(ctx, repository.RecurringDueSQL(bind), asOf, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list due payments: %w", err)
	}
	defer rows.Close()

	var due []*domain.RecurringPayment
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recurring payment: %w", err)
		}
		due = append(due, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating due payments: %w", err)
	}
	return due, nil
}

// Advance moves p forward if its stored next_due_on still equals expected.
func (r *RecurringRepository) Advance(ctx context.Context, p *domain.RecurringPayment, expected domain.Date) (bool, error) {
	now := time.Now().UTC()
	args := append(repository.AdvanceArgs(p), formatTime(now), p.ID, expected)

	result, err := r.db.conn(ctx).ExecContext(ctx, repository.RecurringAdvanceSQL(bind), args...)
	if err != nil {
		return false, fmt.Errorf("failed to advance recurring payment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows > 0 {
		p.UpdatedAt = now
	}
	return rows > 0, nil
}

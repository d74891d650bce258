package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/prn-tf/monedero/internal/auth"
	"github.com/prn-tf/monedero/internal/domain"
	"github.com/prn-tf/monedero/internal/pkg/crypto"
	"github.com/prn-tf/monedero/internal/repository"
	"github.com/prn-tf/monedero/internal/storage"
)

const testSigningSecret = "test-signing-secret-of-at-least-32-chars"

func testHasher(t *testing.T) *crypto.BcryptHasher {
	t.Helper()
	h, err := crypto.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func testTokens(t *testing.T) *auth.TokenManager {
	t.Helper()
	m, err := auth.NewTokenManager(testSigningSecret, time.Hour)
	require.NoError(t, err)
	return m
}

// =============================================================================
// MockUserRepository
// =============================================================================

// MockUserRepository is a testify mock of repository.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func userOrNil(v any) *domain.User {
	if v == nil {
		return nil
	}
	return v.(*domain.User)
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockUserRepository) List(ctx context.Context, opts repository.ListOptions) (*repository.ListResult[*domain.User], error) {
	args := m.Called(ctx, opts)
	result, _ := args.Get(0).(*repository.ListResult[*domain.User])
	return result, args.Error(1)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

// =============================================================================
// MemoryOwnedRepository
// =============================================================================

// MemoryOwnedRepository is an in-memory repository.OwnedRepository.
type MemoryOwnedRepository[R domain.Resource] struct {
	mu     sync.Mutex
	rows   map[int64]R
	nextID int64

	// owners, when set, makes Create fail for owners not in it.
	owners map[int64]bool
	// clone copies rows so callers never share memory with the store.
	clone func(R) R

	createErr error
	listErr   error
}

func NewMemoryOwnedRepository[R domain.Resource](clone func(R) R) *MemoryOwnedRepository[R] {
	return &MemoryOwnedRepository[R]{rows: make(map[int64]R), nextID: 1, clone: clone}
}

func (m *MemoryOwnedRepository[R]) Create(ctx context.Context, r R) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	meta := r.Meta()
	if m.owners != nil && !m.owners[meta.OwnerID] {
		return repository.ErrReferenceViolation
	}
	meta.ID = m.nextID
	m.nextID++
	meta.CreatedAt = time.Now().UTC()
	meta.UpdatedAt = meta.CreatedAt
	m.rows[meta.ID] = m.clone(r)
	return nil
}

func (m *MemoryOwnedRepository[R]) GetByID(ctx context.Context, id int64) (R, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		var zero R
		return zero, domain.ErrNotFound
	}
	return m.clone(r), nil
}

func (m *MemoryOwnedRepository[R]) List(ctx context.Context, ownerID int64, opts repository.ListOptions) (*repository.ListResult[R], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	items := []R{}
	for _, r := range m.rows {
		if r.Meta().OwnedBy(ownerID) {
			items = append(items, m.clone(r))
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Meta().ID < items[j].Meta().ID })
	return &repository.ListResult[R]{Items: items, Total: int64(len(items)), Offset: opts.Offset, Limit: opts.Limit}, nil
}

func (m *MemoryOwnedRepository[R]) Update(ctx context.Context, r R) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	meta := r.Meta()
	existing, ok := m.rows[meta.ID]
	if !ok || !existing.Meta().OwnedBy(meta.OwnerID) {
		return domain.ErrNotFound
	}
	meta.UpdatedAt = time.Now().UTC()
	m.rows[meta.ID] = m.clone(r)
	return nil
}

func (m *MemoryOwnedRepository[R]) Delete(ctx context.Context, ownerID, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok || !r.Meta().OwnedBy(ownerID) {
		return false, nil
	}
	delete(m.rows, id)
	return true, nil
}

func cloneAccount(a *domain.Account) *domain.Account {
	c := *a
	return &c
}

func cloneCategory(c *domain.Category) *domain.Category {
	n := *c
	return &n
}

func cloneRecord(r *domain.Record) *domain.Record {
	c := *r
	return &c
}

func cloneBudget(b *domain.Budget) *domain.Budget {
	c := *b
	return &c
}

func cloneDebt(d *domain.Debt) *domain.Debt {
	c := *d
	return &c
}

func cloneRecurring(p *domain.RecurringPayment) *domain.RecurringPayment {
	c := *p
	return &c
}

// MemoryRecordRepository adds aggregation to the in-memory record store.
type MemoryRecordRepository struct {
	*MemoryOwnedRepository[*domain.Record]
}

func NewMemoryRecordRepository() *MemoryRecordRepository {
	return &MemoryRecordRepository{NewMemoryOwnedRepository[*domain.Record](cloneRecord)}
}

func (m *MemoryRecordRepository) SumAmounts(ctx context.Context, ownerID int64, f repository.SumFilter) (domain.Money, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total domain.Money
	for _, r := range m.rows {
		switch {
		case !r.OwnedBy(ownerID),
			f.Kind != "" && r.Kind != f.Kind,
			f.CategoryID != nil && (r.CategoryID == nil || *r.CategoryID != *f.CategoryID),
			f.AccountID != nil && r.AccountID != *f.AccountID,
			!f.From.IsZero() && r.OccurredOn.Before(f.From),
			!f.To.IsZero() && !r.OccurredOn.Before(f.To):
			continue
		}
		total += r.Amount
	}
	return total, nil
}

func (m *MemoryRecordRepository) SetReceiptKey(ctx context.Context, ownerID, id int64, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok || !r.OwnedBy(ownerID) {
		return false, nil
	}
	r.ReceiptKey = key
	return true, nil
}

// MemoryRecurringRepository adds scheduling to the in-memory recurring store.
type MemoryRecurringRepository struct {
	*MemoryOwnedRepository[*domain.RecurringPayment]
}

func NewMemoryRecurringRepository() *MemoryRecurringRepository {
	return &MemoryRecurringRepository{NewMemoryOwnedRepository[*domain.RecurringPayment](cloneRecurring)}
}

func (m *MemoryRecurringRepository) ListDue(ctx context.Context, asOf domain.Date, limit int) ([]*domain.RecurringPayment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var due []*domain.RecurringPayment
	for _, p := range m.rows {
		if p.Due(asOf) {
			due = append(due, m.clone(p))
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ID < due[j].ID })
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (m *MemoryRecurringRepository) Advance(ctx context.Context, p *domain.RecurringPayment, expected domain.Date) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.rows[p.ID]
	if !ok || !stored.NextDueOn.Equal(expected.Time) {
		return false, nil
	}
	stored.NextDueOn = p.NextDueOn
	stored.LastPostedOn = p.LastPostedOn
	return true, nil
}

// passthroughTx runs fn without a real transaction.
type passthroughTx struct{}

func (passthroughTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// MockReceiptStore is a testify mock of storage.ReceiptStore.
type MockReceiptStore struct {
	mock.Mock
}

func (m *MockReceiptStore) PresignUpload(ctx context.Context, key, contentType string) (*storage.PresignedURL, error) {
	args := m.Called(ctx, key, contentType)
	u, _ := args.Get(0).(*storage.PresignedURL)
	return u, args.Error(1)
}

func (m *MockReceiptStore) PresignDownload(ctx context.Context, key string) (*storage.PresignedURL, error) {
	args := m.Called(ctx, key)
	u, _ := args.Get(0).(*storage.PresignedURL)
	return u, args.Error(1)
}

// fixture wires resource services over in-memory repositories.
type fixture struct {
	users      *MockUserRepository
	accounts   *MemoryOwnedRepository[*domain.Account]
	categories *MemoryOwnedRepository[*domain.Category]
	records    *MemoryRecordRepository
	budgets    *MemoryOwnedRepository[*domain.Budget]
	recurring  *MemoryRecurringRepository
	debts      *MemoryOwnedRepository[*domain.Debt]
	refs       *ReferenceChecker
}

func newFixture() *fixture {
	f := &fixture{
		users:      &MockUserRepository{},
		accounts:   NewMemoryOwnedRepository(cloneAccount),
		categories: NewMemoryOwnedRepository(cloneCategory),
		records:    NewMemoryRecordRepository(),
		budgets:    NewMemoryOwnedRepository(cloneBudget),
		recurring:  NewMemoryRecurringRepository(),
		debts:      NewMemoryOwnedRepository(cloneDebt),
	}
	f.refs = NewReferenceChecker(f.users, f.accounts, f.categories)
	return f
}

func (f *fixture) accountService() *AccountService {
	return NewAccountService(
		NewResourceService[*domain.Account]("account", f.accounts, domain.NewAccount, f.refs, zerolog.Nop()),
		f.records,
	)
}

func (f *fixture) recordService(receipts storage.ReceiptStore) *RecordService {
	base := NewResourceService[*domain.Record]("record", f.records, domain.NewRecord, f.refs, zerolog.Nop())
	return NewRecordService(base, f.records, receipts)
}

func (f *fixture) budgetService() *BudgetService {
	return NewBudgetService(
		NewResourceService[*domain.Budget]("budget", f.budgets, domain.NewBudget, f.refs, zerolog.Nop()),
		f.records,
	)
}

func (f *fixture) debtService() *ResourceService[*domain.Debt] {
	return NewResourceService[*domain.Debt]("debt", f.debts, domain.NewDebt, f.refs, zerolog.Nop())
}

func (f *fixture) seedAccount(t *testing.T, ownerID int64, name string) *domain.Account {
	t.Helper()
	a := domain.NewAccount()
	a.OwnerID = ownerID
	a.Name = name
	require.NoError(t, f.accounts.Create(context.Background(), a))
	return a
}

func ptr[T any](v T) *T {
	return &v
}

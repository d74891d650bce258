package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/monedero/internal/domain"
	"github.com/prn-tf/monedero/internal/repository"
	"github.com/prn-tf/monedero/internal/storage"
)

const (
	alice int64 = 1
	bob   int64 = 2
)

func TestResourceService_OwnershipContract(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc := f.accountService()

	created, err := svc.Create(ctx, alice, &domain.AccountPatch{Name: ptr("Wallet")})
	require.NoError(t, err)
	require.Equal(t, alice, created.OwnerID)
	require.NotZero(t, created.ID)
	require.Equal(t, domain.AccountTypeCash, created.Type, "defaults apply to omitted fields")
	require.Equal(t, domain.DefaultCurrency, created.Currency)
	require.False(t, created.CreatedAt.IsZero())

	t.Run("other owners see not found", func(t *testing.T) {
		_, err := svc.Get(ctx, bob, created.ID)
		require.ErrorIs(t, err, domain.ErrNotFound)

		_, err = svc.Update(ctx, bob, created.ID, &domain.AccountPatch{Name: ptr("Mine now")})
		require.ErrorIs(t, err, domain.ErrNotFound)

		require.ErrorIs(t, svc.Delete(ctx, bob, created.ID), domain.ErrNotFound)

		list, err := svc.List(ctx, bob, repository.ListOptions{})
		require.NoError(t, err)
		require.Empty(t, list.Items)
	})

	t.Run("partial update keeps absent fields", func(t *testing.T) {
		updated, err := svc.Update(ctx, alice, created.ID, &domain.AccountPatch{Currency: ptr("usd")})
		require.NoError(t, err)
		require.Equal(t, "USD", updated.Currency)
		require.Equal(t, "Wallet", updated.Name)
	})

	t.Run("owner can list and delete", func(t *testing.T) {
		list, err := svc.List(ctx, alice, repository.ListOptions{})
		require.NoError(t, err)
		require.Len(t, list.Items, 1)
		require.Equal(t, repository.DefaultListLimit, list.Limit)

		require.NoError(t, svc.Delete(ctx, alice, created.ID))
		require.ErrorIs(t, svc.Delete(ctx, alice, created.ID), domain.ErrNotFound)
	})
}

func TestResourceService_Validation(t *testing.T) {
	ctx := context.Background()
	svc := newFixture().accountService()

	_, err := svc.Create(ctx, alice, &domain.AccountPatch{})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "name")

	_, err = svc.Update(ctx, alice, 99, &domain.AccountPatch{Currency: ptr("euros")})
	require.ErrorIs(t, err, domain.ErrValidation, "patches are validated before lookup")
}

func TestResourceService_References(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	records := f.recordService(nil)

	mine := f.seedAccount(t, alice, "Bank")
	theirs := f.seedAccount(t, bob, "Bank")

	_, err := records.Create(ctx, alice, &domain.RecordPatch{
		AccountID: ptr(theirs.ID),
		Kind:      ptr(domain.KindExpense),
		Amount:    ptr(domain.Money(500)),
	})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "account_id")

	record, err := records.Create(ctx, alice, &domain.RecordPatch{
		AccountID:  ptr(mine.ID),
		CategoryID: ptr(int64(0)),
		Kind:       ptr(domain.KindExpense),
		Amount:     ptr(domain.Money(500)),
	})
	require.NoError(t, err)
	require.Nil(t, record.CategoryID, "category 0 means none")
	require.Equal(t, domain.DateOf(time.Now()), record.OccurredOn, "occurred_on defaults to today")

	_, err = records.Update(ctx, alice, record.ID, &domain.RecordPatch{CategoryID: ptr(int64(42))})
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "category_id")
}

func TestResourceService_ReferenceViolation(t *testing.T) {
	ctx := context.Background()

	t.Run("owner gone", func(t *testing.T) {
		f := newFixture()
		f.accounts.owners = map[int64]bool{}
		f.users.On("GetByID", mock.Anything, alice).Return(nil, domain.ErrUserNotFound)

		_, err := f.accountService().Create(ctx, alice, &domain.AccountPatch{Name: ptr("Wallet")})
		require.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("referenced row gone", func(t *testing.T) {
		f := newFixture()
		f.accounts.createErr = repository.ErrReferenceViolation
		f.users.On("GetByID", mock.Anything, alice).Return(&domain.User{ID: alice}, nil)

		_, err := f.accountService().Create(ctx, alice, &domain.AccountPatch{Name: ptr("Wallet")})
		require.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("other failures are internal", func(t *testing.T) {
		f := newFixture()
		f.accounts.createErr = errors.New("disk full")

		_, err := f.accountService().Create(ctx, alice, &domain.AccountPatch{Name: ptr("Wallet")})
		require.ErrorIs(t, err, ErrInternalError)
	})
}

func TestResourceService_CheckerAndComputer(t *testing.T) {
	ctx := context.Background()
	svc := newFixture().debtService()

	debt, err := svc.Create(ctx, alice, &domain.DebtPatch{
		Counterparty: ptr("Luis"),
		Direction:    ptr(domain.DebtOwedToMe),
		Amount:       ptr(domain.Money(10000)),
		PaidAmount:   ptr(domain.Money(2500)),
	})
	require.NoError(t, err)
	require.Equal(t, 25, debt.Progress)
	require.False(t, debt.Settled)

	_, err = svc.Update(ctx, alice, debt.ID, &domain.DebtPatch{PaidAmount: ptr(domain.Money(20000))})
	require.ErrorIs(t, err, domain.ErrValidation, "paid may not exceed the amount once merged")

	debt, err = svc.Update(ctx, alice, debt.ID, &domain.DebtPatch{PaidAmount: ptr(domain.Money(10000))})
	require.NoError(t, err)
	require.True(t, debt.Settled)
	require.Equal(t, 100, debt.Progress)
}

func TestRecordService_Receipts(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	account := f.seedAccount(t, alice, "Bank")

	t.Run("disabled without a store", func(t *testing.T) {
		_, err := f.recordService(nil).UploadReceipt(ctx, alice, 1, "image/png")
		require.ErrorIs(t, err, ErrReceiptsDisabled)
	})

	store := &MockReceiptStore{}
	svc := f.recordService(store)
	record, err := svc.Create(ctx, alice, &domain.RecordPatch{
		AccountID: ptr(account.ID),
		Kind:      ptr(domain.KindExpense),
		Amount:    ptr(domain.Money(1250)),
	})
	require.NoError(t, err)

	_, err = svc.DownloadReceipt(ctx, alice, record.ID)
	require.ErrorIs(t, err, ErrNoReceipt)

	_, err = svc.UploadReceipt(ctx, alice, record.ID, "text/html")
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.UploadReceipt(ctx, bob, record.ID, "image/png")
	require.ErrorIs(t, err, domain.ErrNotFound)

	store.On("PresignUpload", mock.Anything, mock.AnythingOfType("string"), "image/png").
		Return(&storage.PresignedURL{URL: "https://s3/upload", Method: "PUT"}, nil)
	upload, err := svc.UploadReceipt(ctx, alice, record.ID, "image/png")
	require.NoError(t, err)
	require.Equal(t, "https://s3/upload", upload.Upload.URL)

	store.On("PresignDownload", mock.Anything, upload.Key).
		Return(&storage.PresignedURL{URL: "https://s3/download", Method: "GET"}, nil)
	download, err := svc.DownloadReceipt(ctx, alice, record.ID)
	require.NoError(t, err)
	require.Equal(t, "https://s3/download", download.URL)
	store.AssertExpectations(t)
}

func TestRecordService_Summarize(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	account := f.seedAccount(t, alice, "Bank")
	svc := f.recordService(nil)

	add := func(owner int64, kind domain.EntryKind, amount domain.Money, day domain.Date) {
		r := &domain.Record{AccountID: account.ID, Kind: kind, Amount: amount, OccurredOn: day}
		r.OwnerID = owner
		require.NoError(t, f.records.Create(ctx, r))
	}
	add(alice, domain.KindIncome, 300000, domain.NewDate(2025, 3, 1))
	add(alice, domain.KindExpense, 12050, domain.NewDate(2025, 3, 10))
	add(alice, domain.KindExpense, 999, domain.NewDate(2025, 4, 1))
	add(bob, domain.KindExpense, 50000, domain.NewDate(2025, 3, 10))

	summary, err := svc.Summarize(ctx, alice, domain.NewDate(2025, 3, 1), domain.NewDate(2025, 4, 1))
	require.NoError(t, err)
	require.Equal(t, domain.Money(300000), summary.Income)
	require.Equal(t, domain.Money(12050), summary.Expense)
	require.Equal(t, domain.Money(287950), summary.Net)

	_, err = svc.Summarize(ctx, alice, domain.NewDate(2025, 4, 1), domain.NewDate(2025, 3, 1))
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestAccountService_Balance(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc := f.accountService()

	account, err := svc.Create(ctx, alice, &domain.AccountPatch{Name: ptr("Bank"), InitialBalance: ptr(domain.Money(10000))})
	require.NoError(t, err)
	other := f.seedAccount(t, alice, "Cash")

	for _, r := range []*domain.Record{
		{AccountID: account.ID, Kind: domain.KindIncome, Amount: 5000},
		{AccountID: account.ID, Kind: domain.KindExpense, Amount: 2500},
		{AccountID: other.ID, Kind: domain.KindExpense, Amount: 100},
	} {
		r.OwnerID = alice
		require.NoError(t, f.records.Create(ctx, r))
	}

	balance, err := svc.Balance(ctx, alice, account.ID)
	require.NoError(t, err)
	require.Equal(t, domain.Money(12500), balance.Balance)

	_, err = svc.Balance(ctx, bob, account.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBudgetService_Progress(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	account := f.seedAccount(t, alice, "Bank")
	groceries := &domain.Category{Name: "Groceries", Kind: domain.KindExpense}
	groceries.OwnerID = alice
	require.NoError(t, f.categories.Create(ctx, groceries))

	svc := f.budgetService()
	budget, err := svc.Create(ctx, alice, &domain.BudgetPatch{
		Name:       ptr("Food"),
		CategoryID: ptr(groceries.ID),
		Amount:     ptr(domain.Money(40000)),
		StartOn:    ptr(domain.NewDate(2025, 1, 15)),
	})
	require.NoError(t, err)

	for _, r := range []*domain.Record{
		{CategoryID: &groceries.ID, OccurredOn: domain.NewDate(2025, 3, 14), Amount: 9999},
		{CategoryID: &groceries.ID, OccurredOn: domain.NewDate(2025, 3, 15), Amount: 30000},
		{CategoryID: &groceries.ID, OccurredOn: domain.NewDate(2025, 4, 1), Amount: 20000},
		{OccurredOn: domain.NewDate(2025, 3, 20), Amount: 5000},
	} {
		r.OwnerID = alice
		r.AccountID = account.ID
		r.Kind = domain.KindExpense
		require.NoError(t, f.records.Create(ctx, r))
	}

	progress, err := svc.Progress(ctx, alice, budget.ID, domain.NewDate(2025, 4, 2))
	require.NoError(t, err)
	require.Equal(t, domain.NewDate(2025, 3, 15), progress.PeriodStart)
	require.Equal(t, domain.NewDate(2025, 4, 15), progress.PeriodEnd)
	require.Equal(t, domain.Money(50000), progress.Spent)
	require.Equal(t, domain.Money(-10000), progress.Remaining)
	require.True(t, progress.Exceeded)
	require.Equal(t, 100, progress.Percent, "percent is clamped")
}

package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/monedero/internal/domain"
	"github.com/prn-tf/monedero/internal/repository"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()

	db, err := NewDB(ctx, DefaultConfig(MemoryPath), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	migrator, err := db.Migrator()
	require.NoError(t, err)
	require.NoError(t, migrator.Up(ctx))

	version, err := migrator.Version(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), version)
	return db
}

func createUser(t *testing.T, repos *repository.Repositories, email string) *domain.User {
	t.Helper()
	user := domain.NewUser("Ana", "García", "", email, "hash")
	require.NoError(t, repos.Users.Create(context.Background(), user))
	require.NotZero(t, user.ID)
	return user
}

func createAccount(t *testing.T, repos *repository.Repositories, ownerID int64, name string) *domain.Account {
	t.Helper()
	account := domain.NewAccount()
	account.OwnerID = ownerID
	account.Name = name
	require.NoError(t, repos.Accounts.Create(context.Background(), account))
	return account
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories(newTestDB(t))

	user := createUser(t, repos, "ana@example.com")

	err := repos.Users.Create(ctx, domain.NewUser("Other", "", "", "ana@example.com", "hash"))
	require.ErrorIs(t, err, domain.ErrDuplicateEmail)

	got, err := repos.Users.GetByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)
	require.Equal(t, "García", got.Surname)
	require.WithinDuration(t, user.CreatedAt, got.CreatedAt, time.Millisecond)

	exists, err := repos.Users.ExistsByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	require.True(t, exists)

	got.Phone = "+34 600 000 000"
	require.NoError(t, repos.Users.Update(ctx, got))
	got, err = repos.Users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, "+34 600 000 000", got.Phone)

	list, err := repos.Users.List(ctx, repository.ListOptions{})
	require.NoError(t, err)
	require.Equal(t, int64(1), list.Total)
	require.Len(t, list.Items, 1)

	require.NoError(t, repos.Users.Delete(ctx, user.ID))
	_, err = repos.Users.GetByID(ctx, user.ID)
	require.ErrorIs(t, err, domain.ErrUserNotFound)
	require.ErrorIs(t, repos.Users.Delete(ctx, user.ID), domain.ErrUserNotFound)
}

func TestOwnedRepository_ScopesByOwner(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories(newTestDB(t))

	alice := createUser(t, repos, "alice@example.com")
	bob := createUser(t, repos, "bob@example.com")

	wallet := createAccount(t, repos, alice.ID, "Wallet")
	createAccount(t, repos, alice.ID, "Bank")
	createAccount(t, repos, bob.ID, "Bob's")

	got, err := repos.Accounts.GetByID(ctx, wallet.ID)
	require.NoError(t, err)
	require.Equal(t, "Wallet", got.Name)
	require.Equal(t, domain.DefaultCurrency, got.Currency)
	require.True(t, got.OwnedBy(alice.ID))

	list, err := repos.Accounts.List(ctx, alice.ID, repository.ListOptions{})
	require.NoError(t, err)
	require.Equal(t, int64(2), list.Total)
	require.Equal(t, "Bank", list.Items[0].Name)

	// Bob cannot update or delete Alice's account.
	stolen := *got
	stolen.OwnerID = bob.ID
	stolen.Name = "Mine now"
	require.ErrorIs(t, repos.Accounts.Update(ctx, &stolen), domain.ErrNotFound)

	deleted, err := repos.Accounts.Delete(ctx, bob.ID, wallet.ID)
	require.NoError(t, err)
	require.False(t, deleted)

	got.Name = "Cash"
	require.NoError(t, repos.Accounts.Update(ctx, got))
	got, err = repos.Accounts.GetByID(ctx, wallet.ID)
	require.NoError(t, err)
	require.Equal(t, "Cash", got.Name)

	deleted, err = repos.Accounts.Delete(ctx, alice.ID, wallet.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	_, err = repos.Accounts.GetByID(ctx, wallet.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOwnedRepository_ReferenceViolation(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories(newTestDB(t))

	// Missing owner.
	account := domain.NewAccount()
	account.OwnerID = 404
	account.Name = "Ghost"
	require.ErrorIs(t, repos.Accounts.Create(ctx, account), repository.ErrReferenceViolation)

	// Missing account.
	user := createUser(t, repos, "ref@example.com")
	record := &domain.Record{AccountID: 999, Kind: domain.KindExpense, Amount: 100, OccurredOn: domain.NewDate(2025, 1, 1)}
	record.OwnerID = user.ID
	require.ErrorIs(t, repos.Records.Create(ctx, record), repository.ErrReferenceViolation)
}

func TestRecordRepository(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories(newTestDB(t))

	user := createUser(t, repos, "rec@example.com")
	account := createAccount(t, repos, user.ID, "Wallet")

	food := domain.NewCategory()
	food.OwnerID = user.ID
	food.Name = "Food"
	food.Kind = domain.KindExpense
	require.NoError(t, repos.Categories.Create(ctx, food))

	add := func(kind domain.EntryKind, amount domain.Money, day domain.Date, category *int64) *domain.Record {
		r := &domain.Record{AccountID: account.ID, CategoryID: category, Kind: kind, Amount: amount, OccurredOn: day}
		r.OwnerID = user.ID
		require.NoError(t, repos.Records.Create(ctx, r))
		return r
	}

	add(domain.KindExpense, 1250, domain.NewDate(2025, 3, 2), &food.ID)
	add(domain.KindExpense, 750, domain.NewDate(2025, 3, 31), &food.ID)
	add(domain.KindExpense, 999, domain.NewDate(2025, 4, 1), &food.ID)
	add(domain.KindExpense, 300, domain.NewDate(2025, 3, 15), nil)
	salary := add(domain.KindIncome, 200000, domain.NewDate(2025, 3, 1), nil)

	march := repository.ListOptions{From: domain.NewDate(2025, 3, 1), To: domain.NewDate(2025, 4, 1)}
	list, err := repos.Records.List(ctx, user.ID, march)
	require.NoError(t, err)
	require.Equal(t, int64(4), list.Total)
	require.Equal(t, domain.NewDate(2025, 3, 31), list.Items[0].OccurredOn)
	require.Nil(t, list.Items[len(list.Items)-1].CategoryID)

	sum, err := repos.Records.SumAmounts(ctx, user.ID, repository.SumFilter{
		Kind:       domain.KindExpense,
		CategoryID: &food.ID,
		From:       march.From,
		To:         march.To,
	})
	require.NoError(t, err)
	require.Equal(t, domain.Money(2000), sum)

	sum, err = repos.Records.SumAmounts(ctx, user.ID, repository.SumFilter{Kind: domain.KindExpense})
	require.NoError(t, err)
	require.Equal(t, domain.Money(3299), sum)

	ok, err := repos.Records.SetReceiptKey(ctx, user.ID, salary.ID, "receipts/1/x.png")
	require.NoError(t, err)
	require.True(t, ok)
	got, err := repos.Records.GetByID(ctx, salary.ID)
	require.NoError(t, err)
	require.Equal(t, "receipts/1/x.png", got.ReceiptKey)

	// Deleting the category clears it on records instead of deleting them.
	deleted, err := repos.Categories.Delete(ctx, user.ID, food.ID)
	require.NoError(t, err)
	require.True(t, deleted)
	list, err = repos.Records.List(ctx, user.ID, repository.ListOptions{})
	require.NoError(t, err)
	require.Equal(t, int64(5), list.Total)
	for _, r := range list.Items {
		require.Nil(t, r.CategoryID)
	}
}

func TestRecurringRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repos := NewRepositories(db)

	user := createUser(t, repos, "rent@example.com")
	account := createAccount(t, repos, user.ID, "Bank")

	rent := domain.NewRecurringPayment()
	rent.OwnerID = user.ID
	rent.Name = "Rent"
	rent.Amount = 80000
	rent.AccountID = account.ID
	rent.ApplyDefaults(domain.NewDate(2025, 1, 31))
	require.NoError(t, repos.Recurring.Create(ctx, rent))

	paused := domain.NewRecurringPayment()
	paused.OwnerID = user.ID
	paused.Name = "Gym"
	paused.Amount = 3000
	paused.AccountID = account.ID
	paused.Active = false
	paused.ApplyDefaults(domain.NewDate(2025, 1, 1))
	require.NoError(t, repos.Recurring.Create(ctx, paused))

	due, err := repos.Recurring.ListDue(ctx, domain.NewDate(2025, 1, 30), 10)
	require.NoError(t, err)
	require.Empty(t, due)

	due, err = repos.Recurring.ListDue(ctx, domain.NewDate(2025, 2, 1), 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	require.Equal(t, rent.ID, due[0].ID)
	require.True(t, due[0].Active)
	require.Nil(t, due[0].LastPostedOn)

	p := due[0]
	expected := p.NextDueOn
	posted := p.NextDueOn
	p.LastPostedOn = &posted
	p.NextDueOn = domain.NewDate(2025, 2, 28)

	ok, err := repos.Recurring.Advance(ctx, p, expected)
	require.NoError(t, err)
	require.True(t, ok)

	// A second run holding the stale due day loses.
	ok, err = repos.Recurring.Advance(ctx, p, expected)
	require.NoError(t, err)
	require.False(t, ok)

	got, err := repos.Recurring.GetByID(ctx, rent.ID)
	require.NoError(t, err)
	require.Equal(t, domain.NewDate(2025, 2, 28), got.NextDueOn)
	require.NotNil(t, got.LastPostedOn)
	require.Equal(t, domain.NewDate(2025, 1, 31), *got.LastPostedOn)
}

func TestWithTx(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repos := NewRepositories(db)

	errBoom := errors.New("boom")
	err := db.WithTx(ctx, func(txCtx context.Context) error {
		user := domain.NewUser("In", "Tx", "", "in-tx@example.com", "hash")
		require.NoError(t, repos.Users.Create(txCtx, user))
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	exists, err := repos.Users.ExistsByEmail(ctx, "in-tx@example.com")
	require.NoError(t, err)
	require.False(t, exists)
}

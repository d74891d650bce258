package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	require.ErrorIs(t, err, ErrValidation)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	return verr.Fields
}

func TestRecordPatch_Validate(t *testing.T) {
	tests := []struct {
		name     string
		patch    RecordPatch
		creating bool
		wantKeys []string
	}{
		{
			name:     "create requires fields",
			patch:    RecordPatch{},
			creating: true,
			wantKeys: []string{"account_id", "kind", "amount"},
		},
		{
			name: "create valid",
			patch: RecordPatch{
				AccountID: ptr(int64(1)),
				Kind:      ptr(KindExpense),
				Amount:    ptr(Money(1000)),
			},
			creating: true,
		},
		{
			name:     "update partial",
			patch:    RecordPatch{Description: ptr("coffee")},
			creating: false,
		},
		{
			name:     "amount must be positive",
			patch:    RecordPatch{Amount: ptr(Money(0))},
			wantKeys: []string{"amount"},
		},
		{
			name:     "unknown kind",
			patch:    RecordPatch{Kind: ptr(EntryKind("gift"))},
			wantKeys: []string{"kind"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.patch.Validate(tt.creating)
			if len(tt.wantKeys) == 0 {
				require.NoError(t, err)
				return
			}
			fields := fieldsOf(t, err)
			require.Len(t, fields, len(tt.wantKeys))
			for _, k := range tt.wantKeys {
				require.Contains(t, fields, k)
			}
		})
	}
}

func TestRecordPatch_ApplyOnlyPresentFields(t *testing.T) {
	cat := int64(9)
	r := &Record{AccountID: 1, CategoryID: &cat, Kind: KindExpense, Amount: 500, Description: "lunch"}

	patch := RecordPatch{Amount: ptr(Money(750))}
	patch.Apply(r)

	require.Equal(t, Money(750), r.Amount)
	require.Equal(t, "lunch", r.Description)
	require.Equal(t, int64(1), r.AccountID)
	require.Equal(t, &cat, r.CategoryID)

	clear := RecordPatch{CategoryID: ptr(int64(0))}
	clear.Apply(r)
	require.Nil(t, r.CategoryID)
}

func TestRecord_Defaults(t *testing.T) {
	r := NewRecord()
	today := NewDate(2025, time.June, 1)
	r.ApplyDefaults(today)
	require.Equal(t, today, r.OccurredOn)

	r.Kind, r.Amount = KindExpense, 300
	require.Equal(t, Money(-300), r.Signed())
}

func TestDebt_CheckAndCompute(t *testing.T) {
	d := &Debt{Amount: 10000, PaidAmount: 2500}
	require.NoError(t, d.Check())
	d.Compute()
	require.Equal(t, 25, d.Progress)
	require.False(t, d.Settled)

	d.PaidAmount = 10000
	d.Compute()
	require.True(t, d.Settled)

	d.PaidAmount = 10001
	require.Contains(t, fieldsOf(t, d.Check()), "paid_amount")
}

func TestGoal_Compute(t *testing.T) {
	g := &Goal{TargetAmount: 2000, SavedAmount: 500}
	g.Compute()
	require.Equal(t, 25, g.Progress)
	require.False(t, g.Reached)
}

func TestAccountPatch(t *testing.T) {
	a := NewAccount()
	p := AccountPatch{Name: ptr("  Wallet "), Currency: ptr("usd")}
	require.NoError(t, p.Validate(true))
	p.Apply(a)
	require.Equal(t, "Wallet", a.Name)
	require.Equal(t, "USD", a.Currency)
	require.Equal(t, AccountTypeCash, a.Type)

	bad := AccountPatch{Name: ptr(""), Type: ptr(AccountType("crypto")), Currency: ptr("euro")}
	fields := fieldsOf(t, bad.Validate(false))
	require.Contains(t, fields, "name")
	require.Contains(t, fields, "type")
	require.Contains(t, fields, "currency")
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"b": "bad", "a": "is required"}}
	require.Equal(t, "validation failed: a: is required; b: bad", err.Error())
	require.True(t, errors.Is(err, ErrValidation))
}

func TestOwnership(t *testing.T) {
	var r Resource = &Goal{}
	r.Meta().OwnerID = 7
	require.True(t, r.Meta().OwnedBy(7))
	require.False(t, r.Meta().OwnedBy(8))
}

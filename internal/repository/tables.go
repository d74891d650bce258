package repository

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/prn-tf/monedero/internal/domain"
)

// ownershipColumns lead every owned table in this order.
const ownershipColumns = "id, owner_id, created_at, updated_at"

// Binder returns the placeholder for the n-th (1-based) query parameter.
type Binder func(n int) string

// QuestionBinder binds parameters as "?" (SQLite).
func QuestionBinder(int) string { return "?" }

// DollarBinder binds parameters as "$n" (PostgreSQL).
func DollarBinder(n int) string { return "$" + strconv.Itoa(n) }

// Table maps an owned resource onto its table. The ownership columns are
// handled by the drivers; Columns lists only the resource's own columns.
type Table[R domain.Resource] struct {
	// Name is the table name.
	Name string

	// Columns are the resource columns in the order Values and Fields use.
	Columns []string

	// OrderBy is the ORDER BY clause used by List.
	OrderBy string

	// DateColumn, when set, is filtered by ListOptions.From and To.
	DateColumn string

	// New returns an empty resource to scan into.
	New func() R

	// Values returns the column values of r.
	Values func(r R) []any

	// Fields returns scan destinations for the columns of r.
	Fields func(r R) []any
}

// SelectSQL returns the SELECT clause over every column.
func (t Table[R]) SelectSQL() string {
	return "SELECT " + ownershipColumns + ", " + strings.Join(t.Columns, ", ") + " FROM " + t.Name
}

// InsertSQL returns an INSERT binding owner_id, created_at, updated_at and then Columns.
func (t Table[R]) InsertSQL(bind Binder) string {
	n := len(t.Columns) + 3
	marks := make([]string, n)
	for i := range marks {
		marks[i] = bind(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (owner_id, created_at, updated_at, %s) VALUES (%s)",
		t.Name, strings.Join(t.Columns, ", "), strings.Join(marks, ", "))
}

// UpdateSQL returns an UPDATE binding Columns, updated_at, id and owner_id.
func (t Table[R]) UpdateSQL(bind Binder) string {
	sets := make([]string, 0, len(t.Columns)+1)
	for i, c := range t.Columns {
		sets = append(sets, c+" = "+bind(i+1))
	}
	n := len(t.Columns)
	sets = append(sets, "updated_at = "+bind(n+1))
	return fmt.Sprintf("UPDATE %s SET %s WHERE id = %s AND owner_id = %s",
		t.Name, strings.Join(sets, ", "), bind(n+2), bind(n+3))
}

// DeleteSQL returns a DELETE binding id and owner_id.
func (t Table[R]) DeleteSQL(bind Binder) string {
	return fmt.Sprintf("DELETE FROM %s WHERE id = %s AND owner_id = %s", t.Name, bind(1), bind(2))
}

// Where returns the WHERE clause and its arguments for listing an owner's rows.
func (t Table[R]) Where(bind Binder, ownerID int64, opts ListOptions) (string, []any) {
	conds := []string{"owner_id = " + bind(1)}
	args := []any{ownerID}
	if t.DateColumn != "" {
		if !opts.From.IsZero() {
			args = append(args, opts.From)
			conds = append(conds, t.DateColumn+" >= "+bind(len(args)))
		}
		if !opts.To.IsZero() {
			args = append(args, opts.To)
			conds = append(conds, t.DateColumn+" < "+bind(len(args)))
		}
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListSQL returns the paginated SELECT and COUNT queries for an owner's rows.
// The SELECT binds LIMIT and OFFSET after the returned arguments.
func (t Table[R]) ListSQL(bind Binder, ownerID int64, opts ListOptions) (query, count string, args []any) {
	where, args := t.Where(bind, ownerID, opts)
	n := len(args)
	query = t.SelectSQL() + where + " ORDER BY " + t.OrderBy +
		" LIMIT " + bind(n+1) + " OFFSET " + bind(n+2)
	count = "SELECT COUNT(*) FROM " + t.Name + where
	return query, count, args
}

// =============================================================================
// Tables
// =============================================================================

// Accounts maps domain.Account.
var Accounts = Table[*domain.Account]{
	Name:    "accounts",
	Columns: []string{"name", "account_type", "currency", "initial_balance"},
	OrderBy: "name, id",
	New:     domain.NewAccount,
	Values: func(a *domain.Account) []any {
		return []any{a.Name, a.Type, a.Currency, a.InitialBalance}
	},
	Fields: func(a *domain.Account) []any {
		return []any{&a.Name, &a.Type, &a.Currency, &a.InitialBalance}
	},
}

// Categories maps domain.Category.
var Categories = Table[*domain.Category]{
	Name:    "categories",
	Columns: []string{"name", "kind", "icon", "color"},
	OrderBy: "kind, name, id",
	New:     domain.NewCategory,
	Values: func(c *domain.Category) []any {
		return []any{c.Name, c.Kind, c.Icon, c.Color}
	},
	Fields: func(c *domain.Category) []any {
		return []any{&c.Name, &c.Kind, &c.Icon, &c.Color}
	},
}

// Records maps domain.Record.
var Records = Table[*domain.Record]{
	Name: "records",
	Columns: []string{
		"account_id", "category_id", "kind", "amount", "description",
		"occurred_on", "receipt_key", "recurring_id",
	},
	OrderBy:    "occurred_on DESC, id DESC",
	DateColumn: "occurred_on",
	New:        domain.NewRecord,
	Values: func(r *domain.Record) []any {
		return []any{r.AccountID, r.CategoryID, r.Kind, r.Amount, r.Description,
			r.OccurredOn, r.ReceiptKey, r.RecurringID}
	},
	Fields: func(r *domain.Record) []any {
		return []any{&r.AccountID, &r.CategoryID, &r.Kind, &r.Amount, &r.Description,
			&r.OccurredOn, &r.ReceiptKey, &r.RecurringID}
	},
}

// Budgets maps domain.Budget.
var Budgets = Table[*domain.Budget]{
	Name:    "budgets",
	Columns: []string{"name", "category_id", "amount", "period", "start_on"},
	OrderBy: "name, id",
	New:     domain.NewBudget,
	Values: func(b *domain.Budget) []any {
		return []any{b.Name, b.CategoryID, b.Amount, b.Period, b.StartOn}
	},
	Fields: func(b *domain.Budget) []any {
		return []any{&b.Name, &b.CategoryID, &b.Amount, &b.Period, &b.StartOn}
	},
}

// RecurringPayments maps domain.RecurringPayment.
var RecurringPayments = Table[*domain.RecurringPayment]{
	Name: "recurring_payments",
	Columns: []string{
		"name", "amount", "account_id", "category_id", "frequency",
		"starts_on", "next_due_on", "active", "last_posted_on",
	},
	OrderBy:    "next_due_on, id",
	DateColumn: "next_due_on",
	New:        domain.NewRecurringPayment,
	Values: func(p *domain.RecurringPayment) []any {
		return []any{p.Name, p.Amount, p.AccountID, p.CategoryID, p.Frequency,
			p.StartsOn, p.NextDueOn, p.Active, p.LastPostedOn}
	},
	Fields: func(p *domain.RecurringPayment) []any {
		return []any{&p.Name, &p.Amount, &p.AccountID, &p.CategoryID, &p.Frequency,
			&p.StartsOn, &p.NextDueOn, &p.Active, &p.LastPostedOn}
	},
}

// Debts maps domain.Debt.
var Debts = Table[*domain.Debt]{
	Name:       "debts",
	Columns:    []string{"counterparty", "direction", "amount", "paid_amount", "due_on", "note"},
	OrderBy:    "id DESC",
	DateColumn: "due_on",
	New:        domain.NewDebt,
	Values: func(d *domain.Debt) []any {
		return []any{d.Counterparty, d.Direction, d.Amount, d.PaidAmount, d.DueOn, d.Note}
	},
	Fields: func(d *domain.Debt) []any {
		return []any{&d.Counterparty, &d.Direction, &d.Amount, &d.PaidAmount, &d.DueOn, &d.Note}
	},
}

// Goals maps domain.Goal.
var Goals = Table[*domain.Goal]{
	Name:    "goals",
	Columns: []string{"name", "target_amount", "saved_amount", "deadline"},
	OrderBy: "id DESC",
	New:     domain.NewGoal,
	Values: func(g *domain.Goal) []any {
		return []any{g.Name, g.TargetAmount, g.SavedAmount, g.Deadline}
	},
	Fields: func(g *domain.Goal) []any {
		return []any{&g.Name, &g.TargetAmount, &g.SavedAmount, &g.Deadline}
	},
}

package repository

import (
	"strings"

	"github.com/prn-tf/monedero/internal/domain"
)

// Driver-independent queries for the record and recurring payment extensions.

// RecordSumSQL returns the aggregation query for filter and its arguments.
func RecordSumSQL(bind Binder, ownerID int64, filter SumFilter) (string, []any) {
	conds := []string{"owner_id = " + bind(1)}
	args := []any{ownerID}
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, cond+" "+bind(len(args)))
	}
	if filter.Kind != "" {
		add("kind =", filter.Kind)
	}
	if filter.CategoryID != nil {
		add("category_id =", *filter.CategoryID)
	}
	if filter.AccountID != nil {
		add("account_id =", *filter.AccountID)
	}
	if !filter.From.IsZero() {
		add("occurred_on >=", filter.From)
	}
	if !filter.To.IsZero() {
		add("occurred_on <", filter.To)
	}
	return "SELECT CAST(COALESCE(SUM(amount), 0) AS BIGINT) FROM " + Records.Name +
		" WHERE " + strings.Join(conds, " AND "), args
}

// SetReceiptKeySQL binds receipt_key, updated_at, id and owner_id.
func SetReceiptKeySQL(bind Binder) string {
	return "UPDATE " + Records.Name + " SET receipt_key = " + bind(1) + ", updated_at = " + bind(2) +
		" WHERE id = " + bind(3) + " AND owner_id = " + bind(4)
}

// RecurringDueSQL binds the as-of day and the limit.
func RecurringDueSQL(bind Binder) string {
	return RecurringPayments.SelectSQL() +
		" WHERE active = TRUE AND next_due_on <= " + bind(1) +
		" ORDER BY next_due_on, id LIMIT " + bind(2)
}

// RecurringAdvanceSQL binds next_due_on, last_posted_on, updated_at, id and
// the expected current next_due_on.
func RecurringAdvanceSQL(bind Binder) string {
	return "UPDATE " + RecurringPayments.Name +
		" SET next_due_on = " + bind(1) + ", last_posted_on = " + bind(2) + ", updated_at = " + bind(3) +
		" WHERE id = " + bind(4) + " AND next_due_on = " + bind(5)
}

// AdvanceArgs returns the leading RecurringAdvanceSQL arguments for p.
func AdvanceArgs(p *domain.RecurringPayment) []any {
	return []any{p.NextDueOn, p.LastPostedOn}
}

package domain

// Budget caps spending over a repeating period, optionally for one category.
type Budget struct {
	Ownership

	Name       string    `json:"name"`
	CategoryID *int64    `json:"category_id"`
	Amount     Money     `json:"amount"`
	Period     Frequency `json:"period"`
	StartOn    Date      `json:"start_on"`
}

// NewBudget returns a monthly Budget.
func NewBudget() *Budget {
	return &Budget{Period: FrequencyMonthly}
}

// ApplyDefaults implements Defaulter.
func (b *Budget) ApplyDefaults(today Date) {
	if b.StartOn.IsZero() {
		b.StartOn = today
	}
}

// References implements Referrer.
func (b *Budget) References() References {
	return References{CategoryID: b.CategoryID}
}

// BudgetProgress is the spending against a budget in the period containing a day.
type BudgetProgress struct {
	BudgetID    int64 `json:"budget_id"`
	PeriodStart Date  `json:"period_start"`
	PeriodEnd   Date  `json:"period_end"`
	Limit       Money `json:"limit"`
	Spent       Money `json:"spent"`
	Remaining   Money `json:"remaining"`
	Percent     int   `json:"percent"`
	Exceeded    bool  `json:"exceeded"`
}

// Progress builds the BudgetProgress for the period [start, end) with the
// given spending.
func (b *Budget) Progress(start, end Date, spent Money) BudgetProgress {
	return BudgetProgress{
		BudgetID:    b.ID,
		PeriodStart: start,
		PeriodEnd:   end,
		Limit:       b.Amount,
		Spent:       spent,
		Remaining:   b.Amount - spent,
		Percent:     Percent(spent, b.Amount),
		Exceeded:    spent > b.Amount,
	}
}

// BudgetPatch holds the fields accepted on budget create and update.
type BudgetPatch struct {
	Name       *string    `json:"name"`
	CategoryID *int64     `json:"category_id"`
	Amount     *Money     `json:"amount"`
	Period     *Frequency `json:"period"`
	StartOn    *Date      `json:"start_on"`
}

// Validate implements Patch.
func (p *BudgetPatch) Validate(creating bool) error {
	var v Validator
	if creating || p.Name != nil {
		v.Required("name", trimmed(p.Name))
		v.MaxLen("name", trimmed(p.Name), MaxNameLength)
	}
	if p.CategoryID != nil {
		v.Check(*p.CategoryID >= 0, "category_id", "must be a category id")
	}
	if creating || p.Amount != nil {
		v.Check(p.Amount != nil, "amount", "is required")
		if p.Amount != nil {
			v.Positive("amount", *p.Amount)
		}
	}
	if p.Period != nil {
		v.Check(*p.Period == FrequencyWeekly || *p.Period == FrequencyMonthly || *p.Period == FrequencyYearly,
			"period", "must be one of: weekly, monthly, yearly")
	}
	return v.Err()
}

// Apply implements Patch. A category_id of 0 makes the budget cover all expenses.
func (p *BudgetPatch) Apply(b *Budget) {
	if p.Name != nil {
		b.Name = trimmed(p.Name)
	}
	if p.CategoryID != nil {
		b.CategoryID = optionalID(*p.CategoryID)
	}
	if p.Amount != nil {
		b.Amount = *p.Amount
	}
	if p.Period != nil {
		b.Period = *p.Period
	}
	if p.StartOn != nil {
		b.StartOn = *p.StartOn
	}
}

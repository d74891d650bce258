package domain

// RecurringPayment is a scheduled expense, such as rent or a subscription,
// that is posted as a Record each time it falls due.
type RecurringPayment struct {
	Ownership

	Name       string    `json:"name"`
	Amount     Money     `json:"amount"`
	AccountID  int64     `json:"account_id"`
	CategoryID *int64    `json:"category_id"`
	Frequency  Frequency `json:"frequency"`

	// StartsOn anchors the schedule; occurrences are computed from it.
	StartsOn Date `json:"starts_on"`

	// NextDueOn is the next day a record will be posted.
	NextDueOn Date `json:"next_due_on"`

	Active       bool  `json:"active"`
	LastPostedOn *Date `json:"last_posted_on"`
}

// NewRecurringPayment returns an active monthly RecurringPayment.
func NewRecurringPayment() *RecurringPayment {
	return &RecurringPayment{Frequency: FrequencyMonthly, Active: true}
}

// ApplyDefaults implements Defaulter.
func (p *RecurringPayment) ApplyDefaults(today Date) {
	if p.NextDueOn.IsZero() {
		p.NextDueOn = today
	}
	if p.StartsOn.IsZero() {
		p.StartsOn = p.NextDueOn
	}
}

// References implements Referrer.
func (p *RecurringPayment) References() References {
	id := p.AccountID
	return References{AccountID: &id, CategoryID: p.CategoryID}
}

// Due reports whether the payment should be posted on day.
func (p *RecurringPayment) Due(day Date) bool {
	return p.Active && !p.NextDueOn.After(day)
}

// Occurrences returns every due day up to and including day, and the next
// due day after them.
func (p *RecurringPayment) Occurrences(day Date, limit int) ([]Date, Date) {
	var due []Date
	next := p.NextDueOn
	for !next.After(day) && len(due) < limit {
		due = append(due, next)
		next = p.Frequency.Next(p.StartsOn, next)
	}
	return due, next
}

// Record builds the expense record posted for the occurrence on day.
func (p *RecurringPayment) Record(day Date) *Record {
	id := p.ID
	r := &Record{
		AccountID:   p.AccountID,
		CategoryID:  p.CategoryID,
		Kind:        KindExpense,
		Amount:      p.Amount,
		Description: p.Name,
		OccurredOn:  day,
		RecurringID: &id,
	}
	r.OwnerID = p.OwnerID
	return r
}

// RecurringPaymentPatch holds the fields accepted on recurring payment create and update.
type RecurringPaymentPatch struct {
	Name       *string    `json:"name"`
	Amount     *Money     `json:"amount"`
	AccountID  *int64     `json:"account_id"`
	CategoryID *int64     `json:"category_id"`
	Frequency  *Frequency `json:"frequency"`
	NextDueOn  *Date      `json:"next_due_on"`
	Active     *bool      `json:"active"`
}

// Validate implements Patch.
func (p *RecurringPaymentPatch) Validate(creating bool) error {
	var v Validator
	if creating || p.Name != nil {
		v.Required("name", trimmed(p.Name))
		v.MaxLen("name", trimmed(p.Name), MaxNameLength)
	}
	if creating || p.Amount != nil {
		v.Check(p.Amount != nil, "amount", "is required")
		if p.Amount != nil {
			v.Positive("amount", *p.Amount)
		}
	}
	if creating || p.AccountID != nil {
		v.Check(p.AccountID != nil && *p.AccountID > 0, "account_id", "is required")
	}
	if p.CategoryID != nil {
		v.Check(*p.CategoryID >= 0, "category_id", "must be a category id")
	}
	if creating || p.Frequency != nil {
		v.Check(p.Frequency != nil && p.Frequency.Valid(), "frequency", "must be one of: daily, weekly, monthly, yearly")
	}
	return v.Err()
}

// Apply implements Patch. Changing next_due_on or frequency re-anchors the schedule.
func (p *RecurringPaymentPatch) Apply(r *RecurringPayment) {
	if p.Name != nil {
		r.Name = trimmed(p.Name)
	}
	if p.Amount != nil {
		r.Amount = *p.Amount
	}
	if p.AccountID != nil {
		r.AccountID = *p.AccountID
	}
	if p.CategoryID != nil {
		r.CategoryID = optionalID(*p.CategoryID)
	}
	if p.Frequency != nil && *p.Frequency != r.Frequency {
		r.Frequency = *p.Frequency
		r.StartsOn = r.NextDueOn
	}
	if p.NextDueOn != nil {
		r.NextDueOn = *p.NextDueOn
		r.StartsOn = *p.NextDueOn
	}
	if p.Active != nil {
		r.Active = *p.Active
	}
}

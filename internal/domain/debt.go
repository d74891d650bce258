package domain

// DebtDirection tells who owes whom.
type DebtDirection string

// Debt directions.
const (
	DebtOwedToMe DebtDirection = "owed_to_me"
	DebtIOwe     DebtDirection = "i_owe"
)

// Debt is money lent to or borrowed from a counterparty.
type Debt struct {
	Ownership

	Counterparty string        `json:"counterparty"`
	Direction    DebtDirection `json:"direction"`
	Amount       Money         `json:"amount"`
	PaidAmount   Money         `json:"paid_amount"`
	DueOn        *Date         `json:"due_on"`
	Note         string        `json:"note"`

	// Computed, not stored.
	Progress int  `json:"progress"`
	Settled  bool `json:"settled"`
}

// NewDebt returns an empty Debt.
func NewDebt() *Debt {
	return &Debt{}
}

// Check implements Checker.
func (d *Debt) Check() error {
	if d.PaidAmount > d.Amount {
		return NewValidationError("paid_amount", "must not exceed amount")
	}
	return nil
}

// Compute implements Computer.
func (d *Debt) Compute() {
	d.Progress = Percent(d.PaidAmount, d.Amount)
	d.Settled = d.Amount > 0 && d.PaidAmount >= d.Amount
}

// DebtPatch holds the fields accepted on debt create and update.
type DebtPatch struct {
	Counterparty *string        `json:"counterparty"`
	Direction    *DebtDirection `json:"direction"`
	Amount       *Money         `json:"amount"`
	PaidAmount   *Money         `json:"paid_amount"`
	DueOn        *Date          `json:"due_on"`
	Note         *string        `json:"note"`
}

// Validate implements Patch.
func (p *DebtPatch) Validate(creating bool) error {
	var v Validator
	if creating || p.Counterparty != nil {
		v.Required("counterparty", trimmed(p.Counterparty))
		v.MaxLen("counterparty", trimmed(p.Counterparty), MaxNameLength)
	}
	if creating || p.Direction != nil {
		v.Check(p.Direction != nil && (*p.Direction == DebtOwedToMe || *p.Direction == DebtIOwe),
			"direction", "must be one of: owed_to_me, i_owe")
	}
	if creating || p.Amount != nil {
		v.Check(p.Amount != nil, "amount", "is required")
		if p.Amount != nil {
			v.Positive("amount", *p.Amount)
		}
	}
	if p.PaidAmount != nil {
		v.Check(*p.PaidAmount >= 0, "paid_amount", "must not be negative")
	}
	if p.Note != nil {
		v.MaxLen("note", *p.Note, MaxDescriptionLength)
	}
	return v.Err()
}

// Apply implements Patch.
func (p *DebtPatch) Apply(d *Debt) {
	if p.Counterparty != nil {
		d.Counterparty = trimmed(p.Counterparty)
	}
	if p.Direction != nil {
		d.Direction = *p.Direction
	}
	if p.Amount != nil {
		d.Amount = *p.Amount
	}
	if p.PaidAmount != nil {
		d.PaidAmount = *p.PaidAmount
	}
	if p.DueOn != nil {
		due := *p.DueOn
		d.DueOn = &due
	}
	if p.Note != nil {
		d.Note = trimmed(p.Note)
	}
}

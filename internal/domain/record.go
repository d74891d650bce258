package domain

// MaxDescriptionLength bounds free-text fields on records, debts and goals.
const MaxDescriptionLength = 500

// References lists the owned rows a resource points at. Nil means no reference.
type References struct {
	AccountID  *int64
	CategoryID *int64
}

// Referrer is implemented by resources that point at accounts or categories.
// Every referenced row must be owned by the same user.
type Referrer interface {
	References() References
}

// Record is a single income or expense transaction on an account.
type Record struct {
	Ownership

	AccountID   int64     `json:"account_id"`
	CategoryID  *int64    `json:"category_id"`
	Kind        EntryKind `json:"kind"`
	Amount      Money     `json:"amount"`
	Description string    `json:"description"`
	OccurredOn  Date      `json:"occurred_on"`

	// ReceiptKey is the object key of an uploaded receipt image. Server-set.
	ReceiptKey string `json:"receipt_key,omitempty"`

	// RecurringID links records posted by a recurring payment.
	RecurringID *int64 `json:"recurring_payment_id,omitempty"`
}

// NewRecord returns an empty Record.
func NewRecord() *Record {
	return &Record{}
}

// ApplyDefaults implements Defaulter.
func (r *Record) ApplyDefaults(today Date) {
	if r.OccurredOn.IsZero() {
		r.OccurredOn = today
	}
}

// References implements Referrer.
func (r *Record) References() References {
	id := r.AccountID
	return References{AccountID: &id, CategoryID: r.CategoryID}
}

// Signed returns the amount as a balance delta: negative for expenses.
func (r *Record) Signed() Money {
	if r.Kind == KindExpense {
		return -r.Amount
	}
	return r.Amount
}

// RecordPatch holds the fields accepted on record create and update.
type RecordPatch struct {
	AccountID   *int64     `json:"account_id"`
	CategoryID  *int64     `json:"category_id"`
	Kind        *EntryKind `json:"kind"`
	Amount      *Money     `json:"amount"`
	Description *string    `json:"description"`
	OccurredOn  *Date      `json:"occurred_on"`
}

// Validate implements Patch.
func (p *RecordPatch) Validate(creating bool) error {
	var v Validator
	if creating || p.AccountID != nil {
		v.Check(p.AccountID != nil && *p.AccountID > 0, "account_id", "is required")
	}
	if p.CategoryID != nil {
		v.Check(*p.CategoryID >= 0, "category_id", "must be a category id")
	}
	if creating || p.Kind != nil {
		v.Check(p.Kind != nil && p.Kind.Valid(), "kind", "must be one of: income, expense")
	}
	if creating || p.Amount != nil {
		v.Check(p.Amount != nil, "amount", "is required")
		if p.Amount != nil {
			v.Positive("amount", *p.Amount)
		}
	}
	if p.Description != nil {
		v.MaxLen("description", *p.Description, MaxDescriptionLength)
	}
	return v.Err()
}

// Apply implements Patch. A category_id of 0 clears the category.
func (p *RecordPatch) Apply(r *Record) {
	if p.AccountID != nil {
		r.AccountID = *p.AccountID
	}
	if p.CategoryID != nil {
		r.CategoryID = optionalID(*p.CategoryID)
	}
	if p.Kind != nil {
		r.Kind = *p.Kind
	}
	if p.Amount != nil {
		r.Amount = *p.Amount
	}
	if p.Description != nil {
		r.Description = trimmed(p.Description)
	}
	if p.OccurredOn != nil {
		r.OccurredOn = *p.OccurredOn
	}
}

func optionalID(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}

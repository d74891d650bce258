package domain

import "regexp"

// EntryKind tells income from expense on categories and records.
type EntryKind string

// Entry kinds.
const (
	KindIncome  EntryKind = "income"
	KindExpense EntryKind = "expense"
)

// Valid reports whether k is a known kind.
func (k EntryKind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Category groups records for budgets and statistics.
type Category struct {
	Ownership

	Name  string    `json:"name"`
	Kind  EntryKind `json:"kind"`
	Icon  string    `json:"icon"`
	Color string    `json:"color"`
}

// NewCategory returns an empty Category.
func NewCategory() *Category {
	return &Category{}
}

// CategoryPatch holds the fields accepted on category create and update.
type CategoryPatch struct {
	Name  *string    `json:"name"`
	Kind  *EntryKind `json:"kind"`
	Icon  *string    `json:"icon"`
	Color *string    `json:"color"`
}

// Validate implements Patch.
func (p *CategoryPatch) Validate(creating bool) error {
	var v Validator
	if creating || p.Name != nil {
		v.Required("name", trimmed(p.Name))
		v.MaxLen("name", trimmed(p.Name), MaxNameLength)
	}
	if creating || p.Kind != nil {
		v.Check(p.Kind != nil && p.Kind.Valid(), "kind", "must be one of: income, expense")
	}
	if p.Icon != nil {
		v.MaxLen("icon", *p.Icon, 64)
	}
	if p.Color != nil && *p.Color != "" {
		v.Check(colorPattern.MatchString(*p.Color), "color", "must be a hex color like #1a2b3c")
	}
	return v.Err()
}

// Apply implements Patch.
func (p *CategoryPatch) Apply(c *Category) {
	if p.Name != nil {
		c.Name = trimmed(p.Name)
	}
	if p.Kind != nil {
		c.Kind = *p.Kind
	}
	if p.Icon != nil {
		c.Icon = trimmed(p.Icon)
	}
	if p.Color != nil {
		c.Color = trimmed(p.Color)
	}
}

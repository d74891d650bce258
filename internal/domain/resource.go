package domain

import (
	"strings"
	"time"
)

// Ownership holds the columns shared by every user-owned row.
// OwnerID is always stamped from the authenticated identity, never from
// request input.
type Ownership struct {
	// ID is the unique identifier for the row (auto-generated).
	ID int64 `json:"id"`

	// OwnerID is the ID of the user who owns the row.
	OwnerID int64 `json:"owner_id"`

	// CreatedAt is the timestamp when the row was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the timestamp when the row was last updated.
	UpdatedAt time.Time `json:"updated_at"`
}

// Meta returns the ownership columns of a resource.
func (o *Ownership) Meta() *Ownership {
	return o
}

// OwnedBy reports whether the row belongs to userID.
func (o *Ownership) OwnedBy(userID int64) bool {
	return o.OwnerID == userID
}

// Resource is implemented by pointers to every owned entity.
type Resource interface {
	Meta() *Ownership
}

// Checker is implemented by resources with cross-field invariants that must
// hold after a patch is applied.
type Checker interface {
	Check() error
}

// Defaulter is implemented by resources with date fields that default to
// the current day when omitted on create.
type Defaulter interface {
	ApplyDefaults(today Date)
}

// Computer is implemented by resources with derived, unstored fields.
type Computer interface {
	Compute()
}

// Patch is a validated set of field changes for a resource.
// Fields that are absent from the request are nil and left unchanged.
type Patch[R Resource] interface {
	// Validate checks the present fields. When creating is true, required
	// fields must also be present.
	Validate(creating bool) error

	// Apply copies the present fields onto r.
	Apply(r R)
}

// trimmed returns the trimmed value of s, or "" for nil.
func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

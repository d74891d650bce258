// Package domain contains the core business entities for Monedero.
// These are plain Go structs with no infrastructure dependencies, representing
// account holders and the financial rows they own.
package domain

import (
	"strings"
	"time"
)

// Field limits shared by registration and profile updates.
const (
	MaxNameLength   = 100
	MaxPhoneLength  = 30
	MaxEmailLength  = 254
	MinSecretLength = 6

	// MaxSecretLength is the bcrypt input limit in bytes.
	MaxSecretLength = 72
)

// User represents a registered account holder.
type User struct {
	// ID is the unique identifier for the user (auto-generated).
	ID int64 `json:"id"`

	// Name is the display name.
	Name string `json:"name"`

	// Surname is the family name.
	Surname string `json:"surname"`

	// Phone is the contact phone number. Free-form.
	Phone string `json:"phone"`

	// Email is the unique, lower-cased login identity.
	Email string `json:"email"`

	// PasswordHash is the bcrypt hash of the user's secret.
	// This is never exposed in API responses.
	PasswordHash string `json:"-"`

	// CreatedAt is the timestamp when the user was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the timestamp when the user was last updated.
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUser creates a new User with normalized fields.
func NewUser(name, surname, phone, email, passwordHash string) *User {
	now := time.Now().UTC()
	return &User{
		Name:         strings.TrimSpace(name),
		Surname:      strings.TrimSpace(surname),
		Phone:        strings.TrimSpace(phone),
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NormalizeEmail trims and lower-cases an email so uniqueness is
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// FullName returns "Name Surname" without stray spaces.
func (u *User) FullName() string {
	return strings.TrimSpace(u.Name + " " + u.Surname)
}

// UserPatch holds the profile fields a user may change. Email and the
// password hash are not part of it.
type UserPatch struct {
	Name    *string `json:"name"`
	Surname *string `json:"surname"`
	Phone   *string `json:"phone"`
}

// Validate checks the present fields.
func (p *UserPatch) Validate() error {
	var v Validator
	if p.Name != nil {
		v.Required("name", trimmed(p.Name))
		v.MaxLen("name", trimmed(p.Name), MaxNameLength)
	}
	if p.Surname != nil {
		v.MaxLen("surname", trimmed(p.Surname), MaxNameLength)
	}
	if p.Phone != nil {
		v.MaxLen("phone", trimmed(p.Phone), MaxPhoneLength)
	}
	return v.Err()
}

// Apply copies the present fields onto u.
func (p *UserPatch) Apply(u *User) {
	if p.Name != nil {
		u.Name = trimmed(p.Name)
	}
	if p.Surname != nil {
		u.Surname = trimmed(p.Surname)
	}
	if p.Phone != nil {
		u.Phone = trimmed(p.Phone)
	}
}

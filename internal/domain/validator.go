package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

// Validator collects field errors. The first failure per field wins.
type Validator struct {
	fields map[string]string
}

// Fail records a failure for field unless one is already recorded.
func (v *Validator) Fail(field, message string) {
	if v.fields == nil {
		v.fields = make(map[string]string)
	}
	if _, exists := v.fields[field]; !exists {
		v.fields[field] = message
	}
}

// Check records message for field when ok is false.
func (v *Validator) Check(ok bool, field, message string) {
	if !ok {
		v.Fail(field, message)
	}
}

// Required fails when value is blank.
func (v *Validator) Required(field, value string) {
	v.Check(strings.TrimSpace(value) != "", field, "is required")
}

// MaxLen fails when value is longer than max characters.
func (v *Validator) MaxLen(field, value string, max int) {
	v.Check(utf8.RuneCountInString(value) <= max, field, fmt.Sprintf("must be at most %d characters", max))
}

// Email fails when value is not a bare email address.
func (v *Validator) Email(field, value string) {
	addr, err := mail.ParseAddress(value)
	v.Check(err == nil && addr.Address == value, field, "must be a valid email address")
}

// Positive fails when amount is zero or negative.
func (v *Validator) Positive(field string, amount Money) {
	v.Check(amount > 0, field, "must be greater than zero")
}

// OneOf fails when value is not among allowed.
func (v *Validator) OneOf(field, value string, allowed ...string) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v.Fail(field, "must be one of: "+strings.Join(allowed, ", "))
}

// Valid returns true if no failure was recorded.
func (v *Validator) Valid() bool {
	return len(v.fields) == 0
}

// Err returns a *ValidationError, or nil if every check passed.
func (v *Validator) Err() error {
	if v.Valid() {
		return nil
	}
	return &ValidationError{Fields: v.fields}
}

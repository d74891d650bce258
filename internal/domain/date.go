package domain

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"time"
)

// DateLayout is the wire and storage format of a Date.
const DateLayout = "2006-01-02"

// Date is a calendar day without time of day, held at UTC midnight.
type Date struct {
	time.Time
}

// NewDate returns the Date for the given calendar day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses a "2006-01-02" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return Date{t}, nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// Before reports whether d is strictly before other.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

// After reports whether d is strictly after other.
func (d Date) After(other Date) bool {
	return d.Time.After(other.Time)
}

// AddDays returns d shifted by n days.
func (d Date) AddDays(n int) Date {
	return Date{d.Time.AddDate(0, 0, n)}
}

// AddMonths returns d shifted by n months. The day is clamped to the last
// day of the target month, so Jan 31 + 1 month is Feb 28 (or 29).
func (d Date) AddMonths(n int) Date {
	y, m, day := d.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	last := first.AddDate(0, 1, -1).Day()
	if day > last {
		day = last
	}
	return NewDate(first.Year(), first.Month(), day)
}

// MarshalJSON writes the date as a "YYYY-MM-DD" string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.String())), nil
}

// UnmarshalJSON parses a "YYYY-MM-DD" string.
func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("invalid date %s: expected a string", data)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalText writes the date as YYYY-MM-DD.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText supports form-encoded request bodies.
func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan implements sql.Scanner.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = DateOf(v)
		return nil
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	default:
		return fmt.Errorf("scan date: unsupported type %T", src)
	}
}

func (d *Date) scanString(s string) error {
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return fmt.Errorf("scan date: %w", err)
	}
	*d = parsed
	return nil
}

// Frequency is the repeat interval of budgets and recurring payments.
type Frequency string

// Frequencies.
const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// Shift returns anchor moved forward by n periods of f. Monthly and yearly
// shifts are computed from the anchor so month-end days do not drift.
func (f Frequency) Shift(anchor Date, n int) Date {
	switch f {
	case FrequencyDaily:
		return anchor.AddDays(n)
	case FrequencyWeekly:
		return anchor.AddDays(7 * n)
	case FrequencyYearly:
		return anchor.AddMonths(12 * n)
	default:
		return anchor.AddMonths(n)
	}
}

// Next returns the first occurrence of the schedule starting at anchor that
// falls strictly after the given day.
func (f Frequency) Next(anchor, after Date) Date {
	return f.Shift(anchor, f.nextIndex(anchor, after))
}

// nextIndex returns the smallest n with Shift(anchor, n) after the given day.
func (f Frequency) nextIndex(anchor, after Date) int {
	if after.Before(anchor) {
		return 0
	}
	// Jump close to the target before stepping so schedules far behind do not
	// iterate once per period.
	days := int(after.Sub(anchor.Time).Hours() / 24)
	var n int
	switch f {
	case FrequencyDaily:
		n = days
	case FrequencyWeekly:
		n = days / 7
	case FrequencyYearly:
		n = days / 366
	default:
		n = days / 31
	}
	if n < 1 {
		n = 1
	}
	for !f.Shift(anchor, n).After(after) {
		n++
	}
	return n
}

// Window returns the period [start, end) of the schedule anchored at anchor
// that contains day. Days before the anchor fall into the first period.
func (f Frequency) Window(anchor, day Date) (Date, Date) {
	n := f.nextIndex(anchor, day)
	if n == 0 {
		return anchor, f.Shift(anchor, 1)
	}
	return f.Shift(anchor, n-1), f.Shift(anchor, n)
}

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

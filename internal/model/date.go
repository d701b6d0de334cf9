package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the wire and display format for calendar dates.
const DateLayout = "2006-01-02"

// Date is a calendar date without a time of day.
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar date in UTC.
func NewDate(t time.Time) Date {
	return Date{Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, &ValidationError{Field: "date", Reason: "must be formatted as YYYY-MM-DD"}
	}
	return Date{Time: t}, nil
}

// Month returns the YYYY-MM key for the date.
func (d Date) Month() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01")
}

// String renders the date as YYYY-MM-DD, or an empty string when unset.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MarshalJSON encodes an unset date as null.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(DateLayout))
}

// UnmarshalJSON accepts "YYYY-MM-DD", full timestamps and [y, m, d] arrays.
func (d *Date) UnmarshalJSON(data []byte) error {
	*d = Date{}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '[' {
		var parts []int
		if err := json.Unmarshal(data, &parts); err != nil || len(parts) < 3 {
			return fmt.Errorf("invalid date %s", data)
		}
		*d = Date{Time: time.Date(parts[0], time.Month(parts[1]), parts[2], 0, 0, 0, 0, time.UTC)}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid date %s: %w", data, err)
	}
	if s == "" {
		return nil
	}
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}

	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", s, err)
	}
	*d = Date{Time: t}
	return nil
}

package manifest

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the canonical calendar date form used by trips and sites
const DateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date")

// NormalizeDate reduces a date or timestamp string to YYYY-MM-DD. Timestamps
// keep the calendar date they were written with; no timezone shift is applied.
func NormalizeDate(s string) (string, error) {
	if len(s) < len(DateLayout) {
		return "", fmt.Errorf("%w %q", ErrInvalidDate, s)
	}
	d := s[:len(DateLayout)]
	if _, err := time.Parse(DateLayout, d); err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrInvalidDate, s, err)
	}
	return d, nil
}

// FormatDate renders t as a calendar date in its own location
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// dateKey normalizes s when possible and otherwise returns it unchanged, so a
// malformed ledger entry still compares deterministically.
func dateKey(s string) string {
	if d, err := NormalizeDate(s); err == nil {
		return d
	}
	return s
}

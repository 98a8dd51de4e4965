package record

import (
	"time"

	"github.com/opcmap/policymap/pkg/errors"
)

// Date is a calendar date as written in a record file.
// The zero value means the field was not set.
type Date string

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool { return d == "" }

// IsISO reports whether the date is written as YYYY-MM-DD.
func (d Date) IsISO() bool { return errors.IsISODate(string(d)) }

// String returns the date as written.
func (d Date) String() string { return string(d) }

// Time parses the date as midnight UTC.
// Besides YYYY-MM-DD it accepts RFC 3339 timestamps, truncated to the day.
func (d Date) Time() (time.Time, error) {
	if d.IsZero() {
		return time.Time{}, errors.New(errors.ErrCodeInvalidDate, "date is not set")
	}
	if t, err := time.Parse(time.DateOnly, string(d)); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, string(d))
	if err != nil {
		return time.Time{}, errors.Wrap(errors.ErrCodeInvalidDate, err, "unparseable date %q", string(d))
	}
	return Midnight(t), nil
}

// Midnight returns t truncated to the start of its calendar day, in UTC.
func Midnight(t time.Time) time.Time {
	y, m, day := t.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

// After reports whether d is strictly later than other.
// Unparseable or unset dates order before every valid date, so they sort
// last in a newest-first listing.
func (d Date) After(other Date) bool {
	a, aErr := d.Time()
	b, bErr := other.Time()
	switch {
	case aErr != nil:
		return false
	case bErr != nil:
		return true
	default:
		return a.After(b)
	}
}

// Package expiry classifies policies by how close they are to expiring and
// how long ago they were last verified, and renders the result as a
// Markdown maintenance report.
//
// Statuses are author-asserted and this package never changes them. A
// policy still marked active after its expiry date shows up in the report
// so a maintainer can fix the record.
package expiry

import (
	"math"
	"sort"
	"time"

	"github.com/opcmap/policymap/pkg/record"
)

// Default windows, in days.
const (
	DefaultWarningDays = 60
	DefaultStaleDays   = 180
)

// Options configures a check.
type Options struct {
	// Today is the reference date. Only its calendar date is used.
	// Zero means time.Now().
	Today time.Time

	// WarningDays is how many days before expiry a policy is flagged.
	WarningDays int

	// StaleDays is how many days may pass since meta.last_verified before
	// a policy is flagged.
	StaleDays int
}

// DefaultOptions returns options for today with the default windows.
func DefaultOptions() Options {
	return Options{Today: time.Now(), WarningDays: DefaultWarningDays, StaleDays: DefaultStaleDays}
}

// Item is one policy in one bucket.
type Item struct {
	ID    string      `json:"id"`
	Label string      `json:"label"`
	File  string      `json:"file"`
	Date  record.Date `json:"date,omitempty"`

	// Days is days ago for expired and stale items and days left for
	// expiring items. It is zero for missing-expiry items.
	Days int `json:"days"`
}

// Report groups policies into issue buckets. A policy may appear in more
// than one bucket.
type Report struct {
	Today       time.Time `json:"today"`
	WarningDays int       `json:"warning_days"`
	StaleDays   int       `json:"stale_days"`

	Expired       []Item `json:"expired"`
	ExpiringSoon  []Item `json:"expiring_soon"`
	Stale         []Item `json:"stale"`
	MissingExpiry []Item `json:"missing_expiry"`
}

// HasIssues reports whether anything needs a maintainer's attention.
// Missing expiry dates are advisory and do not count.
func (r *Report) HasIssues() bool {
	return len(r.Expired) > 0 || len(r.ExpiringSoon) > 0 || len(r.Stale) > 0
}

// Empty reports whether every bucket is empty.
func (r *Report) Empty() bool {
	return !r.HasIssues() && len(r.MissingExpiry) == 0
}

// DaysBetween returns the whole number of days from from to to, negative
// when to is earlier. Both are reduced to their calendar date first.
func DaysBetween(from, to time.Time) int {
	d := record.Midnight(to).Sub(record.Midnight(from))
	return int(math.Round(d.Hours() / 24))
}

// Check classifies policies. Rules are evaluated independently; a date that
// does not parse is skipped for the rule that needs it.
func Check(policies []record.Policy, opts Options) *Report {
	if opts.Today.IsZero() {
		opts.Today = time.Now()
	}
	today := record.Midnight(opts.Today)

	r := &Report{
		Today:         today,
		WarningDays:   opts.WarningDays,
		StaleDays:     opts.StaleDays,
		Expired:       []Item{},
		ExpiringSoon:  []Item{},
		Stale:         []Item{},
		MissingExpiry: []Item{},
	}

	for i := range policies {
		p := &policies[i]
		item := Item{ID: p.ID, Label: Label(p), File: p.Source}

		if p.IsActive() {
			if p.ExpiryDate.IsZero() {
				r.MissingExpiry = append(r.MissingExpiry, item)
			} else if exp, err := p.ExpiryDate.Time(); err == nil {
				item.Date = p.ExpiryDate
				switch left := DaysBetween(today, exp); {
				case left < 0:
					item.Days = -left
					r.Expired = append(r.Expired, item)
				case left <= opts.WarningDays:
					item.Days = left
					r.ExpiringSoon = append(r.ExpiringSoon, item)
				}
			}
		}

		if !p.Meta.LastVerified.IsZero() {
			if verified, err := p.Meta.LastVerified.Time(); err == nil {
				if ago := DaysBetween(verified, today); ago > opts.StaleDays {
					r.Stale = append(r.Stale, Item{
						ID: p.ID, Label: item.Label, File: p.Source,
						Date: p.Meta.LastVerified, Days: ago,
					})
				}
			}
		}
	}

	sortItems(r.Expired, true)
	sortItems(r.ExpiringSoon, false)
	sortItems(r.Stale, true)
	return r
}

// Label renders "city·district - name" for display.
func Label(p *record.Policy) string {
	return p.Location() + " - " + p.Name
}

// sortItems orders by urgency: most overdue first when desc, soonest first
// otherwise. Ties fall back to id.
func sortItems(items []Item, desc bool) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Days != items[j].Days {
			if desc {
				return items[i].Days > items[j].Days
			}
			return items[i].Days < items[j].Days
		}
		return items[i].ID < items[j].ID
	})
}

package utils

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

// DateRange is an inclusive timestamp window built from optional
// date-only strings. Empty when both bounds are absent.
type DateRange struct {
	From    time.Time
	To      time.Time
	HasFrom bool
	HasTo   bool
}

// BuildDateRange turns optional startDate/endDate strings (YYYY-MM-DD)
// into a range predicate. The start bound is the literal midnight UTC of
// startDate; the end bound is endDate rolled forward one calendar day, so
// the end date stays inclusive through its final instant. Either side may
// be omitted for a one-sided range. Malformed dates are rejected rather
// than passed through as invalid instants.
func BuildDateRange(startDate, endDate string) (DateRange, error) {
	var r DateRange
	if startDate != "" {
		t, err := time.ParseInLocation(dateLayout, startDate, time.UTC)
		if err != nil {
			return r, fmt.Errorf("invalid startDate %q: expected YYYY-MM-DD", startDate)
		}
		r.From = t
		r.HasFrom = true
	}
	if endDate != "" {
		t, err := time.ParseInLocation(dateLayout, endDate, time.UTC)
		if err != nil {
			return r, fmt.Errorf("invalid endDate %q: expected YYYY-MM-DD", endDate)
		}
		r.To = t.AddDate(0, 0, 1)
		r.HasTo = true
	}
	return r, nil
}

// IsZero reports whether the range carries no bounds at all, meaning
// every record passes.
func (r DateRange) IsZero() bool {
	return !r.HasFrom && !r.HasTo
}

// Scope applies the range to a query against the given timestamp column.
// A zero range leaves the query untouched.
func (r DateRange) Scope(column string) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		if r.HasFrom {
			tx = tx.Where(column+" >= ?", r.From)
		}
		if r.HasTo {
			tx = tx.Where(column+" <= ?", r.To)
		}
		return tx
	}
}

package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	SortAscending  = "asc"
	SortDescending = "desc"

	SortKeyOrderDate   = "orderDate"
	SortKeyTotalAmount = "totalAmount"
	SortKeyStatus      = "status"

	DefaultSortKey   = SortKeyOrderDate
	DefaultPageLimit = 10

	// DateLayout is the wire format of date range bounds.
	DateLayout = "2006-01-02"
)

// DateRange bounds the order date, inclusive on both ends. Zero values are open ends.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// IsEmpty reports whether neither bound is set.
func (r DateRange) IsEmpty() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// Contains reports whether t falls inside the range. End covers its whole day.
func (r DateRange) Contains(t time.Time) bool {
	if !r.Start.IsZero() && t.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && !t.Before(r.End.AddDate(0, 0, 1)) {
		return false
	}
	return true
}

// ParseDateRange parses YYYY-MM-DD bounds; empty strings leave the bound open.
func ParseDateRange(start, end string) (DateRange, error) {
	var r DateRange
	if s := strings.TrimSpace(start); s != "" {
		t, err := time.Parse(DateLayout, s)
		if err != nil {
			return DateRange{}, fmt.Errorf("invalid start date %q: %w", start, err)
		}
		r.Start = t
	}
	if s := strings.TrimSpace(end); s != "" {
		t, err := time.Parse(DateLayout, s)
		if err != nil {
			return DateRange{}, fmt.Errorf("invalid end date %q: %w", end, err)
		}
		r.End = t
	}
	return r, nil
}

// ReportQuery carries the filter and sort parameters used to request orders.
// PageLimit is fixed for every page of one export.
type ReportQuery struct {
	Search    string
	Status    OrderStatus
	Range     DateRange
	SortKey   string
	SortOrder string
	Page      int
	PageLimit int
}

// Validate ensures the query can be sent to an order source.
func (q ReportQuery) Validate() error {
	if q.Page < 1 {
		return errors.New("page must be at least 1")
	}
	if q.PageLimit < 1 {
		return errors.New("page limit must be positive")
	}
	if q.Status != "" && !q.Status.IsKnown() {
		return fmt.Errorf("unknown status filter %q", q.Status)
	}
	if q.SortOrder != "" && q.SortOrder != SortAscending && q.SortOrder != SortDescending {
		return fmt.Errorf("sort order must be %q or %q", SortAscending, SortDescending)
	}
	if !q.Range.Start.IsZero() && !q.Range.End.IsZero() && q.Range.End.Before(q.Range.Start) {
		return errors.New("end date is before start date")
	}
	return nil
}

// WithPage returns a copy of the query targeting another page.
func (q ReportQuery) WithPage(page int) ReportQuery {
	q.Page = page
	return q
}

package domain

import "github.com/shopspring/decimal"

// StatusCount is one entry of the status breakdown.
type StatusCount struct {
	Status OrderStatus
	Count  int
}

// Summary holds the aggregate statistics of an export.
type Summary struct {
	TotalOrders  int
	TotalRevenue decimal.Decimal
	StatusCounts []StatusCount
}

// CountFor returns the number of orders with the given status.
func (s Summary) CountFor(status OrderStatus) int {
	for _, sc := range s.StatusCounts {
		if sc.Status == status {
			return sc.Count
		}
	}
	return 0
}

// Summarize computes totals over the accumulated orders.
//
// Every status of the enumeration appears in the breakdown, in lifecycle order, even at zero.
// Statuses outside the enumeration follow in first-seen order so the counts always add up to
// TotalOrders.
func Summarize(orders []Order) Summary {
	counts := make(map[OrderStatus]int, len(Statuses))
	var extra []OrderStatus
	revenue := decimal.Zero

	for _, o := range orders {
		revenue = revenue.Add(o.TotalAmount)
		if _, seen := counts[o.Status]; !seen && !o.Status.IsKnown() {
			extra = append(extra, o.Status)
		}
		counts[o.Status]++
	}

	breakdown := make([]StatusCount, 0, len(Statuses)+len(extra))
	for _, status := range Statuses {
		breakdown = append(breakdown, StatusCount{Status: status, Count: counts[status]})
	}
	for _, status := range extra {
		breakdown = append(breakdown, StatusCount{Status: status, Count: counts[status]})
	}

	return Summary{
		TotalOrders:  len(orders),
		TotalRevenue: revenue,
		StatusCounts: breakdown,
	}
}

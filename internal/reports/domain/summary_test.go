package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/dejobratic/orderreport/internal/reports/domain"
)

func TestSummarize(t *testing.T) {
	t.Run("totals across pages", func(t *testing.T) {
		orders := []domain.Order{
			{ID: "a", TotalAmount: decimal.RequireFromString("10.00"), Status: domain.StatusPending},
			{ID: "b", TotalAmount: decimal.RequireFromString("20.00"), Status: domain.StatusDelivered},
			{ID: "c", TotalAmount: decimal.RequireFromString("5.50"), Status: domain.StatusDelivered},
			{ID: "d", TotalAmount: decimal.RequireFromString("4.50"), Status: domain.StatusCancelled},
			{ID: "e", TotalAmount: decimal.RequireFromString("60.00"), Status: domain.StatusPending},
		}

		s := domain.Summarize(orders)

		if s.TotalOrders != 5 {
			t.Errorf("expected 5 orders, got %d", s.TotalOrders)
		}
		if !s.TotalRevenue.Equal(decimal.RequireFromString("100.00")) {
			t.Errorf("expected revenue 100.00, got %s", s.TotalRevenue)
		}

		want := map[domain.OrderStatus]int{
			domain.StatusPending:   2,
			domain.StatusPreparing: 0,
			domain.StatusShipped:   0,
			domain.StatusDelivered: 2,
			domain.StatusCancelled: 1,
		}
		for status, count := range want {
			if got := s.CountFor(status); got != count {
				t.Errorf("expected %d %s orders, got %d", count, status, got)
			}
		}
	})

	t.Run("lists every status in lifecycle order", func(t *testing.T) {
		s := domain.Summarize(nil)

		if len(s.StatusCounts) != len(domain.Statuses) {
			t.Fatalf("expected %d entries, got %d", len(domain.Statuses), len(s.StatusCounts))
		}
		for i, status := range domain.Statuses {
			if s.StatusCounts[i].Status != status {
				t.Errorf("entry %d: expected %s, got %s", i, status, s.StatusCounts[i].Status)
			}
		}
		if !s.TotalRevenue.IsZero() {
			t.Errorf("expected zero revenue, got %s", s.TotalRevenue)
		}
	})

	t.Run("unknown statuses still add up", func(t *testing.T) {
		orders := []domain.Order{
			{ID: "a", Status: "Refunded"},
			{ID: "b", Status: domain.StatusShipped},
			{ID: "c", Status: "Refunded"},
		}

		s := domain.Summarize(orders)

		sum := 0
		for _, sc := range s.StatusCounts {
			sum += sc.Count
		}
		if sum != s.TotalOrders {
			t.Errorf("expected breakdown to add up to %d, got %d", s.TotalOrders, sum)
		}
		last := s.StatusCounts[len(s.StatusCounts)-1]
		if last.Status != "Refunded" || last.Count != 2 {
			t.Errorf("expected trailing Refunded=2, got %s=%d", last.Status, last.Count)
		}
	})
}

package memory_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dejobratic/orderreport/internal/reports/adapters/memory"
	"github.com/dejobratic/orderreport/internal/reports/domain"
)

func strPtr(s string) *string { return &s }

func seed() *memory.Source {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	source := memory.NewSource()
	statuses := []domain.OrderStatus{domain.StatusPending, domain.StatusShipped, domain.StatusDelivered}
	for i := 0; i < 7; i++ {
		source.Add(domain.Order{
			ID:          fmt.Sprintf("order-%02d", i),
			Customer:    &domain.Customer{Username: strPtr(fmt.Sprintf("user%d", i%2)), Email: strPtr(fmt.Sprintf("u%d@shop.test", i))},
			TotalAmount: decimal.NewFromInt(int64(10 * (i + 1))),
			Status:      statuses[i%3],
			OrderedAt:   base.AddDate(0, 0, i),
		})
	}
	return source
}

func TestSourceQuery(t *testing.T) {
	ctx := context.Background()

	t.Run("pages newest first by default", func(t *testing.T) {
		source := seed()

		page, err := source.Query(ctx, "", domain.ReportQuery{Page: 1, PageLimit: 3, SortOrder: domain.SortDescending})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if page.TotalPages != 3 {
			t.Errorf("expected 3 pages, got %d", page.TotalPages)
		}
		if len(page.Orders) != 3 || page.Orders[0].ID != "order-06" {
			t.Errorf("unexpected first page %v", page.Orders)
		}

		last, err := source.Query(ctx, "", domain.ReportQuery{Page: 3, PageLimit: 3, SortOrder: domain.SortDescending})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if len(last.Orders) != 1 || last.Orders[0].ID != "order-00" {
			t.Errorf("unexpected last page %v", last.Orders)
		}
	})

	t.Run("pages beyond the end are empty", func(t *testing.T) {
		page, err := seed().Query(ctx, "", domain.ReportQuery{Page: 9, PageLimit: 3})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if len(page.Orders) != 0 {
			t.Errorf("expected no orders, got %d", len(page.Orders))
		}
	})

	t.Run("filters by status", func(t *testing.T) {
		page, err := seed().Query(ctx, "", domain.ReportQuery{Status: domain.StatusPending, Page: 1, PageLimit: 10})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if len(page.Orders) != 3 {
			t.Errorf("expected 3 pending orders, got %d", len(page.Orders))
		}
		for _, o := range page.Orders {
			if o.Status != domain.StatusPending {
				t.Errorf("unexpected status %s", o.Status)
			}
		}
	})

	t.Run("searches username case-insensitively", func(t *testing.T) {
		page, err := seed().Query(ctx, "", domain.ReportQuery{Search: "USER1", Page: 1, PageLimit: 10})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if len(page.Orders) != 3 {
			t.Errorf("expected 3 orders for user1, got %d", len(page.Orders))
		}
	})

	t.Run("date range includes the whole end day", func(t *testing.T) {
		r, _ := domain.ParseDateRange("2024-01-02", "2024-01-04")
		page, err := seed().Query(ctx, "", domain.ReportQuery{Range: r, Page: 1, PageLimit: 10})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if len(page.Orders) != 3 {
			t.Errorf("expected 3 orders, got %d", len(page.Orders))
		}
	})

	t.Run("sorts by total ascending", func(t *testing.T) {
		page, err := seed().Query(ctx, "", domain.ReportQuery{SortKey: domain.SortKeyTotalAmount, SortOrder: domain.SortAscending, Page: 1, PageLimit: 2})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if page.Orders[0].ID != "order-00" || page.Orders[1].ID != "order-01" {
			t.Errorf("unexpected order %v", page.Orders)
		}
	})

	t.Run("honours cancellation", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := seed().Query(cancelled, "", domain.ReportQuery{Page: 1, PageLimit: 10}); err == nil {
			t.Fatal("expected context error")
		}
	})
}

func TestDemoOrders(t *testing.T) {
	now := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	orders := memory.DemoOrders(now, 25)

	if len(orders) != 25 {
		t.Fatalf("expected 25 orders, got: %d", len(orders))
	}

	source := memory.NewSource(orders...)
	page, err := source.Query(context.Background(), "", domain.ReportQuery{Page: 1, PageLimit: 10, SortKey: domain.SortKeyOrderDate, SortOrder: "desc"})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if page.TotalPages != 3 {
		t.Fatalf("expected 3 pages, got: %d", page.TotalPages)
	}
	if !page.Orders[0].OrderedAt.Equal(now) {
		t.Fatalf("expected newest order first, got: %v", page.Orders[0].OrderedAt)
	}
}

package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/dejobratic/orderreport/internal/reports/domain"
	"github.com/dejobratic/orderreport/internal/reports/ports"
)

// Source serves order pages from memory. Useful for local development and tests.
type Source struct {
	mu     sync.RWMutex
	orders map[string]domain.Order
}

// NewSource constructs a source holding the given orders.
func NewSource(orders ...domain.Order) *Source {
	s := &Source{orders: make(map[string]domain.Order, len(orders))}
	for _, o := range orders {
		s.orders[o.ID] = o
	}
	return s
}

// Add stores or replaces an order.
func (s *Source) Add(order domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.ID] = order
}

// Query filters, sorts and pages the stored orders. Pagination is 1-based.
func (s *Source) Query(ctx context.Context, _ string, q domain.ReportQuery) (ports.OrderPage, error) {
	if err := ctx.Err(); err != nil {
		return ports.OrderPage{}, err
	}

	s.mu.RLock()
	var result []domain.Order
	for _, order := range s.orders {
		if matches(order, q) {
			result = append(result, order)
		}
	}
	s.mu.RUnlock()

	sortOrders(result, q.SortKey, q.SortOrder)

	pageSize := q.PageLimit
	if pageSize <= 0 {
		pageSize = domain.DefaultPageLimit
	}
	page := q.Page
	if page <= 0 {
		page = 1
	}

	totalPages := (len(result) + pageSize - 1) / pageSize

	start := (page - 1) * pageSize
	if start >= len(result) {
		return ports.OrderPage{Orders: []domain.Order{}, TotalPages: totalPages}, nil
	}

	end := start + pageSize
	if end > len(result) {
		end = len(result)
	}

	slice := make([]domain.Order, end-start)
	copy(slice, result[start:end])

	return ports.OrderPage{Orders: slice, TotalPages: totalPages}, nil
}

func matches(order domain.Order, q domain.ReportQuery) bool {
	if q.Status != "" && order.Status != q.Status {
		return false
	}
	if !q.Range.Contains(order.OrderedAt) {
		return false
	}
	search := strings.ToLower(strings.TrimSpace(q.Search))
	if search == "" {
		return true
	}
	candidates := []string{order.ID}
	if order.Customer != nil {
		for _, field := range []*string{order.Customer.Username, order.Customer.Email} {
			if field != nil {
				candidates = append(candidates, *field)
			}
		}
	}
	for _, c := range candidates {
		if strings.Contains(strings.ToLower(c), search) {
			return true
		}
	}
	return false
}

func sortOrders(orders []domain.Order, key, direction string) {
	less := func(a, b domain.Order) bool {
		switch key {
		case domain.SortKeyTotalAmount:
			return a.TotalAmount.LessThan(b.TotalAmount)
		case domain.SortKeyStatus:
			return a.Status < b.Status
		default:
			return a.OrderedAt.Before(b.OrderedAt)
		}
	}

	sort.SliceStable(orders, func(i, j int) bool {
		a, b := orders[i], orders[j]
		if direction == domain.SortAscending {
			if less(a, b) {
				return true
			}
			if less(b, a) {
				return false
			}
		} else {
			if less(b, a) {
				return true
			}
			if less(a, b) {
				return false
			}
		}
		return a.ID < b.ID
	})
}

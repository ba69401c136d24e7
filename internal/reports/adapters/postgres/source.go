package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/dejobratic/orderreport/internal/database"
	"github.com/dejobratic/orderreport/internal/reports/domain"
	"github.com/dejobratic/orderreport/internal/reports/ports"
)

var sortColumns = map[string]string{
	domain.SortKeyOrderDate:   "o.order_date",
	domain.SortKeyTotalAmount: "o.total_amount",
	domain.SortKeyStatus:      "o.status",
}

const filterClause = `
	FROM orders o
	LEFT JOIN customers c ON c.id = o.customer_id
	WHERE ($1::text IS NULL OR o.id ILIKE $1 OR c.username ILIKE $1 OR c.email ILIKE $1)
	  AND ($2::text IS NULL OR o.status = $2)
	  AND ($3::timestamptz IS NULL OR o.order_date >= $3)
	  AND ($4::timestamptz IS NULL OR o.order_date < $4)
`

// Source reads orders straight from the storefront database.
type Source struct {
	pool    *pgxpool.Pool
	metrics *database.Metrics
}

// NewSource builds a source over pool. metrics may be nil.
func NewSource(pool *pgxpool.Pool, metrics *database.Metrics) *Source {
	return &Source{pool: pool, metrics: metrics}
}

func (s *Source) Query(ctx context.Context, _ string, q domain.ReportQuery) (ports.OrderPage, error) {
	pageSize := q.PageLimit
	if pageSize <= 0 {
		pageSize = domain.DefaultPageLimit
	}
	page := q.Page
	if page <= 0 {
		page = 1
	}

	args := filterArgs(q)

	var total int
	err := s.timed(ctx, "count_orders", func() error {
		return s.pool.QueryRow(ctx, "SELECT count(*)"+filterClause, args...).Scan(&total)
	})
	if err != nil {
		return ports.OrderPage{}, fmt.Errorf("count orders: %w", err)
	}

	totalPages := (total + pageSize - 1) / pageSize
	offset := (page - 1) * pageSize
	if offset >= total {
		return ports.OrderPage{Orders: []domain.Order{}, TotalPages: totalPages}, nil
	}

	orders, err := s.selectOrders(ctx, args, q, pageSize, offset)
	if err != nil {
		return ports.OrderPage{}, err
	}

	if err := s.attachItems(ctx, orders); err != nil {
		return ports.OrderPage{}, err
	}

	return ports.OrderPage{Orders: orders, TotalPages: totalPages}, nil
}

func (s *Source) selectOrders(ctx context.Context, args []any, q domain.ReportQuery, limit, offset int) ([]domain.Order, error) {
	query := `
		SELECT o.id, c.id, c.username, c.email, c.phone, c.address,
		       o.total_amount::text, o.status, o.order_date` +
		filterClause +
		orderBy(q) + `
		LIMIT $5 OFFSET $6
	`

	var orders []domain.Order
	err := s.timed(ctx, "select_orders", func() error {
		rows, err := s.pool.Query(ctx, query, append(args, limit, offset)...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				order      domain.Order
				customerID *string
				customer   domain.Customer
				total      string
				status     string
			)
			if err := rows.Scan(
				&order.ID,
				&customerID,
				&customer.Username,
				&customer.Email,
				&customer.Phone,
				&customer.Address,
				&total,
				&status,
				&order.OrderedAt,
			); err != nil {
				return fmt.Errorf("scan order: %w", err)
			}

			amount, err := decimal.NewFromString(total)
			if err != nil {
				return fmt.Errorf("parse total of order %s: %w", order.ID, err)
			}
			order.TotalAmount = amount
			order.Status = domain.OrderStatus(status)
			if customerID != nil {
				order.Customer = &customer
			}
			orders = append(orders, order)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}

	s.rows(ctx, "select_orders", len(orders))
	return orders, nil
}

func (s *Source) attachItems(ctx context.Context, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, len(orders))
	index := make(map[string]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
		orders[i].Items = []domain.LineItem{}
	}

	query := `
		SELECT i.order_id, i.quantity, i.unit_price::text, i.color,
		       p.id, p.name, p.price::text
		FROM order_items i
		LEFT JOIN products p ON p.id = i.product_id
		WHERE i.order_id = ANY($1)
		ORDER BY i.order_id, i.position
	`

	count := 0
	err := s.timed(ctx, "select_order_items", func() error {
		rows, err := s.pool.Query(ctx, query, ids)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				orderID      string
				quantity     int
				unitPrice    *string
				color        *string
				productID    *string
				productName  *string
				productPrice *string
			)
			if err := rows.Scan(&orderID, &quantity, &unitPrice, &color, &productID, &productName, &productPrice); err != nil {
				return fmt.Errorf("scan order item: %w", err)
			}

			item, err := buildItem(quantity, unitPrice, color, productID, productName, productPrice)
			if err != nil {
				return fmt.Errorf("order %s: %w", orderID, err)
			}

			i := index[orderID]
			orders[i].Items = append(orders[i].Items, item)
			count++
		}
		return rows.Err()
	})
	if err != nil {
		return fmt.Errorf("select order items: %w", err)
	}

	s.rows(ctx, "select_order_items", count)
	return nil
}

func buildItem(quantity int, unitPrice, color, productID, productName, productPrice *string) (domain.LineItem, error) {
	item := domain.LineItem{Quantity: quantity}
	if color != nil {
		item.Variant = *color
	}

	if productID != nil {
		item.Product = &domain.Product{ID: *productID}
		if productName != nil {
			item.Product.Name = *productName
		}
		if productPrice != nil {
			price, err := decimal.NewFromString(*productPrice)
			if err != nil {
				return domain.LineItem{}, fmt.Errorf("parse product price: %w", err)
			}
			item.Product.Price = price
		}
	}

	switch {
	case unitPrice != nil:
		price, err := decimal.NewFromString(*unitPrice)
		if err != nil {
			return domain.LineItem{}, fmt.Errorf("parse unit price: %w", err)
		}
		item.UnitPrice = price
	case item.Product != nil:
		item.UnitPrice = item.Product.Price
	}

	return item, nil
}

func filterArgs(q domain.ReportQuery) []any {
	var search, status *string
	if s := strings.TrimSpace(q.Search); s != "" {
		pattern := "%" + escapeLike(s) + "%"
		search = &pattern
	}
	if q.Status != "" {
		st := string(q.Status)
		status = &st
	}

	var from, until *time.Time
	if !q.Range.Start.IsZero() {
		start := q.Range.Start
		from = &start
	}
	if !q.Range.End.IsZero() {
		end := q.Range.End.AddDate(0, 0, 1)
		until = &end
	}

	return []any{search, status, from, until}
}

func orderBy(q domain.ReportQuery) string {
	column, ok := sortColumns[q.SortKey]
	if !ok {
		column = sortColumns[domain.DefaultSortKey]
	}
	direction := "DESC"
	if q.SortOrder == domain.SortAscending {
		direction = "ASC"
	}
	return fmt.Sprintf("\n\t\tORDER BY %s %s, o.id %s", column, direction, direction)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (s *Source) timed(ctx context.Context, operation string, fn func() error) error {
	start := time.Now()
	err := fn()
	if s.metrics != nil {
		s.metrics.RecordQuery(ctx, operation, time.Since(start).Seconds(), err == nil)
	}
	return err
}

func (s *Source) rows(ctx context.Context, operation string, n int) {
	if s.metrics != nil {
		s.metrics.RecordRows(ctx, operation, n)
	}
}

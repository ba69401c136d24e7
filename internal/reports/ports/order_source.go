package ports

import (
	"context"

	"github.com/dejobratic/orderreport/internal/reports/domain"
)

// OrderSource answers paged order queries on behalf of the credential holder.
type OrderSource interface {
	Query(ctx context.Context, credential string, q domain.ReportQuery) (OrderPage, error)
}

// OrderPage is one page of a query result.
type OrderPage struct {
	Orders     []domain.Order
	TotalPages int
}

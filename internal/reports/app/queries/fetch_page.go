package queries

import (
	"context"
	"time"

	"github.com/dejobratic/orderreport/internal/reports/domain"
	"github.com/dejobratic/orderreport/internal/reports/ports"
)

// FetchPageQuery requests a single page of orders on behalf of the credential holder.
type FetchPageQuery struct {
	Query      domain.ReportQuery
	Credential string
}

// Validate ensures the query can be sent to the source.
func (q FetchPageQuery) Validate() error {
	return q.Query.Validate()
}

// FetchPageQueryHandler executes FetchPageQuery against an OrderSource.
type FetchPageQueryHandler struct {
	source  ports.OrderSource
	timeout time.Duration
}

// NewFetchPageQueryHandler constructs a FetchPageQueryHandler. A zero timeout leaves the caller's deadline alone.
func NewFetchPageQueryHandler(source ports.OrderSource, timeout time.Duration) *FetchPageQueryHandler {
	return &FetchPageQueryHandler{source: source, timeout: timeout}
}

// Handle fetches the page. Source failures come back as *domain.SourceFetchError.
func (h *FetchPageQueryHandler) Handle(ctx context.Context, query FetchPageQuery) (ports.OrderPage, error) {
	if err := query.Validate(); err != nil {
		return ports.OrderPage{}, err
	}

	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	page, err := h.source.Query(ctx, query.Credential, query.Query)
	if err != nil {
		return ports.OrderPage{}, &domain.SourceFetchError{Page: query.Query.Page, Err: err}
	}

	return page, nil
}

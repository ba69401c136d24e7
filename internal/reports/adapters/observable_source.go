package adapters

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/dejobratic/orderreport/internal/reports/domain"
	"github.com/dejobratic/orderreport/internal/reports/metrics"
	"github.com/dejobratic/orderreport/internal/reports/ports"
	"github.com/dejobratic/orderreport/internal/telemetry"
)

type ObservableOrderSource struct {
	source  ports.OrderSource
	name    string
	metrics *metrics.Metrics
}

func NewObservableOrderSource(source ports.OrderSource, name string, metrics *metrics.Metrics) *ObservableOrderSource {
	return &ObservableOrderSource{
		source:  source,
		name:    name,
		metrics: metrics,
	}
}

func (s *ObservableOrderSource) Query(ctx context.Context, credential string, q domain.ReportQuery) (ports.OrderPage, error) {
	ctx, span := telemetry.StartSpan(ctx, "OrderSource.Query")

	attrs := []attribute.KeyValue{
		attribute.String("source", s.name),
		attribute.Int("page", q.Page),
		attribute.Int("page_limit", q.PageLimit),
		attribute.String("sort", q.SortKey+" "+q.SortOrder),
	}
	if q.Status != "" {
		attrs = append(attrs, attribute.String("filter.status", string(q.Status)))
	}
	telemetry.AddSpanAttributes(span, attrs...)

	start := time.Now()
	page, err := s.source.Query(ctx, credential, q)
	duration := time.Since(start).Seconds()

	s.metrics.RecordSourceFetch(ctx, s.name, duration, err == nil)

	if err != nil {
		telemetry.EndSpan(span, err)
		return ports.OrderPage{}, err
	}

	telemetry.AddSpanAttributes(span,
		attribute.Int("result.count", len(page.Orders)),
		attribute.Int("result.total_pages", page.TotalPages),
	)
	telemetry.EndSpan(span, nil)
	return page, nil
}

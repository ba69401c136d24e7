package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	reportsExportedTotal metric.Int64Counter
	exportDuration       metric.Float64Histogram
	ordersExported       metric.Int64Histogram
	fontFallbackTotal    metric.Int64Counter
	sourceFetchDuration  metric.Float64Histogram
	notificationsTotal   metric.Int64Counter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.reportsExportedTotal, err = meter.Int64Counter(
		"reports_exported_total",
		metric.WithDescription("Total number of report exports by outcome"),
		metric.WithUnit("{export}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create reports_exported_total counter: %w", err)
	}

	m.exportDuration, err = meter.Float64Histogram(
		"report_export_duration_seconds",
		metric.WithDescription("Duration of report exports from first page to delivery"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create report_export_duration histogram: %w", err)
	}

	m.ordersExported, err = meter.Int64Histogram(
		"report_orders_exported",
		metric.WithDescription("Number of orders contained in delivered reports"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create report_orders_exported histogram: %w", err)
	}

	m.fontFallbackTotal, err = meter.Int64Counter(
		"report_font_fallback_total",
		metric.WithDescription("Exports rendered without the downloaded font"),
		metric.WithUnit("{export}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create report_font_fallback_total counter: %w", err)
	}

	m.sourceFetchDuration, err = meter.Float64Histogram(
		"order_source_fetch_duration_seconds",
		metric.WithDescription("Latency of order page fetches"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create order_source_fetch_duration histogram: %w", err)
	}

	m.notificationsTotal, err = meter.Int64Counter(
		"report_notifications_total",
		metric.WithDescription("Progress notifications emitted by kind"),
		metric.WithUnit("{notification}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create report_notifications_total counter: %w", err)
	}

	return m, nil
}

// RecordExport counts an export with its outcome: success, no_data, source_error or render_error.
func (m *Metrics) RecordExport(ctx context.Context, outcome string) {
	m.reportsExportedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

func (m *Metrics) RecordExportDuration(ctx context.Context, durationSeconds float64) {
	m.exportDuration.Record(ctx, durationSeconds)
}

func (m *Metrics) RecordOrdersExported(ctx context.Context, count int) {
	m.ordersExported.Record(ctx, int64(count))
}

func (m *Metrics) RecordFontFallback(ctx context.Context) {
	m.fontFallbackTotal.Add(ctx, 1)
}

func (m *Metrics) RecordSourceFetch(ctx context.Context, source string, durationSeconds float64, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.sourceFetchDuration.Record(ctx, durationSeconds, metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("outcome", status),
	))
}

func (m *Metrics) RecordNotification(ctx context.Context, kind string) {
	m.notificationsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
	))
}

package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/dejobratic/orderreport/internal/reports/domain"
	"github.com/dejobratic/orderreport/internal/reports/metrics"
	"github.com/dejobratic/orderreport/internal/telemetry"
)

type ObservableCommandHandler struct {
	handler CommandHandler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewObservableCommandHandler(handler CommandHandler, logger *slog.Logger, metrics *metrics.Metrics) *ObservableCommandHandler {
	return &ObservableCommandHandler{
		handler: handler,
		logger:  logger,
		metrics: metrics,
	}
}

func (o *ObservableCommandHandler) Handle(ctx context.Context, cmd ExportReportCommand) (*ExportResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "ExportReportCommand.Handle")
	defer span.End()

	start := time.Now()
	outcome := "success"
	defer func() {
		o.metrics.RecordExportDuration(ctx, time.Since(start).Seconds())
		o.metrics.RecordExport(ctx, outcome)
	}()

	telemetry.AddSpanAttributes(span,
		attribute.String("export.id", cmd.ExportID),
		attribute.Int("export.total_pages", cmd.FirstPage.TotalPages),
		attribute.String("export.status_filter", string(cmd.Query.Status)),
	)

	o.logger.InfoContext(ctx, "exporting orders report",
		"export_id", cmd.ExportID,
		"total_pages", cmd.FirstPage.TotalPages,
		"first_page_orders", len(cmd.FirstPage.Orders),
	)

	result, err := o.handler.Handle(ctx, cmd)

	if err != nil {
		outcome = outcomeOf(err)
		if errors.Is(err, domain.ErrNothingToExport) {
			o.logger.InfoContext(ctx, "nothing to export", "export_id", cmd.ExportID)
			telemetry.SetSpanSuccess(span)
			return nil, err
		}

		telemetry.RecordSpanError(span, err)
		o.logger.ErrorContext(ctx, "failed to export orders report",
			"error", err,
			"export_id", cmd.ExportID,
			"outcome", outcome,
		)
		return nil, err
	}

	if result.FontFamily == "" {
		o.metrics.RecordFontFallback(ctx)
		telemetry.AddSpanEvent(span, "font.fallback", attribute.String("export.id", result.ExportID))
	}
	if result.Duplicates > 0 {
		telemetry.AddSpanEvent(span, "orders.deduplicated", attribute.Int("export.duplicates", result.Duplicates))
	}
	o.metrics.RecordOrdersExported(ctx, result.OrderCount)

	telemetry.AddSpanAttributes(span,
		attribute.String("export.filename", result.Filename),
		attribute.Int("export.order_count", result.OrderCount),
		attribute.Int("export.duplicates", result.Duplicates),
		attribute.String("export.font_family", result.FontFamily),
		attribute.Int("export.size_bytes", result.Size),
	)

	o.logger.InfoContext(ctx, "orders report exported",
		"export_id", result.ExportID,
		"filename", result.Filename,
		"order_count", result.OrderCount,
		"font_family", result.FontFamily,
	)

	telemetry.SetSpanSuccess(span)

	return result, nil
}

func outcomeOf(err error) string {
	var sourceErr *domain.SourceFetchError
	var renderErr *domain.RenderError
	switch {
	case errors.Is(err, domain.ErrNothingToExport):
		return "no_data"
	case errors.As(err, &sourceErr):
		return "source_error"
	case errors.As(err, &renderErr):
		return "render_error"
	default:
		return "invalid"
	}
}

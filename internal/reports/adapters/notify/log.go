package notify

import (
	"context"
	"log/slog"

	"github.com/dejobratic/orderreport/internal/reports/metrics"
	"github.com/dejobratic/orderreport/internal/reports/ports"
)

// LogNotifier records export progress in the structured log. Failures are
// logged at error level.
type LogNotifier struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewLogNotifier returns a notifier writing to logger. metrics may be nil.
func NewLogNotifier(logger *slog.Logger, m *metrics.Metrics) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger, metrics: m}
}

func (n *LogNotifier) Notify(ctx context.Context, note ports.Notification) {
	level := slog.LevelInfo
	switch note.Kind {
	case ports.NotificationFailed:
		level = slog.LevelError
	case ports.NotificationNoData:
		level = slog.LevelWarn
	}

	attrs := []any{
		"export_id", note.ExportID,
		"kind", string(note.Kind),
	}
	if note.Filename != "" {
		attrs = append(attrs, "filename", note.Filename, "order_count", note.OrderCount)
	}
	if note.Reason != "" {
		attrs = append(attrs, "reason", note.Reason)
	}
	n.logger.Log(ctx, level, "notification::"+note.Message(), attrs...)

	if n.metrics != nil {
		n.metrics.RecordNotification(ctx, string(note.Kind))
	}
}

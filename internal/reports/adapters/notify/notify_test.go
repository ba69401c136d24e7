package notify_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/dejobratic/orderreport/internal/reports/adapters/notify"
	"github.com/dejobratic/orderreport/internal/reports/metrics"
	"github.com/dejobratic/orderreport/internal/reports/ports"
)

func TestLogNotifier(t *testing.T) {
	t.Run("logs failures at error level and counts notifications", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))

		reader := sdkmetric.NewManualReader()
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		m, err := metrics.NewMetrics(mp.Meter("test"))
		if err != nil {
			t.Fatalf("NewMetrics() failed: %v", err)
		}

		n := notify.NewLogNotifier(logger, m)
		n.Notify(context.Background(), ports.Notification{
			Kind:     ports.NotificationFailed,
			ExportID: "exp-1",
			Reason:   "Failed to generate PDF report: Unauthorized",
		})

		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("expected JSON log entry, got: %v", err)
		}
		if entry["level"] != "ERROR" {
			t.Fatalf("expected ERROR level, got: %v", entry["level"])
		}
		if entry["reason"] != "Failed to generate PDF report: Unauthorized" {
			t.Fatalf("expected reason attribute, got: %v", entry["reason"])
		}

		var rm metricdata.ResourceMetrics
		if err := reader.Collect(context.Background(), &rm); err != nil {
			t.Fatalf("failed to collect metrics: %v", err)
		}
		found := false
		for _, sm := range rm.ScopeMetrics {
			for _, metric := range sm.Metrics {
				if metric.Name == "report_notifications_total" {
					found = true
				}
			}
		}
		if !found {
			t.Fatal("expected report_notifications_total to be recorded")
		}
	})

	t.Run("works without metrics", func(t *testing.T) {
		var buf bytes.Buffer
		n := notify.NewLogNotifier(slog.New(slog.NewJSONHandler(&buf, nil)), nil)

		n.Notify(context.Background(), ports.Notification{Kind: ports.NotificationStarted, ExportID: "exp-2"})

		if !strings.Contains(buf.String(), `"level":"INFO"`) {
			t.Fatalf("expected INFO entry, got: %s", buf.String())
		}
	})
}

func TestConsole(t *testing.T) {
	tests := []struct {
		name string
		note ports.Notification
		want string
	}{
		{
			name: "started",
			note: ports.Notification{Kind: ports.NotificationStarted},
			want: "Generating PDF report...\n",
		},
		{
			name: "succeeded",
			note: ports.Notification{Kind: ports.NotificationSucceeded, Filename: "r.pdf", OrderCount: 3},
			want: "PDF report downloaded: r.pdf (3 orders)\n",
		},
		{
			name: "no data",
			note: ports.Notification{Kind: ports.NotificationNoData},
			want: "No orders to export\n",
		},
		{
			name: "failed keeps reason",
			note: ports.Notification{Kind: ports.NotificationFailed, Reason: "Failed to generate PDF report: Unauthorized"},
			want: "Failed to generate PDF report: Unauthorized\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			notify.NewConsole(&buf).Notify(context.Background(), tt.note)
			if buf.String() != tt.want {
				t.Fatalf("expected %q, got: %q", tt.want, buf.String())
			}
		})
	}
}

func TestMulti(t *testing.T) {
	var first, second bytes.Buffer
	m := notify.Multi{notify.NewConsole(&first), nil, notify.NewConsole(&second)}

	m.Notify(context.Background(), ports.Notification{Kind: ports.NotificationNoData})

	if first.String() == "" || second.String() == "" {
		t.Fatalf("expected every notifier to receive the notification")
	}
}

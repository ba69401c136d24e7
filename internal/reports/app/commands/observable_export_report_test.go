package commands_test

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/dejobratic/orderreport/internal/reports/app/commands"
	"github.com/dejobratic/orderreport/internal/reports/domain"
	"github.com/dejobratic/orderreport/internal/reports/metrics"
)

type stubHandler struct {
	result *commands.ExportResult
	err    error
}

func (s *stubHandler) Handle(context.Context, commands.ExportReportCommand) (*commands.ExportResult, error) {
	return s.result, s.err
}

func newObservable(t *testing.T, inner commands.CommandHandler) (*commands.ObservableCommandHandler, *sdkmetric.ManualReader, *tracetest.InMemoryExporter) {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := metrics.NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() failed: %v", err)
	}

	return commands.NewObservableCommandHandler(inner, discardLogger(), m), reader, exporter
}

func exportOutcomes(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Failed to collect metrics: %v", err)
	}

	out := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "reports_exported_total" {
				continue
			}
			sum := m.Data.(metricdata.Sum[int64])
			for _, dp := range sum.DataPoints {
				outcome, _ := dp.Attributes.Value("outcome")
				out[outcome.AsString()] += dp.Value
			}
		}
	}
	return out
}

func TestObservableCommandHandler(t *testing.T) {
	t.Run("records success span and metrics", func(t *testing.T) {
		handler, reader, spans := newObservable(t, &stubHandler{result: &commands.ExportResult{
			ExportID:   "exp-1",
			Filename:   "orders-report-2024-06-15-3-orders.pdf",
			OrderCount: 3,
		}})

		if _, err := handler.Handle(context.Background(), commands.ExportReportCommand{ExportID: "exp-1"}); err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}

		ended := spans.GetSpans()
		if len(ended) != 1 || ended[0].Name != "ExportReportCommand.Handle" {
			t.Fatalf("expected one ExportReportCommand.Handle span, got %d", len(ended))
		}
		if ended[0].Status.Code != codes.Ok {
			t.Errorf("expected Ok status, got %v", ended[0].Status.Code)
		}
		if got := exportOutcomes(t, reader)["success"]; got != 1 {
			t.Errorf("expected 1 success, got %d", got)
		}
		if events := ended[0].Events; len(events) != 1 || events[0].Name != "font.fallback" {
			t.Errorf("expected font.fallback event, got %v", events)
		}
	})

	t.Run("classifies source failures", func(t *testing.T) {
		handler, reader, spans := newObservable(t, &stubHandler{
			err: &domain.SourceFetchError{Page: 2, Err: errors.New("timeout")},
		})

		if _, err := handler.Handle(context.Background(), commands.ExportReportCommand{}); err == nil {
			t.Fatal("expected error")
		}

		if got := exportOutcomes(t, reader)["source_error"]; got != 1 {
			t.Errorf("expected 1 source_error, got %d", got)
		}
		if spans.GetSpans()[0].Status.Code != codes.Error {
			t.Error("expected error span status")
		}
	})

	t.Run("no data is not a span error", func(t *testing.T) {
		handler, reader, spans := newObservable(t, &stubHandler{err: domain.ErrNothingToExport})

		_, err := handler.Handle(context.Background(), commands.ExportReportCommand{})
		if !errors.Is(err, domain.ErrNothingToExport) {
			t.Fatalf("expected ErrNothingToExport, got %v", err)
		}

		if got := exportOutcomes(t, reader)["no_data"]; got != 1 {
			t.Errorf("expected 1 no_data, got %d", got)
		}
		if spans.GetSpans()[0].Status.Code == codes.Error {
			t.Error("expected non-error span status")
		}
	})
}

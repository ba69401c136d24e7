package telemetry

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func TestSpanHelpers(t *testing.T) {
	t.Run("records error status", func(t *testing.T) {
		recorder := withRecorder(t)

		ctx, span := StartSpan(context.Background(), "ExportReportCommand.Handle")
		AddSpanAttributes(span, attribute.Int("report.order_count", 3))
		AddSpanEvent(span, "font.fallback")
		RecordSpanError(span, errors.New("render failed"))
		span.End()

		if TraceID(ctx) == "" || SpanID(ctx) == "" {
			t.Fatal("expected trace and span ids in context")
		}

		ended := recorder.Ended()
		if len(ended) != 1 {
			t.Fatalf("expected 1 span, got: %d", len(ended))
		}
		got := ended[0]
		if got.Status().Code != codes.Error {
			t.Fatalf("expected error status, got: %v", got.Status().Code)
		}
		if len(got.Events()) < 2 {
			t.Fatalf("expected fallback and exception events, got: %d", len(got.Events()))
		}
	})

	t.Run("marks success", func(t *testing.T) {
		recorder := withRecorder(t)

		_, span := StartSpan(context.Background(), "OrderSource.Query")
		SetSpanSuccess(span)
		span.End()

		if code := recorder.Ended()[0].Status().Code; code != codes.Ok {
			t.Fatalf("expected ok status, got: %v", code)
		}
	})

	t.Run("ignores nil span and error", func(t *testing.T) {
		AddSpanAttributes(nil)
		AddSpanEvent(nil, "x")
		RecordSpanError(nil, errors.New("x"))
		SetSpanSuccess(nil)

		if TraceID(context.Background()) != "" {
			t.Fatal("expected empty trace id without span")
		}
	})
}

func TestEndSpan(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{name: "success", want: codes.Ok},
		{name: "failure", err: errors.New("backend unavailable"), want: codes.Error},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := withRecorder(t)

			_, span := StartSpan(context.Background(), "OrderSource.Query")
			EndSpan(span, tt.err)

			ended := recorder.Ended()
			if len(ended) != 1 {
				t.Fatalf("expected span to be ended, got: %d", len(ended))
			}
			if code := ended[0].Status().Code; code != tt.want {
				t.Fatalf("expected %v status, got: %v", tt.want, code)
			}
		})
	}

	EndSpan(nil, errors.New("x"))
}

package commands_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dejobratic/orderreport/internal/reports/app/commands"
	"github.com/dejobratic/orderreport/internal/reports/domain"
	"github.com/dejobratic/orderreport/internal/reports/ports"
)

var exportDate = time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

type harness struct {
	source   *mockSource
	fonts    *mockFontProvider
	renderer *mockRenderer
	sink     *mockSink
	notifier *mockNotifier
	handler  *commands.ExportReportCommandHandler
}

func newHarness(pages map[int]ports.OrderPage) *harness {
	h := &harness{
		source:   &mockSource{pages: pages, errs: map[int]error{}},
		fonts:    &mockFontProvider{fonts: map[string][]byte{"https://fonts/primary.ttf": fontBytes()}},
		renderer: &mockRenderer{},
		sink:     &mockSink{},
		notifier: &mockNotifier{},
	}
	loader := commands.NewFontLoader(h.fonts, []commands.FontSource{
		{Family: "Amiri", URL: "https://fonts/primary.ttf"},
		{Family: "NotoNaskhArabic", URL: "https://fonts/secondary.ttf"},
	}, time.Second, discardLogger())

	h.handler = commands.NewExportReportCommandHandler(h.source, loader, h.renderer, h.sink, h.notifier,
		commands.WithClock(func() time.Time { return exportDate }),
		commands.WithLogger(discardLogger()),
		commands.WithFetchTimeout(time.Second),
	)
	return h
}

func firstQuery() domain.ReportQuery {
	return domain.ReportQuery{
		Status:    domain.StatusPending,
		SortKey:   domain.DefaultSortKey,
		SortOrder: domain.SortDescending,
		Page:      1,
		PageLimit: 2,
	}
}

func ids(orders []domain.Order) []string {
	out := make([]string, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.ID)
	}
	return out
}

func TestExportReportCompleteness(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5} {
		t.Run(fmt.Sprintf("%d pages", n), func(t *testing.T) {
			pages := make(map[int]ports.OrderPage, n)
			var want []string
			for p := 1; p <= n; p++ {
				a := order(string(rune('a'+p))+"-1", "1.00", domain.StatusPending)
				b := order(string(rune('a'+p))+"-2", "2.00", domain.StatusShipped)
				pages[p] = ports.OrderPage{Orders: []domain.Order{a, b}, TotalPages: n}
				want = append(want, a.ID, b.ID)
			}

			h := newHarness(pages)
			result, err := h.handler.Handle(context.Background(), commands.ExportReportCommand{
				FirstPage:  pages[1],
				Query:      firstQuery(),
				Credential: "token-1",
			})
			if err != nil {
				t.Fatalf("expected no error, got: %v", err)
			}

			if result.OrderCount != 2*n {
				t.Errorf("expected %d orders, got %d", 2*n, result.OrderCount)
			}
			if len(h.source.calls) != n-1 {
				t.Errorf("expected %d source calls, got %d", n-1, len(h.source.calls))
			}
			for i, q := range h.source.calls {
				if q.Page != i+2 {
					t.Errorf("call %d: expected page %d, got %d", i, i+2, q.Page)
				}
				if q.WithPage(1) != firstQuery() {
					t.Errorf("call %d: expected only the page to change, got %+v", i, q)
				}
				if h.source.tokens[i] != "token-1" {
					t.Errorf("call %d: expected credential to be forwarded", i)
				}
			}

			var got []string
			for _, row := range h.renderer.docs[0].Rows {
				got = append(got, row.ID.Value)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("expected rows %v, got %v", want, got)
			}
		})
	}
}

func TestExportReportSkipsDuplicates(t *testing.T) {
	pages := map[int]ports.OrderPage{
		1: {Orders: []domain.Order{order("o1", "1", domain.StatusPending), order("o2", "2", domain.StatusPending)}, TotalPages: 2},
		2: {Orders: []domain.Order{order("o2", "2", domain.StatusPending), order("o3", "3", domain.StatusPending)}, TotalPages: 2},
	}
	h := newHarness(pages)

	result, err := h.handler.Handle(context.Background(), commands.ExportReportCommand{FirstPage: pages[1], Query: firstQuery()})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if result.OrderCount != 3 || result.Duplicates != 1 {
		t.Errorf("expected 3 orders and 1 duplicate, got %d and %d", result.OrderCount, result.Duplicates)
	}
	if !result.Summary.TotalRevenue.Equal(decimal.RequireFromString("6")) {
		t.Errorf("expected revenue 6, got %s", result.Summary.TotalRevenue)
	}
}

func TestExportReportKeepsOrdersWithoutID(t *testing.T) {
	pages := map[int]ports.OrderPage{
		1: {Orders: []domain.Order{order("", "1", domain.StatusPending), order("", "2", domain.StatusPending)}, TotalPages: 2},
		2: {Orders: []domain.Order{order("", "3", domain.StatusPending), order("o4", "4", domain.StatusPending)}, TotalPages: 2},
	}
	h := newHarness(pages)

	result, err := h.handler.Handle(context.Background(), commands.ExportReportCommand{FirstPage: pages[1], Query: firstQuery()})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if result.OrderCount != 4 || result.Duplicates != 0 {
		t.Errorf("expected 4 orders and no duplicates, got %d and %d", result.OrderCount, result.Duplicates)
	}
	if !result.Summary.TotalRevenue.Equal(decimal.RequireFromString("10")) {
		t.Errorf("expected revenue 10, got %s", result.Summary.TotalRevenue)
	}
}

func TestExportReportScenario(t *testing.T) {
	pages := map[int]ports.OrderPage{
		1: {Orders: []domain.Order{
			order("p1-a", "19.99", domain.StatusDelivered),
			order("p1-b", "0.01", domain.StatusCancelled),
		}, TotalPages: 2},
		2: {Orders: []domain.Order{
			order("p2-a", "10.10", domain.StatusPending),
			order("p2-b", "20.20", domain.StatusPending),
			order("p2-c", "30.30", domain.StatusShipped),
		}, TotalPages: 2},
	}
	h := newHarness(pages)

	result, err := h.handler.Handle(context.Background(), commands.ExportReportCommand{FirstPage: pages[1], Query: firstQuery()})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if result.OrderCount != 5 {
		t.Errorf("expected 5 orders, got %d", result.OrderCount)
	}
	if !result.Summary.TotalRevenue.Equal(decimal.RequireFromString("80.60")) {
		t.Errorf("expected revenue 80.60, got %s", result.Summary.TotalRevenue)
	}

	want := map[domain.OrderStatus]int{
		domain.StatusPending:   2,
		domain.StatusPreparing: 0,
		domain.StatusShipped:   1,
		domain.StatusDelivered: 1,
		domain.StatusCancelled: 1,
	}
	sum := 0
	for status, count := range want {
		if got := result.Summary.CountFor(status); got != count {
			t.Errorf("expected %d %s, got %d", count, status, got)
		}
		sum += count
	}
	if sum != result.Summary.TotalOrders {
		t.Errorf("expected status counts to add up to %d, got %d", result.Summary.TotalOrders, sum)
	}

	if result.Filename != "orders-report-2024-06-15-5-orders.pdf" {
		t.Errorf("unexpected filename %q", result.Filename)
	}
	if len(h.sink.saved) != 1 || h.sink.saved[0].filename != result.Filename {
		t.Fatalf("expected one artifact saved as %q, got %+v", result.Filename, h.sink.saved)
	}

	kinds := h.notifier.kinds()
	if !reflect.DeepEqual(kinds, []ports.NotificationKind{ports.NotificationStarted, ports.NotificationSucceeded}) {
		t.Errorf("unexpected notifications %v", kinds)
	}
	last := h.notifier.notifications[1]
	if last.Filename != result.Filename || last.OrderCount != 5 || last.ExportID != result.ExportID {
		t.Errorf("unexpected success notification %+v", last)
	}
}

func TestExportReportFontFallback(t *testing.T) {
	t.Run("uses secondary when primary fails", func(t *testing.T) {
		pages := map[int]ports.OrderPage{1: {Orders: []domain.Order{order("o1", "1", domain.StatusPending)}, TotalPages: 1}}
		h := newHarness(pages)
		h.fonts.fonts = map[string][]byte{"https://fonts/secondary.ttf": fontBytes()}

		result, err := h.handler.Handle(context.Background(), commands.ExportReportCommand{FirstPage: pages[1], Query: firstQuery()})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if result.FontFamily != "NotoNaskhArabic" {
			t.Errorf("expected secondary font, got %q", result.FontFamily)
		}
		if len(h.fonts.calls) != 2 {
			t.Errorf("expected 2 font fetches, got %d", len(h.fonts.calls))
		}
	})

	t.Run("completes without any font", func(t *testing.T) {
		pages := map[int]ports.OrderPage{1: {Orders: []domain.Order{order("o1", "1", domain.StatusPending)}, TotalPages: 1}}
		h := newHarness(pages)
		h.fonts.fonts = map[string][]byte{"https://fonts/primary.ttf": []byte("<html>captive portal</html>")}

		result, err := h.handler.Handle(context.Background(), commands.ExportReportCommand{FirstPage: pages[1], Query: firstQuery()})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if result.FontFamily != "" {
			t.Errorf("expected no font, got %q", result.FontFamily)
		}
		if h.renderer.fonts[0] != nil {
			t.Error("expected renderer to receive a nil font")
		}
		if len(h.sink.saved) != 1 {
			t.Errorf("expected artifact to be delivered, got %d", len(h.sink.saved))
		}
	})
}

func TestExportReportAbortsOnPageFailure(t *testing.T) {
	pages := map[int]ports.OrderPage{
		1: {Orders: []domain.Order{order("o1", "1", domain.StatusPending)}, TotalPages: 3},
		3: {Orders: []domain.Order{order("o3", "3", domain.StatusPending)}, TotalPages: 3},
	}
	h := newHarness(pages)
	h.source.errs[2] = errors.New("Session expired")

	result, err := h.handler.Handle(context.Background(), commands.ExportReportCommand{FirstPage: pages[1], Query: firstQuery()})

	if result != nil {
		t.Errorf("expected nil result, got %+v", result)
	}
	var sourceErr *domain.SourceFetchError
	if !errors.As(err, &sourceErr) {
		t.Fatalf("expected SourceFetchError, got %v", err)
	}
	if sourceErr.Page != 2 {
		t.Errorf("expected failing page 2, got %d", sourceErr.Page)
	}
	if len(h.source.calls) != 1 {
		t.Errorf("expected fetching to stop after page 2, got %d calls", len(h.source.calls))
	}
	if len(h.sink.saved) != 0 {
		t.Error("expected nothing delivered to the sink")
	}
	if len(h.renderer.docs) != 0 {
		t.Error("expected no rendering")
	}

	kinds := h.notifier.kinds()
	if !reflect.DeepEqual(kinds, []ports.NotificationKind{ports.NotificationStarted, ports.NotificationFailed}) {
		t.Fatalf("unexpected notifications %v", kinds)
	}
	if got := h.notifier.notifications[1].Reason; got != "Failed to generate PDF report: Session expired" {
		t.Errorf("unexpected failure reason %q", got)
	}
}

func TestExportReportNoData(t *testing.T) {
	h := newHarness(nil)

	result, err := h.handler.Handle(context.Background(), commands.ExportReportCommand{
		FirstPage: ports.OrderPage{TotalPages: 4},
		Query:     firstQuery(),
	})

	if !errors.Is(err, domain.ErrNothingToExport) {
		t.Fatalf("expected ErrNothingToExport, got %v", err)
	}
	if result != nil {
		t.Error("expected nil result")
	}
	if len(h.source.calls) != 0 || len(h.fonts.calls) != 0 || len(h.renderer.docs) != 0 {
		t.Error("expected no source, font or render work")
	}
	kinds := h.notifier.kinds()
	if !reflect.DeepEqual(kinds, []ports.NotificationKind{ports.NotificationNoData}) {
		t.Errorf("expected only a no_data notification, got %v", kinds)
	}
}

func TestExportReportRenderFailures(t *testing.T) {
	tests := []struct {
		name     string
		renderFn func(context.Context, domain.Document, *domain.FontAsset) ([]byte, error)
		sinkErr  error
		stage    string
	}{
		{
			name: "renderer error",
			renderFn: func(context.Context, domain.Document, *domain.FontAsset) ([]byte, error) {
				return nil, errors.New("bad cell")
			},
			stage: "serialize",
		},
		{
			name: "renderer panic",
			renderFn: func(context.Context, domain.Document, *domain.FontAsset) ([]byte, error) {
				panic("index out of range")
			},
			stage: "serialize",
		},
		{
			name: "empty artifact",
			renderFn: func(context.Context, domain.Document, *domain.FontAsset) ([]byte, error) {
				return nil, nil
			},
			stage: "serialize",
		},
		{
			name:    "sink failure",
			sinkErr: errors.New("disk full"),
			stage:   "deliver",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages := map[int]ports.OrderPage{1: {Orders: []domain.Order{order("o1", "1", domain.StatusPending)}, TotalPages: 1}}
			h := newHarness(pages)
			h.renderer.renderFn = tt.renderFn
			h.sink.saveErr = tt.sinkErr

			_, err := h.handler.Handle(context.Background(), commands.ExportReportCommand{FirstPage: pages[1], Query: firstQuery()})

			var renderErr *domain.RenderError
			if !errors.As(err, &renderErr) {
				t.Fatalf("expected RenderError, got %v", err)
			}
			if renderErr.Stage != tt.stage {
				t.Errorf("expected stage %q, got %q", tt.stage, renderErr.Stage)
			}
			if len(h.sink.saved) != 0 {
				t.Error("expected nothing delivered")
			}
			last := h.notifier.notifications[len(h.notifier.notifications)-1]
			if last.Kind != ports.NotificationFailed {
				t.Errorf("expected failed notification, got %s", last.Kind)
			}
		})
	}
}

func TestExportReportCancelledContext(t *testing.T) {
	pages := map[int]ports.OrderPage{1: {Orders: []domain.Order{order("o1", "1", domain.StatusPending)}, TotalPages: 2}}
	h := newHarness(pages)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.handler.Handle(ctx, commands.ExportReportCommand{FirstPage: pages[1], Query: firstQuery()})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled in chain, got %v", err)
	}
	if len(h.source.calls) != 0 {
		t.Errorf("expected no source calls, got %d", len(h.source.calls))
	}
}

func TestExportReportInvalidQuery(t *testing.T) {
	pages := map[int]ports.OrderPage{1: {Orders: []domain.Order{order("o1", "1", domain.StatusPending)}, TotalPages: 1}}
	h := newHarness(pages)

	q := firstQuery()
	q.PageLimit = 0

	if _, err := h.handler.Handle(context.Background(), commands.ExportReportCommand{FirstPage: pages[1], Query: q}); err == nil {
		t.Fatal("expected validation error")
	}
	if len(h.notifier.notifications) != 0 {
		t.Errorf("expected no notifications, got %v", h.notifier.kinds())
	}
}

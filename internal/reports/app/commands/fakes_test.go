package commands_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/dejobratic/orderreport/internal/reports/domain"
	"github.com/dejobratic/orderreport/internal/reports/ports"
)

type mockSource struct {
	mu     sync.Mutex
	pages  map[int]ports.OrderPage
	errs   map[int]error
	calls  []domain.ReportQuery
	tokens []string
}

func (m *mockSource) Query(_ context.Context, credential string, q domain.ReportQuery) (ports.OrderPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, q)
	m.tokens = append(m.tokens, credential)
	if err := m.errs[q.Page]; err != nil {
		return ports.OrderPage{}, err
	}
	page, ok := m.pages[q.Page]
	if !ok {
		return ports.OrderPage{}, fmt.Errorf("unexpected page %d", q.Page)
	}
	return page, nil
}

type mockFontProvider struct {
	fonts map[string][]byte
	calls []string
}

func (m *mockFontProvider) Fetch(_ context.Context, url string) ([]byte, error) {
	m.calls = append(m.calls, url)
	data, ok := m.fonts[url]
	if !ok {
		return nil, errors.New("unexpected status 404")
	}
	return data, nil
}

type mockRenderer struct {
	renderFn func(ctx context.Context, doc domain.Document, font *domain.FontAsset) ([]byte, error)
	docs     []domain.Document
	fonts    []*domain.FontAsset
}

func (m *mockRenderer) Render(ctx context.Context, doc domain.Document, font *domain.FontAsset) ([]byte, error) {
	m.docs = append(m.docs, doc)
	m.fonts = append(m.fonts, font)
	if m.renderFn != nil {
		return m.renderFn(ctx, doc, font)
	}
	return []byte("%PDF-1.3 fake"), nil
}

func (m *mockRenderer) Extension() string { return "pdf" }

type savedArtifact struct {
	filename string
	artifact []byte
}

type mockSink struct {
	saveErr error
	saved   []savedArtifact
}

func (m *mockSink) Save(_ context.Context, filename string, artifact []byte) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, savedArtifact{filename: filename, artifact: artifact})
	return nil
}

type mockNotifier struct {
	notifications []ports.Notification
}

func (m *mockNotifier) Notify(_ context.Context, n ports.Notification) {
	m.notifications = append(m.notifications, n)
}

func (m *mockNotifier) kinds() []ports.NotificationKind {
	out := make([]ports.NotificationKind, 0, len(m.notifications))
	for _, n := range m.notifications {
		out = append(out, n.Kind)
	}
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func order(id, total string, status domain.OrderStatus) domain.Order {
	return domain.Order{
		ID:          id,
		TotalAmount: decimal.RequireFromString(total),
		Status:      status,
	}
}

// fontBytes is the smallest payload that passes the sfnt header check.
func fontBytes() []byte {
	return append([]byte{0x00, 0x01, 0x00, 0x00}, make([]byte, 28)...)
}

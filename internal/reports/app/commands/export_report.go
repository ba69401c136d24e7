package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dejobratic/orderreport/internal/reports/domain"
	"github.com/dejobratic/orderreport/internal/reports/ports"
)

const DefaultFetchTimeout = 30 * time.Second

// ExportReportCommand carries the already fetched first page and the query that produced it.
// Sink overrides the handler's download sink for this export.
type ExportReportCommand struct {
	ExportID   string
	FirstPage  ports.OrderPage
	Query      domain.ReportQuery
	Credential string
	Sink       ports.DownloadSink
}

func (c ExportReportCommand) Validate() error {
	if err := c.Query.Validate(); err != nil {
		return fmt.Errorf("invalid query: %w", err)
	}
	if c.Query.Page != 1 {
		return errors.New("export must start from page 1")
	}
	return nil
}

// ExportResult describes a delivered report. FontFamily is empty when the built-in font was used.
type ExportResult struct {
	ExportID   string
	Filename   string
	OrderCount int
	Pages      int
	Duplicates int
	Summary    domain.Summary
	FontFamily string
	Size       int
}

type CommandHandler interface {
	Handle(ctx context.Context, cmd ExportReportCommand) (*ExportResult, error)
}

type ExportReportCommandHandler struct {
	source       ports.OrderSource
	fonts        *FontLoader
	renderer     ports.Renderer
	sink         ports.DownloadSink
	notifier     ports.Notifier
	formatter    domain.Formatter
	fetchTimeout time.Duration
	now          func() time.Time
	logger       *slog.Logger
}

type Option func(*ExportReportCommandHandler)

func WithFetchTimeout(d time.Duration) Option {
	return func(h *ExportReportCommandHandler) {
		if d > 0 {
			h.fetchTimeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(h *ExportReportCommandHandler) {
		if now != nil {
			h.now = now
		}
	}
}

func WithFormatter(f domain.Formatter) Option {
	return func(h *ExportReportCommandHandler) {
		if !f.IsZero() {
			h.formatter = f
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(h *ExportReportCommandHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

func NewExportReportCommandHandler(
	source ports.OrderSource,
	fonts *FontLoader,
	renderer ports.Renderer,
	sink ports.DownloadSink,
	notifier ports.Notifier,
	opts ...Option,
) *ExportReportCommandHandler {
	h := &ExportReportCommandHandler{
		source:       source,
		fonts:        fonts,
		renderer:     renderer,
		sink:         sink,
		notifier:     notifier,
		formatter:    domain.DefaultFormatter(),
		fetchTimeout: DefaultFetchTimeout,
		now:          time.Now,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *ExportReportCommandHandler) Handle(ctx context.Context, cmd ExportReportCommand) (*ExportResult, error) {
	exportID := cmd.ExportID
	if exportID == "" {
		exportID = uuid.NewString()
	}

	if len(cmd.FirstPage.Orders) == 0 {
		h.notify(ctx, ports.Notification{
			Kind:     ports.NotificationNoData,
			ExportID: exportID,
			Reason:   domain.FailureReason(domain.ErrNothingToExport),
		})
		return nil, domain.ErrNothingToExport
	}

	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	h.notify(ctx, ports.Notification{Kind: ports.NotificationStarted, ExportID: exportID})

	result, err := h.export(ctx, exportID, cmd)
	if err != nil {
		h.notify(ctx, ports.Notification{
			Kind:     ports.NotificationFailed,
			ExportID: exportID,
			Reason:   domain.FailureReason(err),
		})
		return nil, err
	}

	h.notify(ctx, ports.Notification{
		Kind:       ports.NotificationSucceeded,
		ExportID:   exportID,
		Filename:   result.Filename,
		OrderCount: result.OrderCount,
	})

	return result, nil
}

func (h *ExportReportCommandHandler) export(ctx context.Context, exportID string, cmd ExportReportCommand) (*ExportResult, error) {
	orders, duplicates, err := h.collect(ctx, cmd)
	if err != nil {
		return nil, err
	}

	summary := domain.Summarize(orders)

	var font *domain.FontAsset
	if h.fonts != nil {
		font = h.fonts.Load(ctx)
	}

	exportedAt := h.now()
	doc := domain.BuildDocument(orders, summary, cmd.Query, exportedAt, h.formatter)

	artifact, err := h.render(ctx, doc, font)
	if err != nil {
		return nil, err
	}

	filename := domain.Filename(exportedAt, len(orders), h.renderer.Extension())

	sink := h.sink
	if cmd.Sink != nil {
		sink = cmd.Sink
	}
	if sink == nil {
		return nil, &domain.RenderError{Stage: "deliver", Err: errors.New("no download sink configured")}
	}
	if err := sink.Save(ctx, filename, artifact); err != nil {
		return nil, &domain.RenderError{Stage: "deliver", Err: err}
	}

	result := &ExportResult{
		ExportID:   exportID,
		Filename:   filename,
		OrderCount: len(orders),
		Pages:      totalPages(cmd.FirstPage),
		Duplicates: duplicates,
		Summary:    summary,
		Size:       len(artifact),
	}
	if font != nil {
		result.FontFamily = font.Family
	}
	return result, nil
}

// collect seeds the accumulator with page 1 and fetches the remaining pages one at a time.
func (h *ExportReportCommandHandler) collect(ctx context.Context, cmd ExportReportCommand) ([]domain.Order, int, error) {
	pages := totalPages(cmd.FirstPage)
	orders := make([]domain.Order, 0, len(cmd.FirstPage.Orders)*pages)
	seen := make(map[string]struct{}, cap(orders))
	duplicates := 0

	accumulate := func(page []domain.Order) {
		for _, o := range page {
			// Orders without an id cannot be matched across pages.
			if o.ID == "" {
				orders = append(orders, o)
				continue
			}
			if _, dup := seen[o.ID]; dup {
				duplicates++
				continue
			}
			seen[o.ID] = struct{}{}
			orders = append(orders, o)
		}
	}

	accumulate(cmd.FirstPage.Orders)

	for page := 2; page <= pages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, 0, &domain.SourceFetchError{Page: page, Err: err}
		}

		result, err := h.fetchPage(ctx, cmd.Credential, cmd.Query.WithPage(page))
		if err != nil {
			return nil, 0, &domain.SourceFetchError{Page: page, Err: err}
		}
		accumulate(result.Orders)
	}

	if duplicates > 0 {
		h.logger.WarnContext(ctx, "skipped orders repeated across pages",
			"duplicates", duplicates,
			"pages", pages,
		)
	}

	return orders, duplicates, nil
}

func (h *ExportReportCommandHandler) fetchPage(ctx context.Context, credential string, q domain.ReportQuery) (ports.OrderPage, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, h.fetchTimeout)
	defer cancel()
	return h.source.Query(fetchCtx, credential, q)
}

func (h *ExportReportCommandHandler) render(ctx context.Context, doc domain.Document, font *domain.FontAsset) (artifact []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			artifact = nil
			err = &domain.RenderError{Stage: "serialize", Err: fmt.Errorf("renderer panic: %v", r)}
		}
	}()

	artifact, err = h.renderer.Render(ctx, doc, font)
	if err != nil {
		var renderErr *domain.RenderError
		if errors.As(err, &renderErr) {
			return nil, err
		}
		return nil, &domain.RenderError{Stage: "serialize", Err: err}
	}
	if len(artifact) == 0 {
		return nil, &domain.RenderError{Stage: "serialize", Err: errors.New("renderer produced an empty document")}
	}
	return artifact, nil
}

func (h *ExportReportCommandHandler) notify(ctx context.Context, n ports.Notification) {
	if h.notifier == nil {
		return
	}
	h.notifier.Notify(ctx, n)
}

func totalPages(page ports.OrderPage) int {
	if page.TotalPages < 1 {
		return 1
	}
	return page.TotalPages
}

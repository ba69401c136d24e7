package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dejobratic/orderreport/internal/reports/app/commands"
	"github.com/dejobratic/orderreport/internal/reports/app/queries"
	"github.com/dejobratic/orderreport/internal/reports/domain"
	"github.com/dejobratic/orderreport/internal/reports/metrics"
	"github.com/dejobratic/orderreport/internal/reports/ports"
)

// ErrInvalidInput is returned when export parameters cannot form a valid query.
var ErrInvalidInput = errors.New("invalid export input")

// Settings tunes how exports page through the source and format the document.
type Settings struct {
	PageLimit    int
	FetchTimeout time.Duration
	Formatter    domain.Formatter
}

// Service bundles the report export use case for the API and CLI hosts.
type Service struct {
	fetchPage     *queries.FetchPageQueryHandler
	exportHandler commands.CommandHandler
	notifier      ports.Notifier
	pageLimit     int
}

// NewService wires required dependencies.
func NewService(
	source ports.OrderSource,
	fonts *commands.FontLoader,
	renderer ports.Renderer,
	notifier ports.Notifier,
	logger *slog.Logger,
	metrics *metrics.Metrics,
	settings Settings,
) *Service {
	if settings.PageLimit < 1 {
		settings.PageLimit = domain.DefaultPageLimit
	}
	if settings.FetchTimeout <= 0 {
		settings.FetchTimeout = commands.DefaultFetchTimeout
	}

	coreHandler := commands.NewExportReportCommandHandler(source, fonts, renderer, nil, notifier,
		commands.WithFetchTimeout(settings.FetchTimeout),
		commands.WithFormatter(settings.Formatter),
		commands.WithLogger(logger),
	)
	observableHandler := commands.NewObservableCommandHandler(coreHandler, logger, metrics)

	return &Service{
		fetchPage:     queries.NewFetchPageQueryHandler(source, settings.FetchTimeout),
		exportHandler: observableHandler,
		notifier:      notifier,
		pageLimit:     settings.PageLimit,
	}
}

// ExportInput captures the filter and sort parameters as the user supplied them.
type ExportInput struct {
	Search    string `json:"search"`
	Status    string `json:"status"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	SortKey   string `json:"sort"`
	SortOrder string `json:"order"`
}

// Query converts the input into the first-page query of an export.
func (in ExportInput) Query(pageLimit int) (domain.ReportQuery, error) {
	q := domain.ReportQuery{
		Search:    strings.TrimSpace(in.Search),
		SortKey:   strings.TrimSpace(in.SortKey),
		SortOrder: strings.ToLower(strings.TrimSpace(in.SortOrder)),
		Page:      1,
		PageLimit: pageLimit,
	}
	if q.SortKey == "" {
		q.SortKey = domain.DefaultSortKey
	}
	if q.SortOrder == "" {
		q.SortOrder = domain.SortDescending
	}

	if s := strings.TrimSpace(in.Status); s != "" && !strings.EqualFold(s, "all") {
		status, err := domain.ParseStatus(s)
		if err != nil {
			return domain.ReportQuery{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		q.Status = status
	}

	r, err := domain.ParseDateRange(in.StartDate, in.EndDate)
	if err != nil {
		return domain.ReportQuery{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	q.Range = r

	if err := q.Validate(); err != nil {
		return domain.ReportQuery{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return q, nil
}

// ExportReport fetches the first page and runs the export, delivering the artifact to sink.
func (s *Service) ExportReport(ctx context.Context, credential string, input ExportInput, sink ports.DownloadSink) (*commands.ExportResult, error) {
	query, err := input.Query(s.pageLimit)
	if err != nil {
		return nil, err
	}

	exportID := uuid.NewString()

	firstPage, err := s.fetchPage.Handle(ctx, queries.FetchPageQuery{Query: query, Credential: credential})
	if err != nil {
		s.notifier.Notify(ctx, ports.Notification{
			Kind:     ports.NotificationFailed,
			ExportID: exportID,
			Reason:   domain.FailureReason(err),
		})
		return nil, err
	}

	return s.exportHandler.Handle(ctx, commands.ExportReportCommand{
		ExportID:   exportID,
		FirstPage:  firstPage,
		Query:      query,
		Credential: credential,
		Sink:       sink,
	})
}

package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dejobratic/orderreport/internal/reports/adapters/rest"
	"github.com/dejobratic/orderreport/internal/reports/adapters/sink"
	"github.com/dejobratic/orderreport/internal/reports/app"
	"github.com/dejobratic/orderreport/internal/reports/app/commands"
	"github.com/dejobratic/orderreport/internal/reports/domain"
	"github.com/dejobratic/orderreport/internal/reports/ports"
)

const exportPath = "/v1/reports/orders"

// ReportExporter runs one export and hands the artifact to sink.
type ReportExporter interface {
	ExportReport(ctx context.Context, credential string, input app.ExportInput, sink ports.DownloadSink) (*commands.ExportResult, error)
}

// Handler exposes the report export over HTTP.
type Handler struct {
	exporter ReportExporter
	logger   *slog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(exporter ReportExporter, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{exporter: exporter, logger: logger}
}

// Register binds the export handler to the provided ServeMux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc(exportPath, h.handleExport)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	credential := bearerToken(r.Header.Get("Authorization"))
	if credential == "" {
		writeError(w, http.StatusUnauthorized, "bearer token required")
		return
	}

	params := r.URL.Query()
	input := app.ExportInput{
		Search:    params.Get("search"),
		Status:    params.Get("status"),
		StartDate: params.Get("startDate"),
		EndDate:   params.Get("endDate"),
		SortKey:   params.Get("sort"),
		SortOrder: params.Get("order"),
	}

	download := sink.NewResponseSink(w)
	result, err := h.exporter.ExportReport(r.Context(), credential, input, download)
	if err != nil {
		if download.Written() {
			h.logger.ErrorContext(r.Context(), "export failed after response was committed", "error", err)
			return
		}
		status, message := errorResponse(err)
		writeError(w, status, message)
		return
	}

	if !download.Written() {
		writeError(w, http.StatusInternalServerError, "report was not delivered")
		return
	}

	h.logger.DebugContext(r.Context(), "report delivered",
		"export_id", result.ExportID,
		"filename", result.Filename,
	)
}

// errorResponse maps an export failure to a status code and user message.
func errorResponse(err error) (int, string) {
	if errors.Is(err, domain.ErrNothingToExport) {
		return http.StatusNotFound, domain.ErrNothingToExport.Error()
	}
	if errors.Is(err, app.ErrInvalidInput) {
		return http.StatusBadRequest, err.Error()
	}

	var backendErr *rest.BackendError
	if errors.As(err, &backendErr) {
		switch backendErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return backendErr.StatusCode, domain.FailureReason(err)
		}
	}

	// Fetch timeouts arrive wrapped in SourceFetchError, so check them first.
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, domain.FailureReason(err)
	}
	var sourceErr *domain.SourceFetchError
	if errors.As(err, &sourceErr) {
		return http.StatusBadGateway, domain.FailureReason(err)
	}
	return http.StatusInternalServerError, domain.FailureReason(err)
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

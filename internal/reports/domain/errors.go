package domain

import (
	"errors"
	"fmt"
)

// ErrNothingToExport is returned when the first page holds no orders.
var ErrNothingToExport = errors.New("no orders to export")

// SourceFetchError reports a failed page fetch. It aborts the whole export.
type SourceFetchError struct {
	Page int
	Err  error
}

func (e *SourceFetchError) Error() string {
	return fmt.Sprintf("fetch orders page %d: %v", e.Page, e.Err)
}

func (e *SourceFetchError) Unwrap() error {
	return e.Err
}

// AssetFetchError reports a font source that could not be used. It never aborts an export.
type AssetFetchError struct {
	Source string
	Err    error
}

func (e *AssetFetchError) Error() string {
	return fmt.Sprintf("fetch font %s: %v", e.Source, e.Err)
}

func (e *AssetFetchError) Unwrap() error {
	return e.Err
}

// RenderError reports a failure while assembling, serializing or delivering the document.
type RenderError struct {
	Stage string
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render report (%s): %v", e.Stage, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

const failurePrefix = "Failed to generate PDF report: "

// FailureReason turns an export error into the message shown to the user.
// Source errors keep the underlying (backend) message verbatim.
func FailureReason(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, ErrNothingToExport) {
		return "No orders to export"
	}

	var sourceErr *SourceFetchError
	if errors.As(err, &sourceErr) {
		msg := "Failed to fetch orders"
		if sourceErr.Err != nil && sourceErr.Err.Error() != "" {
			msg = sourceErr.Err.Error()
		}
		return failurePrefix + msg
	}

	var renderErr *RenderError
	if errors.As(err, &renderErr) {
		return failurePrefix + "the document could not be produced"
	}

	if msg := err.Error(); msg != "" {
		return failurePrefix + msg
	}
	return failurePrefix + "Unknown error"
}

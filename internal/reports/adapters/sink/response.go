package sink

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
)

var ErrAlreadyWritten = errors.New("response already written")

// ResponseSink streams the artifact as an attachment of an HTTP response.
type ResponseSink struct {
	w       http.ResponseWriter
	written bool
}

func NewResponseSink(w http.ResponseWriter) *ResponseSink {
	return &ResponseSink{w: w}
}

func (s *ResponseSink) Save(ctx context.Context, filename string, artifact []byte) error {
	if s.written {
		return ErrAlreadyWritten
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	header := s.w.Header()
	header.Set("Content-Type", contentType)
	header.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	header.Set("Content-Length", strconv.Itoa(len(artifact)))

	s.written = true
	s.w.WriteHeader(http.StatusOK)
	if _, err := s.w.Write(artifact); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}

// Written reports whether the response has been committed.
func (s *ResponseSink) Written() bool {
	return s.written
}

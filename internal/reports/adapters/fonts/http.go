package fonts

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// maxFontSize bounds a downloaded font. Amiri regular is about 500 KiB.
const maxFontSize = 16 << 20

// HTTPProvider downloads fonts over HTTP.
type HTTPProvider struct {
	client *http.Client
}

// NewHTTPProvider builds a provider. A nil client uses http.DefaultClient.
func NewHTTPProvider(client *http.Client) *HTTPProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPProvider{client: client}
}

func (p *HTTPProvider) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build font request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request font: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFontSize+1))
	if err != nil {
		return nil, fmt.Errorf("read font body: %w", err)
	}
	if len(data) > maxFontSize {
		return nil, fmt.Errorf("font exceeds %d bytes", maxFontSize)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty font body")
	}

	return data, nil
}

package ports

import "context"

// FontProvider fetches raw font files. A non-success response is an error.
type FontProvider interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

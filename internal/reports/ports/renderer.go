package ports

import (
	"context"

	"github.com/dejobratic/orderreport/internal/reports/domain"
)

// Renderer serializes a report document. A nil font selects the built-in font path.
type Renderer interface {
	Render(ctx context.Context, doc domain.Document, font *domain.FontAsset) ([]byte, error)
	Extension() string
}

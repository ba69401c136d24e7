package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dejobratic/orderreport/internal/reports/domain"
	"github.com/dejobratic/orderreport/internal/reports/ports"
)

var errNotTrueType = errors.New("payload is not a TrueType font")

// FontSource is one location a report font can be downloaded from.
type FontSource struct {
	Family string
	URL    string
}

// FontLoader tries each source in order and settles for no font when all fail.
type FontLoader struct {
	provider ports.FontProvider
	sources  []FontSource
	timeout  time.Duration
	logger   *slog.Logger
}

func NewFontLoader(provider ports.FontProvider, sources []FontSource, timeout time.Duration, logger *slog.Logger) *FontLoader {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FontLoader{
		provider: provider,
		sources:  sources,
		timeout:  timeout,
		logger:   logger,
	}
}

// Load returns the first usable font, or nil.
func (l *FontLoader) Load(ctx context.Context) *domain.FontAsset {
	for _, src := range l.sources {
		if src.URL == "" {
			continue
		}

		data, err := l.fetch(ctx, src.URL)
		if err != nil {
			assetErr := &domain.AssetFetchError{Source: src.URL, Err: err}
			l.logger.WarnContext(ctx, "font source unavailable",
				"font_family", src.Family,
				"error", assetErr,
			)
			continue
		}

		return &domain.FontAsset{Family: src.Family, Source: src.URL, Data: data}
	}

	l.logger.WarnContext(ctx, "no font available, rendering with built-in font")
	return nil
}

func (l *FontLoader) fetch(ctx context.Context, url string) ([]byte, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	data, err := l.provider.Fetch(fetchCtx, url)
	if err != nil {
		return nil, err
	}
	if !domain.LooksLikeTrueType(data) {
		return nil, errNotTrueType
	}
	return data, nil
}

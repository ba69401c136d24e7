// Package bootstrap assembles the report exporter from configuration. The API
// server and the command line exporter share it.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/dejobratic/orderreport/internal/config"
	"github.com/dejobratic/orderreport/internal/database"
	"github.com/dejobratic/orderreport/internal/reports/adapters"
	"github.com/dejobratic/orderreport/internal/reports/adapters/fonts"
	"github.com/dejobratic/orderreport/internal/reports/adapters/memory"
	"github.com/dejobratic/orderreport/internal/reports/adapters/notify"
	"github.com/dejobratic/orderreport/internal/reports/adapters/pdf"
	"github.com/dejobratic/orderreport/internal/reports/adapters/postgres"
	"github.com/dejobratic/orderreport/internal/reports/adapters/rest"
	"github.com/dejobratic/orderreport/internal/reports/app"
	"github.com/dejobratic/orderreport/internal/reports/app/commands"
	"github.com/dejobratic/orderreport/internal/reports/domain"
	"github.com/dejobratic/orderreport/internal/reports/metrics"
	"github.com/dejobratic/orderreport/internal/reports/ports"
	"github.com/dejobratic/orderreport/internal/telemetry"
)

const demoOrderCount = 45

// Components is a wired exporter and the resources it holds.
type Components struct {
	Service *app.Service
	Metrics *metrics.Metrics
	// Ready reports whether the order source can serve requests.
	Ready func(ctx context.Context) error

	closers []func()
}

// Close releases pools and clients in reverse order of creation.
func (c *Components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// Build wires source, fonts, renderer and notifiers. Extra notifiers receive
// every notification after the structured log.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, meter metric.Meter, extra ...ports.Notifier) (*Components, error) {
	reportMetrics, err := metrics.NewMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("create report metrics: %w", err)
	}

	c := &Components{Metrics: reportMetrics}

	source, err := c.orderSource(ctx, cfg, logger, meter)
	if err != nil {
		c.Close()
		return nil, err
	}
	observed := adapters.NewObservableOrderSource(source, cfg.Source.Kind, reportMetrics)

	formatter, err := newFormatter(cfg.Report)
	if err != nil {
		c.Close()
		return nil, err
	}

	notifiers := notify.Multi{notify.NewLogNotifier(logger, reportMetrics)}
	notifiers = append(notifiers, extra...)

	c.Service = app.NewService(
		observed,
		fontLoader(cfg.Fonts, logger),
		newRenderer(cfg.Report.Renderer, logger),
		notifiers,
		logger,
		reportMetrics,
		app.Settings{
			PageLimit:    cfg.Source.PageLimit,
			FetchTimeout: cfg.Source.FetchTimeout,
			Formatter:    formatter,
		},
	)
	return c, nil
}

func (c *Components) orderSource(ctx context.Context, cfg *config.Config, logger *slog.Logger, meter metric.Meter) (ports.OrderSource, error) {
	switch cfg.Source.Kind {
	case config.SourcePostgres:
		pool, err := database.NewPool(ctx, cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("create database pool: %w", err)
		}
		c.closers = append(c.closers, pool.Close)

		if cfg.Database.AutoMigrate {
			logger.InfoContext(ctx, "running database migrations", "path", cfg.Database.MigrationsPath)
			version, err := database.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsPath)
			if err != nil {
				return nil, fmt.Errorf("run migrations: %w", err)
			}
			logger.InfoContext(ctx, "migrations completed", "version", version)
		}

		dbMetrics, err := database.NewMetrics(meter)
		if err != nil {
			return nil, fmt.Errorf("create database metrics: %w", err)
		}
		c.Ready = database.HealthCheck(pool)
		return postgres.NewSource(pool, dbMetrics), nil

	case config.SourceMemory:
		logger.InfoContext(ctx, "serving demo orders from memory", "count", demoOrderCount)
		return memory.NewSource(memory.DemoOrders(time.Now(), demoOrderCount)...), nil

	case config.SourceREST:
		client := telemetry.NewHTTPClient(0)
		c.closers = append(c.closers, client.CloseIdleConnections)
		return rest.NewSource(cfg.Source.BackendURL, client), nil
	}

	return nil, errors.New("unknown order source " + cfg.Source.Kind)
}

func fontLoader(cfg config.FontsConfig, logger *slog.Logger) *commands.FontLoader {
	var sources []commands.FontSource
	if cfg.PrimaryURL != "" {
		sources = append(sources, commands.FontSource{Family: "Amiri", URL: cfg.PrimaryURL})
	}
	if cfg.SecondaryURL != "" {
		sources = append(sources, commands.FontSource{Family: "Noto Naskh Arabic", URL: cfg.SecondaryURL})
	}
	if len(sources) == 0 {
		return nil
	}

	provider := fonts.NewCachingProvider(fonts.NewHTTPProvider(telemetry.NewHTTPClient(0)), cfg.CacheTTL)
	return commands.NewFontLoader(provider, sources, cfg.FetchTimeout, logger)
}

func newRenderer(kind string, logger *slog.Logger) ports.Renderer {
	if kind == config.RendererGrid {
		return pdf.NewGridRenderer(logger)
	}
	return pdf.NewTableRenderer(logger)
}

func newFormatter(cfg config.ReportConfig) (domain.Formatter, error) {
	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return domain.Formatter{}, fmt.Errorf("load report timezone: %w", err)
	}
	formatter, err := domain.NewFormatter(cfg.Locale, cfg.DateLayout, location)
	if err != nil {
		return domain.Formatter{}, fmt.Errorf("create report formatter: %w", err)
	}
	return formatter, nil
}

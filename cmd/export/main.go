// Command export writes the orders report to a local directory.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dejobratic/orderreport/internal/bootstrap"
	"github.com/dejobratic/orderreport/internal/config"
	"github.com/dejobratic/orderreport/internal/reports/adapters/notify"
	"github.com/dejobratic/orderreport/internal/reports/adapters/sink"
	"github.com/dejobratic/orderreport/internal/reports/app"
	"github.com/dejobratic/orderreport/internal/reports/domain"
	"github.com/dejobratic/orderreport/internal/telemetry"
	"go.opentelemetry.io/otel"
)

const (
	exitOK = iota
	exitFailed
	exitNoData
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return exitFailed
	}

	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var input app.ExportInput
	fs.StringVar(&input.Search, "search", "", "search term over order id, username and email")
	fs.StringVar(&input.Status, "status", "", "order status filter, or \"all\"")
	fs.StringVar(&input.StartDate, "start", "", "first order date to include (YYYY-MM-DD)")
	fs.StringVar(&input.EndDate, "end", "", "last order date to include (YYYY-MM-DD)")
	fs.StringVar(&input.SortKey, "sort", domain.DefaultSortKey, "sort key: orderDate, totalAmount or status")
	fs.StringVar(&input.SortOrder, "order", domain.SortDescending, "sort order: asc or desc")
	outDir := fs.String("out", cfg.Report.OutputDir, "directory the report is written to")
	if err := fs.Parse(args); err != nil {
		return exitFailed
	}

	logger := telemetry.NewLoggerTo(stderr, telemetry.ParseLevel(cfg.Telemetry.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	components, err := bootstrap.Build(ctx, cfg, logger, otel.GetMeterProvider().Meter("github.com/dejobratic/orderreport"), notify.NewConsole(stdout))
	if err != nil {
		logger.Error("failed to build exporter", "error", err)
		return exitFailed
	}
	defer components.Close()

	out := sink.NewFileSink(*outDir)
	credential := os.Getenv("REPORT_API_TOKEN")

	result, err := components.Service.ExportReport(ctx, credential, input, out)
	switch {
	case errors.Is(err, domain.ErrNothingToExport):
		return exitNoData
	case errors.Is(err, app.ErrInvalidInput):
		// Rejected before any notification is sent.
		fmt.Fprintf(stderr, "export: %v\n", err)
		fs.Usage()
		return exitFailed
	case err != nil:
		logger.Error("export failed", slog.String("error", err.Error()))
		return exitFailed
	}

	fmt.Fprintln(stdout, out.LastPath())
	logger.Debug("export finished", "export_id", result.ExportID, "pages", result.Pages)
	return exitOK
}

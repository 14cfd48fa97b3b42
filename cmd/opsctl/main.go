package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"opspulse/internal/dataprocessing"
	apperrors "opspulse/internal/errors"
	"opspulse/internal/exporter"
	"opspulse/internal/filter"
	"opspulse/internal/infrastructure"
	"opspulse/internal/services"
	"opspulse/pkg/contracts/domain"
)

// views lists every -view value in the order shown by -h.
var views = []string{
	services.ViewOverview,
	services.ViewTrend,
	services.ViewRepeats,
	services.ViewIssues,
	services.ViewLayers,
	services.ViewCalibration,
	"records",
}

type options struct {
	file     string
	kind     string
	view     string
	search   string
	start    string
	end      string
	top      int
	out      string
	taxonomy string
	logLevel string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "opsctl: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// Exit codes follow sysexits(3) so scripts can tell bad input from bad usage.
const (
	exitFailure = 1
	exitDataErr = 65
	exitNoInput = 66
)

func exitCode(err error) int {
	switch {
	case apperrors.IsParsingError(err), apperrors.IsEmptyResultError(err):
		return exitDataErr
	case apperrors.IsNotFoundError(err):
		return exitNoInput
	default:
		return exitFailure
	}
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("opsctl", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{}
	fs.StringVar(&opts.file, "file", "", "workbook to analyse (.xlsx, .xlsm, .xls or .csv)")
	fs.StringVar(&opts.kind, "kind", "fuel", "sheet kind: fuel or after-sales")
	fs.StringVar(&opts.view, "view", services.ViewOverview, "view to print: "+strings.Join(views, ", "))
	fs.StringVar(&opts.search, "search", "", "case-insensitive search across every column")
	fs.StringVar(&opts.start, "start", "", "first day to include (YYYY-MM-DD)")
	fs.StringVar(&opts.end, "end", "", "last day to include (YYYY-MM-DD)")
	fs.IntVar(&opts.top, "top", 0, "number of entries for repeats and issues (0 uses the view default)")
	fs.StringVar(&opts.out, "out", "", "write the filtered tickets as CSV to this path instead of printing a view")
	fs.StringVar(&opts.taxonomy, "taxonomy", "", "optional YAML file of extra header candidates")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "log level for stderr")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.file == "" {
		return nil, errors.New("-file is required")
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	logger := infrastructure.NewLogger(stderr, opts.logLevel)

	kind, err := domain.ParseSheetKind(opts.kind)
	if err != nil {
		return err
	}

	taxonomy := dataprocessing.DefaultHeaderTaxonomy()
	if opts.taxonomy != "" {
		if taxonomy, err = dataprocessing.LoadHeaderTaxonomy(opts.taxonomy); err != nil {
			return fmt.Errorf("load taxonomy: %w", err)
		}
	}

	svc := services.NewDashboardService(dataprocessing.NewIngestor(taxonomy, logger), nil, nil, nil, nil, logger)

	ds, err := svc.LoadFile(ctx, kind, opts.file)
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "workbook loaded",
		slog.String("kind", kind.Slug()),
		slog.Int("tickets", ds.Len()))

	criteria := filter.Criteria{Search: opts.search, StartDate: opts.start, EndDate: opts.end}
	if err := criteria.Validate(); err != nil {
		return err
	}

	if opts.out != "" {
		return export(ctx, svc, kind, criteria, opts.out, logger)
	}

	result, err := view(ctx, svc, kind, criteria, opts)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func view(ctx context.Context, svc *services.DashboardService, kind domain.SheetKind, criteria filter.Criteria, opts *options) (any, error) {
	switch opts.view {
	case services.ViewOverview:
		return svc.Overview(ctx, kind, criteria)
	case services.ViewTrend:
		return svc.Trend(ctx, kind, criteria)
	case services.ViewRepeats:
		return svc.Repeats(ctx, kind, criteria, opts.top)
	case services.ViewIssues:
		return svc.Issues(ctx, kind, criteria, opts.top)
	case services.ViewLayers:
		return svc.Layers(ctx, kind, criteria)
	case services.ViewCalibration:
		return svc.Calibration(ctx, kind, criteria)
	case "records":
		return svc.Records(ctx, kind, criteria)
	default:
		return nil, fmt.Errorf("unknown view %q (want one of %s)", opts.view, strings.Join(views, ", "))
	}
}

func export(ctx context.Context, svc *services.DashboardService, kind domain.SheetKind, criteria filter.Criteria, path string, logger *slog.Logger) error {
	records, err := svc.Records(ctx, kind, criteria)
	if err != nil {
		return err
	}
	headers, rows, err := exporter.Table(kind, records)
	if err != nil {
		return err
	}

	written, err := exporter.NewCSVWriter(nil, logger).WriteCSV(path, exporter.WriteOptions{
		Headers:   headers,
		Records:   rows,
		BOMPrefix: true,
	})
	if err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	logger.InfoContext(ctx, "export written", slog.String("path", written), slog.Int("tickets", len(rows)))
	return nil
}

// Package source pulls ticket rows from Google Sheets so a dataset can be
// refreshed without a manual upload.
package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"opspulse/internal/config"
	"opspulse/internal/dataprocessing"
	apperrors "opspulse/internal/errors"
	"opspulse/pkg/contracts/domain"
)

// TracerName is the tracer used for Sheets fetches.
const TracerName = "opspulse.source"

// formattedValue asks the API for cells as displayed, which is what a
// spreadsheet export would contain.
const formattedValue = "FORMATTED_VALUE"

// RowSource yields the worksheet backing a sheet kind.
type RowSource interface {
	Fetch(ctx context.Context, kind domain.SheetKind) (*dataprocessing.Sheet, error)
}

// SheetsSource reads ranges through the Sheets v4 values API.
type SheetsSource struct {
	service *sheets.Service
	cfg     config.SheetsConfig
	logger  *slog.Logger
}

// NewSheetsSource builds a Sheets client authenticated with the service
// account key at cfg.CredentialsFile. Extra client options are appended.
func NewSheetsSource(ctx context.Context, cfg config.SheetsConfig, logger *slog.Logger, opts ...option.ClientOption) (*SheetsSource, error) {
	if cfg.CredentialsFile != "" {
		opts = append([]option.ClientOption{option.WithCredentialsFile(cfg.CredentialsFile)}, opts...)
	}

	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, apperrors.NewConfigError("create sheets service", err)
	}

	return &SheetsSource{
		service: service,
		cfg:     cfg,
		logger:  logger.With("component", "sheets_source"),
	}, nil
}

// target maps a sheet kind onto its spreadsheet id and A1 range.
func (s *SheetsSource) target(kind domain.SheetKind) (string, string, error) {
	switch kind {
	case domain.SheetFuel:
		if s.cfg.FuelSpreadsheetID != "" {
			return s.cfg.FuelSpreadsheetID, s.cfg.FuelRange, nil
		}
	case domain.SheetAfterSales:
		if s.cfg.AfterSalesSpreadsheetID != "" {
			return s.cfg.AfterSalesSpreadsheetID, s.cfg.AfterSalesRange, nil
		}
	default:
		return "", "", apperrors.NewAppValidationError(fmt.Sprintf("unknown sheet kind %q", kind))
	}
	return "", "", apperrors.NewConfigError(fmt.Sprintf("no spreadsheet configured for %s", kind.Slug()), nil)
}

// Fetch reads the configured range for kind. The first returned row is the
// header row.
func (s *SheetsSource) Fetch(ctx context.Context, kind domain.SheetKind) (*dataprocessing.Sheet, error) {
	spreadsheetID, readRange, err := s.target(kind)
	if err != nil {
		return nil, err
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	ctx, span := otel.Tracer(TracerName).Start(ctx, "sheets.values.get",
		trace.WithAttributes(
			attribute.String("sheet.kind", string(kind)),
			attribute.String("sheets.range", readRange),
		),
	)
	defer span.End()

	start := time.Now()
	resp, err := s.service.Spreadsheets.Values.Get(spreadsheetID, readRange).
		ValueRenderOption(formattedValue).
		Context(ctx).
		Do()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.ErrorContext(ctx, "sheets fetch failed",
			slog.String("kind", string(kind)),
			slog.String("range", readRange),
			slog.String("error", err.Error()))
		return nil, classify(err, spreadsheetID)
	}

	grid := toGrid(resp.Values)
	sheet := dataprocessing.GridToSheet(grid)
	sheet.Name = resp.Range
	if sheet.Name == "" {
		sheet.Name = readRange
	}

	span.SetAttributes(attribute.Int("sheets.rows", len(sheet.Rows)))
	s.logger.InfoContext(ctx, "sheets range fetched",
		slog.String("kind", string(kind)),
		slog.String("range", sheet.Name),
		slog.Int("rows", len(sheet.Rows)),
		slog.Duration("duration", time.Since(start)))

	return sheet, nil
}

func classify(err error, spreadsheetID string) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusNotFound:
			return apperrors.NewNotFoundError("spreadsheet " + spreadsheetID)
		case http.StatusBadRequest:
			return apperrors.NewAppValidationError(apiErr.Message).WithContext("spreadsheet", spreadsheetID)
		}
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return apperrors.NewNetworkError("fetch spreadsheet values", err).WithContext("spreadsheet", spreadsheetID)
}

// toGrid renders every API cell as text. Formatted values are already
// strings; anything else is printed with fmt.
func toGrid(values [][]interface{}) [][]string {
	grid := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, v := range row {
			switch c := v.(type) {
			case nil:
			case string:
				cells[j] = c
			default:
				cells[j] = fmt.Sprint(c)
			}
		}
		grid[i] = cells
	}
	return grid
}

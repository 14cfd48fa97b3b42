package dataprocessing

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/blake2b"

	apperrors "opspulse/internal/errors"
	"opspulse/pkg/contracts/domain"
)

// EmptyResultMessage is reported when a readable file yields no tickets.
const EmptyResultMessage = "No valid data found in the file."

// Ingestor reads sheets and normalizes them into datasets.
type Ingestor struct {
	normalizer *Normalizer
	logger     *slog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// NewIngestor creates an ingestor over the given header taxonomy.
func NewIngestor(taxonomy HeaderTaxonomy, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{
		normalizer: NewNormalizer(taxonomy),
		logger:     logger.With(slog.String("component", "ingestor")),
		tracer:     otel.Tracer("opspulse.ingest"),
		now:        time.Now,
	}
}

// IngestFile reads an uploaded file and normalizes its first worksheet. The
// dataset fingerprint is the BLAKE2b-256 digest of the file bytes.
func (in *Ingestor) IngestFile(ctx context.Context, r io.Reader, fileName string, kind domain.SheetKind, source domain.DatasetSource) (*domain.Dataset, error) {
	ctx, span := in.tracer.Start(ctx, "ingest.file", trace.WithAttributes(
		attribute.String("file.name", fileName),
		attribute.String("sheet.kind", string(kind)),
	))
	defer span.End()

	data, err := io.ReadAll(r)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return nil, err
	}

	sheet, err := ReadSheet(bytes.NewReader(data), fileName)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failed")
		in.logger.WarnContext(ctx, "failed to read uploaded file",
			slog.String("file_name", fileName),
			slog.String("error", err.Error()))
		return nil, err
	}

	ds, err := in.build(ctx, sheet, kind, source, Fingerprint(data))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	ds.FileName = fileName
	return ds, nil
}

// IngestSheet normalizes an already-read sheet, such as a Google Sheets range.
// The fingerprint is derived from the header and cell values.
func (in *Ingestor) IngestSheet(ctx context.Context, sheet *Sheet, kind domain.SheetKind, source domain.DatasetSource) (*domain.Dataset, error) {
	ctx, span := in.tracer.Start(ctx, "ingest.sheet", trace.WithAttributes(
		attribute.String("sheet.name", sheet.Name),
		attribute.String("sheet.kind", string(kind)),
	))
	defer span.End()

	ds, err := in.build(ctx, sheet, kind, source, FingerprintSheet(sheet))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return ds, nil
}

func (in *Ingestor) build(ctx context.Context, sheet *Sheet, kind domain.SheetKind, source domain.DatasetSource, fingerprint string) (*domain.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := in.now()
	ds := &domain.Dataset{
		ID:          uuid.New().String(),
		Kind:        kind,
		Source:      source,
		Fingerprint: fingerprint,
		RowCount:    len(sheet.Rows),
	}

	switch kind {
	case domain.SheetFuel:
		ds.Fuel = in.normalizer.Fuel(sheet.Rows)
	case domain.SheetAfterSales:
		ds.Support = in.normalizer.Support(sheet.Rows)
	default:
		return nil, apperrors.NewAppValidationError(fmt.Sprintf("unknown sheet kind %q", kind))
	}

	if ds.Len() == 0 {
		return nil, apperrors.NewEmptyResultError(EmptyResultMessage).
			WithContext("sheet", sheet.Name)
	}

	ds.IngestedAt = in.now().UTC()
	in.logger.InfoContext(ctx, "sheet normalized",
		slog.String("dataset_id", ds.ID),
		slog.String("sheet", sheet.Name),
		slog.String("kind", string(kind)),
		slog.String("source", string(source)),
		slog.Int("raw_rows", len(sheet.Rows)),
		slog.Int("records", ds.Len()),
		slog.Duration("duration", in.now().Sub(start)))

	return ds, nil
}

// Fingerprint returns the hex BLAKE2b-256 digest of data.
func Fingerprint(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// FingerprintSheet digests a sheet's headers and cells in column order.
func FingerprintSheet(sheet *Sheet) string {
	h, _ := blake2b.New256(nil)
	writeField := func(s string) {
		h.Write([]byte(s))
		h.Write([]byte{0x1f})
	}

	for _, header := range sheet.Headers {
		writeField(header)
	}
	h.Write([]byte{0x1e})
	for _, row := range sheet.Rows {
		for _, key := range row.Keys() {
			v, _ := row.Get(key)
			writeField(key)
			writeField(CellString(v))
		}
		h.Write([]byte{0x1e})
	}
	return hex.EncodeToString(h.Sum(nil))
}

package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"opspulse/internal/analytics"
	"opspulse/internal/cache"
	"opspulse/internal/dataprocessing"
	apperrors "opspulse/internal/errors"
	"opspulse/internal/exporter"
	"opspulse/internal/filter"
	"opspulse/internal/infrastructure"
	"opspulse/internal/issues"
	"opspulse/internal/source"
	"opspulse/pkg/contracts/domain"
	"opspulse/pkg/contracts/events"
)

// DefaultRepeatLimit is the number of repeat failures returned when the caller
// does not ask for a specific count.
const DefaultRepeatLimit = 5

// View names used for cache keys and metrics.
const (
	ViewOverview    = "overview"
	ViewTrend       = "trend"
	ViewRepeats     = "repeats"
	ViewIssues      = "issues"
	ViewLayers      = "layers"
	ViewCalibration = "calibration"
)

// Notifier receives dataset lifecycle events. *websocket.Hub implements it.
type Notifier interface {
	Broadcast(ctx context.Context, msgType string, data any)
}

// CalibrationReport is the calibration view of an after-sales dataset.
type CalibrationReport struct {
	Readings []domain.CalibrationReading `json:"readings"`
	Alerts   int                         `json:"alerts"`
	Status   string                      `json:"status"`
}

// DashboardService owns the active dataset of each sheet kind and serves the
// aggregate views over it. A dataset is replaced wholesale by every ingest and
// never mutated, so readers can keep using a snapshot after a swap.
type DashboardService struct {
	ingestor *dataprocessing.Ingestor
	source   source.RowSource
	cache    cache.Cache
	notifier Notifier
	metrics  *infrastructure.BusinessMetrics
	logger   *slog.Logger
	tracer   trace.Tracer

	mu       sync.RWMutex
	datasets map[domain.SheetKind]*domain.Dataset

	syncs singleflight.Group
}

// NewDashboardService wires the dashboard service. src, notifier and metrics
// may be nil; a nil cache disables memoization.
func NewDashboardService(ingestor *dataprocessing.Ingestor, src source.RowSource, c cache.Cache, notifier Notifier, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	if c == nil {
		c = cache.Nop{}
	}
	return &DashboardService{
		ingestor: ingestor,
		source:   src,
		cache:    c,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger.With(slog.String("component", "dashboard_service")),
		tracer:   otel.Tracer("opspulse.services"),
		datasets: make(map[domain.SheetKind]*domain.Dataset),
	}
}

// Upload ingests an uploaded workbook and makes it the active dataset.
func (s *DashboardService) Upload(ctx context.Context, kind domain.SheetKind, fileName string, r io.Reader) (*domain.Dataset, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	if !dataprocessing.IsSupportedFile(fileName) {
		return nil, apperrors.NewParsingError(fmt.Sprintf("unsupported file type %q", filepath.Ext(fileName)), nil).
			WithContext("file_name", fileName)
	}

	return s.ingest(ctx, kind, domain.SourceUpload, func(ctx context.Context) (*domain.Dataset, error) {
		return s.ingestor.IngestFile(ctx, r, fileName, kind, domain.SourceUpload)
	})
}

// LoadFile ingests a workbook from disk.
func (s *DashboardService) LoadFile(ctx context.Context, kind domain.SheetKind, path string) (*domain.Dataset, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("file %s", path))
	}
	defer f.Close()

	return s.ingest(ctx, kind, domain.SourceFile, func(ctx context.Context) (*domain.Dataset, error) {
		return s.ingestor.IngestFile(ctx, f, filepath.Base(path), kind, domain.SourceFile)
	})
}

// Sync pulls the kind's worksheet from the row source. Concurrent syncs of
// the same kind share a single fetch.
func (s *DashboardService) Sync(ctx context.Context, kind domain.SheetKind) (*domain.Dataset, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	if s.source == nil {
		return nil, apperrors.NewConfigError("google sheets sync is not enabled", nil)
	}

	v, err, shared := s.syncs.Do(string(kind), func() (interface{}, error) {
		return s.ingest(ctx, kind, domain.SourceSheets, func(ctx context.Context) (*domain.Dataset, error) {
			sheet, err := s.source.Fetch(ctx, kind)
			if err != nil {
				return nil, err
			}
			return s.ingestor.IngestSheet(ctx, sheet, kind, domain.SourceSheets)
		})
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.DebugContext(ctx, "sheets sync shared with concurrent caller", slog.String("kind", string(kind)))
	}
	return v.(*domain.Dataset), nil
}

// SyncAll syncs every sheet kind concurrently. The first failure cancels the
// remaining fetches; datasets already published stay active.
func (s *DashboardService) SyncAll(ctx context.Context) ([]*domain.Dataset, error) {
	kinds := domain.SheetKinds()
	out := make([]*domain.Dataset, len(kinds))

	g, ctx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		g.Go(func() error {
			ds, err := s.Sync(ctx, kind)
			if err != nil {
				return fmt.Errorf("sync %s: %w", kind.Slug(), err)
			}
			out[i] = ds
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *DashboardService) ingest(ctx context.Context, kind domain.SheetKind, src domain.DatasetSource, load func(context.Context) (*domain.Dataset, error)) (*domain.Dataset, error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.ingest", trace.WithAttributes(
		attribute.String("sheet.kind", string(kind)),
		attribute.String("ingest.source", string(src)),
	))
	defer span.End()

	start := time.Now()
	ds, err := load(ctx)
	if err == nil {
		// An abandoned request must not replace the active dataset.
		err = ctx.Err()
	}
	infrastructure.RecordIngestMetrics(ctx, s.metrics, string(kind), string(src), ds.Len(), time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "ingest failed")
		s.logger.WarnContext(ctx, "ingest failed",
			slog.String("kind", string(kind)),
			slog.String("source", string(src)),
			slog.String("error", err.Error()))
		return nil, err
	}

	s.publish(ctx, ds)
	infrastructure.SetSpanAttributes(ctx, map[string]interface{}{
		"dataset.records":     ds.Len(),
		"dataset.fingerprint": ds.Fingerprint,
	})
	return ds, nil
}

func (s *DashboardService) publish(ctx context.Context, ds *domain.Dataset) {
	s.mu.Lock()
	previous := s.datasets[ds.Kind]
	s.datasets[ds.Kind] = ds
	s.mu.Unlock()

	if previous != nil {
		s.invalidate(ctx, ds.Kind)
	}
	infrastructure.AddSpanEvent(ctx, "dataset.published", map[string]interface{}{
		"dataset.id":       ds.ID,
		"dataset.replaced": previous != nil,
	})

	s.logger.InfoContext(ctx, "dataset published",
		slog.String("dataset_id", ds.ID),
		slog.String("kind", string(ds.Kind)),
		slog.String("source", string(ds.Source)),
		slog.Int("records", ds.Len()))

	s.notify(ctx, events.TypeDatasetRefreshed, events.DatasetEvent{
		Kind:        ds.Kind.Slug(),
		DatasetID:   ds.ID,
		Source:      ds.Source,
		RowCount:    ds.Len(),
		Fingerprint: ds.Fingerprint,
	})
}

// Clear drops the active dataset of kind.
func (s *DashboardService) Clear(ctx context.Context, kind domain.SheetKind) error {
	if err := checkKind(kind); err != nil {
		return err
	}

	s.mu.Lock()
	_, ok := s.datasets[kind]
	delete(s.datasets, kind)
	s.mu.Unlock()

	if !ok {
		return notLoaded(kind)
	}
	s.invalidate(ctx, kind)
	s.notify(ctx, events.TypeDatasetCleared, events.DatasetEvent{Kind: kind.Slug()})
	return nil
}

func (s *DashboardService) invalidate(ctx context.Context, kind domain.SheetKind) {
	if err := s.cache.Invalidate(ctx, kind.Slug()+":"); err != nil {
		infrastructure.RecordSystemError(ctx, s.metrics, "cache_invalidate", "dashboard_service")
		s.logger.WarnContext(ctx, "failed to invalidate view cache",
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()))
	}
}

func (s *DashboardService) notify(ctx context.Context, msgType string, event events.DatasetEvent) {
	if s.notifier != nil {
		s.notifier.Broadcast(ctx, msgType, event)
	}
}

// Dataset returns the active dataset of kind.
func (s *DashboardService) Dataset(kind domain.SheetKind) (*domain.Dataset, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}

	s.mu.RLock()
	ds := s.datasets[kind]
	s.mu.RUnlock()

	if ds == nil {
		return nil, notLoaded(kind)
	}
	return ds, nil
}

// Datasets returns the active datasets in kind order.
func (s *DashboardService) Datasets() []*domain.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Dataset
	for _, kind := range domain.SheetKinds() {
		if ds := s.datasets[kind]; ds != nil {
			out = append(out, ds)
		}
	}
	return out
}

// CacheStats reports view cache usage.
func (s *DashboardService) CacheStats() cache.Stats {
	return s.cache.Stats()
}

// Records returns the active records that match criteria.
func (s *DashboardService) Records(ctx context.Context, kind domain.SheetKind, criteria filter.Criteria) ([]domain.Record, error) {
	ds, err := s.Dataset(kind)
	if err != nil {
		return nil, err
	}
	return filter.Apply(ds.Records(), criteria)
}

// Export writes the matching records as CSV.
func (s *DashboardService) Export(ctx context.Context, kind domain.SheetKind, criteria filter.Criteria, w io.Writer) error {
	records, err := s.Records(ctx, kind, criteria)
	if err != nil {
		return err
	}
	return exporter.WriteRecords(w, kind, records)
}

// Overview returns the FuelOverview or SupportOverview of the filtered
// records.
func (s *DashboardService) Overview(ctx context.Context, kind domain.SheetKind, criteria filter.Criteria) (any, error) {
	ds, err := s.Dataset(kind)
	if err != nil {
		return nil, err
	}

	if kind == domain.SheetFuel {
		return cachedView(ctx, s, ds, ViewOverview, criteria, func() (domain.FuelOverview, error) {
			tickets, err := filter.Apply(ds.Fuel, criteria)
			if err != nil {
				return domain.FuelOverview{}, err
			}
			return analytics.FuelOverview(tickets), nil
		})
	}
	return cachedView(ctx, s, ds, ViewOverview, criteria, func() (domain.SupportOverview, error) {
		tickets, err := filter.Apply(ds.Support, criteria)
		if err != nil {
			return domain.SupportOverview{}, err
		}
		return analytics.SupportOverview(tickets), nil
	})
}

// Trend returns the monthly issue trend.
func (s *DashboardService) Trend(ctx context.Context, kind domain.SheetKind, criteria filter.Criteria) ([]domain.TrendPoint, error) {
	return recordView(ctx, s, kind, ViewTrend, criteria, analytics.MonthlyTrend)
}

// Repeats returns the top repeat failures. limit <= 0 uses DefaultRepeatLimit.
func (s *DashboardService) Repeats(ctx context.Context, kind domain.SheetKind, criteria filter.Criteria, limit int) ([]domain.RepeatFailure, error) {
	if limit <= 0 {
		limit = DefaultRepeatLimit
	}
	return recordView(ctx, s, kind, fmt.Sprintf("%s:%d", ViewRepeats, limit), criteria, func(records []domain.Record) []domain.RepeatFailure {
		return analytics.RepeatFailures(records, limit)
	})
}

// Issues returns issue token counts. top <= 0 returns every issue.
func (s *DashboardService) Issues(ctx context.Context, kind domain.SheetKind, criteria filter.Criteria, top int) ([]domain.NameValue, error) {
	return recordView(ctx, s, kind, fmt.Sprintf("%s:%d", ViewIssues, top), criteria, func(records []domain.Record) []domain.NameValue {
		return analytics.TopN(analytics.IssueCounts(records), top)
	})
}

// Layers returns issue token counts per tech layer.
func (s *DashboardService) Layers(ctx context.Context, kind domain.SheetKind, criteria filter.Criteria) ([]domain.LayerCount, error) {
	return recordView(ctx, s, kind, ViewLayers, criteria, issues.LayerBreakdown)
}

// Calibration returns the manual-dip against app-level comparison. Only
// after-sales tickets carry the readings.
func (s *DashboardService) Calibration(ctx context.Context, kind domain.SheetKind, criteria filter.Criteria) (CalibrationReport, error) {
	if kind != domain.SheetAfterSales {
		if err := checkKind(kind); err != nil {
			return CalibrationReport{}, err
		}
		return CalibrationReport{}, apperrors.NewAppValidationError("calibration is only available for after-sales tickets")
	}

	ds, err := s.Dataset(kind)
	if err != nil {
		return CalibrationReport{}, err
	}
	return cachedView(ctx, s, ds, ViewCalibration, criteria, func() (CalibrationReport, error) {
		tickets, err := filter.Apply(ds.Support, criteria)
		if err != nil {
			return CalibrationReport{}, err
		}
		alerts := analytics.CountCalibrationAlerts(tickets)
		return CalibrationReport{
			Readings: analytics.CalibrationVariance(tickets),
			Alerts:   alerts,
			Status:   analytics.CalibrationStatus(alerts),
		}, nil
	})
}

// recordView computes a memoized view over the filtered shared records.
func recordView[T any](ctx context.Context, s *DashboardService, kind domain.SheetKind, view string, criteria filter.Criteria, compute func([]domain.Record) T) (T, error) {
	ds, err := s.Dataset(kind)
	if err != nil {
		var zero T
		return zero, err
	}
	return cachedView(ctx, s, ds, view, criteria, func() (T, error) {
		records, err := filter.Apply(ds.Records(), criteria)
		if err != nil {
			var zero T
			return zero, err
		}
		return compute(records), nil
	})
}

// cachedView returns the memoized view for (dataset, view, criteria) or
// computes and stores it. Cache failures degrade to computing the view.
func cachedView[T any](ctx context.Context, s *DashboardService, ds *domain.Dataset, view string, criteria filter.Criteria, compute func() (T, error)) (T, error) {
	var zero T
	if _, err := filter.Compile(criteria); err != nil {
		return zero, err
	}

	key := viewKey(ds, view, criteria)
	metricView := view
	if i := strings.IndexByte(view, ':'); i >= 0 {
		metricView = view[:i]
	}

	var cached T
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		infrastructure.RecordSystemError(ctx, s.metrics, "cache_read", "dashboard_service")
		s.logger.WarnContext(ctx, "view cache read failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}
	if hit {
		infrastructure.RecordViewMetrics(ctx, s.metrics, string(ds.Kind), metricView, true, 0)
		return cached, nil
	}

	ctx, span := s.tracer.Start(ctx, "dashboard.view", trace.WithAttributes(
		attribute.String("sheet.kind", string(ds.Kind)),
		attribute.String("view", metricView),
	))
	defer span.End()

	start := time.Now()
	result, err := compute()
	infrastructure.RecordViewMetrics(ctx, s.metrics, string(ds.Kind), metricView, false, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "view failed")
		return zero, err
	}

	if err := s.cache.Set(ctx, key, result); err != nil {
		infrastructure.RecordSystemError(ctx, s.metrics, "cache_write", "dashboard_service")
		s.logger.WarnContext(ctx, "view cache write failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}
	return result, nil
}

func viewKey(ds *domain.Dataset, view string, criteria filter.Criteria) string {
	return ds.Kind.Slug() + ":" + ds.Fingerprint + ":" + view + ":" + criteria.Key()
}

func checkKind(kind domain.SheetKind) error {
	switch kind {
	case domain.SheetFuel, domain.SheetAfterSales:
		return nil
	}
	return apperrors.NewAppValidationError(fmt.Sprintf("unknown sheet kind %q", kind))
}

func notLoaded(kind domain.SheetKind) error {
	return apperrors.NewNotFoundError(fmt.Sprintf("%s dataset", kind.Slug())).
		WithContext("kind", kind.Slug())
}

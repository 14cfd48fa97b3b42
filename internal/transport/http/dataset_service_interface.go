package http

import (
	"context"
	"io"

	"opspulse/internal/filter"
	"opspulse/internal/services"
	"opspulse/pkg/contracts/domain"
)

// DatasetServiceInterface defines the dataset operations the handlers need.
// *services.DashboardService implements it.
type DatasetServiceInterface interface {
	Upload(ctx context.Context, kind domain.SheetKind, fileName string, r io.Reader) (*domain.Dataset, error)
	Sync(ctx context.Context, kind domain.SheetKind) (*domain.Dataset, error)
	SyncAll(ctx context.Context) ([]*domain.Dataset, error)
	Clear(ctx context.Context, kind domain.SheetKind) error
	Dataset(kind domain.SheetKind) (*domain.Dataset, error)
	Datasets() []*domain.Dataset

	Records(ctx context.Context, kind domain.SheetKind, criteria filter.Criteria) ([]domain.Record, error)
	Export(ctx context.Context, kind domain.SheetKind, criteria filter.Criteria, w io.Writer) error
	Overview(ctx context.Context, kind domain.SheetKind, criteria filter.Criteria) (any, error)
	Trend(ctx context.Context, kind domain.SheetKind, criteria filter.Criteria) ([]domain.TrendPoint, error)
	Repeats(ctx context.Context, kind domain.SheetKind, criteria filter.Criteria, limit int) ([]domain.RepeatFailure, error)
	Issues(ctx context.Context, kind domain.SheetKind, criteria filter.Criteria, top int) ([]domain.NameValue, error)
	Layers(ctx context.Context, kind domain.SheetKind, criteria filter.Criteria) ([]domain.LayerCount, error)
	Calibration(ctx context.Context, kind domain.SheetKind, criteria filter.Criteria) (services.CalibrationReport, error)
}

var _ DatasetServiceInterface = (*services.DashboardService)(nil)

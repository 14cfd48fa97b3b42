package services

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"opspulse/internal/cache"
	"opspulse/internal/infrastructure"
	"opspulse/internal/shared/testutil"
	"opspulse/pkg/contracts/domain"
)

type MockDatasetStore struct {
	mock.Mock
}

func (m *MockDatasetStore) Datasets() []*domain.Dataset {
	args := m.Called()
	return args.Get(0).([]*domain.Dataset)
}

func (m *MockDatasetStore) CacheStats() cache.Stats {
	args := m.Called()
	return args.Get(0).(cache.Stats)
}

type MockClientCounter struct {
	mock.Mock
}

func (m *MockClientCounter) ClientCount() int {
	return m.Called().Int(0)
}

func newHealthService(t *testing.T, store DatasetStore, hub ClientCounter) *HealthService {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	return NewHealthService(BuildInfo{Version: "1.2.0", BuildTime: "2024-01-15T10:00:00Z"}, store, hub, logger)
}

func TestHealthService_Construction(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	hs := NewHealthService(BuildInfo{Version: "1.0.0"}, nil, nil, logger)

	assert.Equal(t, "1.0.0", hs.build.Version)
	assert.False(t, hs.startTime.IsZero())
	assert.True(t, logs.ContainsMessage("HealthService initialized"))

	hs = NewHealthService(BuildInfo{}, nil, nil, nil)
	assert.NotNil(t, hs.logger)
}

func TestHealthService_HealthAndLiveness(t *testing.T) {
	hs := newHealthService(t, nil, nil)
	ctx := context.Background()

	health := hs.HealthCheck(ctx)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "1.2.0", health.Version)
	assert.WithinDuration(t, time.Now(), health.Timestamp, time.Second)

	live := hs.LivenessCheck(ctx)
	assert.Equal(t, "alive", live.Status)
	assert.Equal(t, runtime.Version(), live.Runtime["go_version"])
	assert.Contains(t, live.Runtime, "goroutines")
}

func TestHealthService_Readiness(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		store  func() DatasetStore
		hub    func() ClientCounter
		status string
	}{
		{
			name: "all dependencies",
			store: func() DatasetStore {
				s := &MockDatasetStore{}
				s.On("Datasets").Return([]*domain.Dataset{{Kind: domain.SheetFuel}})
				s.On("CacheStats").Return(cache.Stats{Backend: "memory", Entries: 3})
				return s
			},
			hub: func() ClientCounter {
				h := &MockClientCounter{}
				h.On("ClientCount").Return(2)
				return h
			},
			status: "ready",
		},
		{
			name:   "missing dependencies",
			store:  func() DatasetStore { return nil },
			hub:    func() ClientCounter { return nil },
			status: "not_ready",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := newHealthService(t, tt.store(), tt.hub())
			ready := hs.ReadinessCheck(ctx)

			assert.Equal(t, tt.status, ready.Status)
			assert.Len(t, ready.Services, 3)
		})
	}

	store := &MockDatasetStore{}
	store.On("Datasets").Return([]*domain.Dataset{{Kind: domain.SheetFuel}})
	store.On("CacheStats").Return(cache.Stats{Backend: "redis", Entries: 7})
	hub := &MockClientCounter{}
	hub.On("ClientCount").Return(0)

	ready := newHealthService(t, store, hub).ReadinessCheck(ctx)
	datasets, ok := ready.Services["datasets"].(ServiceHealth)
	require.True(t, ok)
	assert.Equal(t, "1 of 2 datasets loaded", datasets.Message)
	assert.Equal(t, "redis cache, 7 entries", ready.Services["cache"].(ServiceHealth).Message)
}

func TestHealthService_Version(t *testing.T) {
	hs := newHealthService(t, nil, nil)
	info := hs.Version()

	assert.Equal(t, "1.2.0", info["version"])
	assert.Equal(t, "2024-01-15T10:00:00Z", info["build_time"])
	assert.NotContains(t, info, "build_id")
	assert.NotContains(t, info, "repo_url")
	assert.Equal(t, runtime.GOOS, info["os"])
}

func TestHealthService_SystemStats(t *testing.T) {
	ingested := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	store := &MockDatasetStore{}
	store.On("Datasets").Return([]*domain.Dataset{
		{Kind: domain.SheetFuel, Source: domain.SourceUpload, IngestedAt: ingested, Fuel: make([]domain.FuelTicket, 4)},
		{Kind: domain.SheetAfterSales, Source: domain.SourceSheets, IngestedAt: ingested, Support: make([]domain.SupportTicket, 2)},
	})
	store.On("CacheStats").Return(cache.Stats{Backend: "memory"})
	hub := &MockClientCounter{}
	hub.On("ClientCount").Return(5)

	hs := newHealthService(t, store, hub)
	stats := hs.SystemStats(context.Background())

	assert.Equal(t, map[string]int{"fuel": 4, "after-sales": 2}, stats.Datasets)
	assert.Equal(t, "sheets", stats.Sources["after-sales"])
	assert.Equal(t, "2024-01-15T10:00:00Z", stats.LastIngest["fuel"])
	assert.Equal(t, 5, stats.WebSocketClients)
	assert.Equal(t, "memory", stats.Cache.Backend)

	detailed := hs.GetDetailedHealth(context.Background())
	assert.Contains(t, detailed, "readiness")
	assert.Contains(t, detailed, "stats")
	store.AssertExpectations(t)
}

func TestHealthService_SystemStatsIncludesRuntimeSample(t *testing.T) {
	collector, err := infrastructure.NewSystemMetricsCollector(noop.NewMeterProvider().Meter("test"), time.Minute)
	require.NoError(t, err)

	logger, _ := testutil.NewTestLogger(t)
	hs := NewHealthService(BuildInfo{Version: "1.0.0"}, nil, nil, logger)
	assert.Nil(t, hs.SystemStats(context.Background()).Runtime)

	stats := hs.WithRuntimeSampler(collector).SystemStats(context.Background())
	require.NotNil(t, stats.Runtime)
	assert.Contains(t, stats.Runtime, "runtime")
	assert.Contains(t, stats.Runtime, "system")
}

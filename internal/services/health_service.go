package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"opspulse/internal/cache"
	"opspulse/internal/infrastructure"
	"opspulse/pkg/contracts/domain"
)

// DatasetStore is the part of the dashboard service health checks read.
type DatasetStore interface {
	Datasets() []*domain.Dataset
	CacheStats() cache.Stats
}

// ClientCounter reports connected WebSocket clients.
type ClientCounter interface {
	ClientCount() int
}

// RuntimeSampler samples process runtime statistics.
// *infrastructure.SystemMetricsCollector implements it.
type RuntimeSampler interface {
	GetCurrentStats(ctx context.Context) *infrastructure.SystemStats
}

// BuildInfo identifies the running binary.
type BuildInfo struct {
	Version   string
	BuildTime string
	BuildID   string
	RepoURL   string
}

// HealthService provides health check functionality
type HealthService struct {
	build     BuildInfo
	store     DatasetStore
	hub       ClientCounter
	sampler   RuntimeSampler
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// SystemStats represents system statistics
type SystemStats struct {
	UptimeSeconds    float64                `json:"uptime_seconds"`
	Datasets         map[string]int         `json:"datasets"`
	Cache            cache.Stats            `json:"cache"`
	WebSocketClients int                    `json:"websocket_clients"`
	GoVersion        string                 `json:"go_version"`
	OS               string                 `json:"os"`
	Arch             string                 `json:"arch"`
	LastIngest       map[string]string      `json:"last_ingest,omitempty"`
	Sources          map[string]string      `json:"sources,omitempty"`
	Runtime          map[string]interface{} `json:"runtime,omitempty"`
}

// NewHealthService creates a health service. store and hub may be nil in
// tests; readiness then reports them as not ready.
func NewHealthService(build BuildInfo, store DatasetStore, hub ClientCounter, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("HealthService initialized",
		slog.String("version", build.Version),
		slog.String("build_time", build.BuildTime),
		slog.String("build_id", build.BuildID))

	return &HealthService{
		build:     build,
		store:     store,
		hub:       hub,
		startTime: time.Now(),
		logger:    logger,
	}
}

// WithRuntimeSampler makes SystemStats include a fresh runtime sample.
func (hs *HealthService) WithRuntimeSampler(sampler RuntimeSampler) *HealthService {
	hs.sampler = sampler
	return hs
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "performing health check",
		slog.String("uptime", time.Since(hs.startTime).String()))

	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.build.Version,
	}
}

// ReadinessCheck returns readiness status
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.build.Version,
		Services:  make(map[string]interface{}),
	}

	status.Services["datasets"] = hs.checkDatasetHealth()
	status.Services["cache"] = hs.checkCacheHealth()
	status.Services["websocket"] = hs.checkWebSocketHealth()

	for _, service := range status.Services {
		if sh, ok := service.(ServiceHealth); ok && sh.Status != "ready" {
			status.Status = "not_ready"
			break
		}
	}

	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.build.Version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	result := map[string]interface{}{
		"version":      hs.build.Version,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}

	if hs.build.RepoURL != "" {
		result["repo_url"] = hs.build.RepoURL
	}
	if hs.build.BuildTime != "" {
		result["build_time"] = hs.build.BuildTime
	}
	if hs.build.BuildID != "" {
		result["build_id"] = hs.build.BuildID
	}

	return result
}

// SystemStats returns system statistics
func (hs *HealthService) SystemStats(ctx context.Context) SystemStats {
	stats := SystemStats{
		UptimeSeconds: time.Since(hs.startTime).Seconds(),
		Datasets:      make(map[string]int),
		GoVersion:     runtime.Version(),
		OS:            runtime.GOOS,
		Arch:          runtime.GOARCH,
	}

	if hs.store != nil {
		stats.Cache = hs.store.CacheStats()
		for _, ds := range hs.store.Datasets() {
			slug := ds.Kind.Slug()
			stats.Datasets[slug] = ds.Len()
			if stats.LastIngest == nil {
				stats.LastIngest = make(map[string]string)
				stats.Sources = make(map[string]string)
			}
			stats.LastIngest[slug] = ds.IngestedAt.Format(time.RFC3339)
			stats.Sources[slug] = string(ds.Source)
		}
	}
	if hs.hub != nil {
		stats.WebSocketClients = hs.hub.ClientCount()
	}
	if hs.sampler != nil {
		if sample := hs.sampler.GetCurrentStats(ctx); sample != nil {
			stats.Runtime = sample.FormatStats()
		}
	}

	return stats
}

func (hs *HealthService) checkDatasetHealth() ServiceHealth {
	if hs.store == nil {
		return ServiceHealth{Status: "not_ready", Message: "dashboard service not initialized"}
	}

	loaded := len(hs.store.Datasets())
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d of %d datasets loaded", loaded, len(domain.SheetKinds())),
	}
}

func (hs *HealthService) checkCacheHealth() ServiceHealth {
	if hs.store == nil {
		return ServiceHealth{Status: "not_ready", Message: "view cache not initialized"}
	}

	stats := hs.store.CacheStats()
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%s cache, %d entries", stats.Backend, stats.Entries),
	}
}

func (hs *HealthService) checkWebSocketHealth() ServiceHealth {
	if hs.hub == nil {
		return ServiceHealth{Status: "not_ready", Message: "websocket hub not initialized"}
	}

	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d clients connected", hs.hub.ClientCount()),
		Uptime:  time.Since(hs.startTime).String(),
	}
}

// GetDetailedHealth returns comprehensive health information
func (hs *HealthService) GetDetailedHealth(ctx context.Context) map[string]interface{} {
	return map[string]interface{}{
		"health":    hs.HealthCheck(ctx),
		"readiness": hs.ReadinessCheck(ctx),
		"liveness":  hs.LivenessCheck(ctx),
		"stats":     hs.SystemStats(ctx),
	}
}

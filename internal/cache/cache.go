// Package cache memoizes computed dashboard views. Values are stored as JSON
// so the in-process and Redis backends behave the same.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"opspulse/internal/config"
	apperrors "opspulse/internal/errors"
)

// Cache is a keyed view store. Get reports a miss as (false, nil).
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	// Invalidate drops every key that starts with prefix.
	Invalidate(ctx context.Context, prefix string) error
	Stats() Stats
	Close() error
}

// Stats is a point-in-time snapshot of cache usage.
type Stats struct {
	Backend   string  `json:"backend"`
	Entries   int     `json:"entries"`
	MaxSize   int     `json:"max_size,omitempty"`
	HitCount  int64   `json:"hit_count"`
	MissCount int64   `json:"miss_count"`
	HitRatio  float64 `json:"hit_ratio"`
	TTL       float64 `json:"ttl_seconds"`
}

func hitRatio(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// New builds the backend named by cfg.Backend.
func New(ctx context.Context, cfg config.CacheConfig, logger *slog.Logger) (Cache, error) {
	switch strings.ToLower(cfg.Backend) {
	case config.CacheBackendMemory, "":
		return NewMemory(cfg.TTL, cfg.MaxEntries), nil
	case config.CacheBackendRedis:
		return NewRedis(ctx, cfg, logger)
	case config.CacheBackendNone:
		return Nop{}, nil
	default:
		return nil, apperrors.NewConfigError(fmt.Sprintf("unknown cache backend %q", cfg.Backend), nil)
	}
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string, any) (bool, error) { return false, nil }
func (Nop) Set(context.Context, string, any) error         { return nil }
func (Nop) Invalidate(context.Context, string) error       { return nil }
func (Nop) Stats() Stats                                   { return Stats{Backend: config.CacheBackendNone} }
func (Nop) Close() error                                   { return nil }

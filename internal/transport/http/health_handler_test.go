package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "opspulse/internal/errors"
	"opspulse/internal/services"
	"opspulse/internal/shared/testutil"
)

func TestHealthHandler(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	svc := services.NewHealthService(services.BuildInfo{Version: "1.0.0"}, nil, nil, logger)
	h := NewHealthHandler(svc, logger)

	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus int
		wantKey    string
		wantValue  interface{}
	}{
		{"health", h.HealthCheck, http.StatusOK, "status", "ok"},
		{"liveness", h.LivenessCheck, http.StatusOK, "status", "alive"},
		{"readiness without dependencies", h.ReadinessCheck, http.StatusServiceUnavailable, "status", "not_ready"},
		{"version", h.Version, http.StatusOK, "version", "1.0.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.handler(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantValue, decode(t, rec)[tt.wantKey])
		})
	}

	rec := httptest.NewRecorder()
	h.Stats(rec, httptest.NewRequest(http.MethodGet, "/api/health/stats", nil))
	assert.Contains(t, decode(t, rec), "stats")
}

func TestMetricsHandler(t *testing.T) {
	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "opspulse_test_total", Help: "test counter"})
	registry.MustRegister(counter)
	counter.Add(3)

	rec := httptest.NewRecorder()
	NewMetricsHandler(registry).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "opspulse_test_total 3")
}

func TestClientLogHandler(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	h := NewClientLogHandler(logger, apierrors.NewErrorHandler(logger, false))

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"error entry", `{"level":"ERROR","message":"chart failed","source":"trend-panel","data":{"points":0}}`, http.StatusAccepted},
		{"default level", `{"message":"loaded"}`, http.StatusAccepted},
		{"unknown level", `{"level":"fatal","message":"x"}`, http.StatusBadRequest},
		{"missing message", `{"level":"info"}`, http.StatusBadRequest},
		{"malformed json", `{`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Handle(rec, httptest.NewRequest(http.MethodPost, "/api/logs", strings.NewReader(tt.body)))
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}

	assert.True(t, logs.ContainsMessage("chart failed"))
	assert.True(t, logs.ContainsAttr("client_source", "trend-panel"))
}

package app

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.opentelemetry.io/otel/metric/noop"

	"opspulse/internal/cache"
	"opspulse/internal/config"
	"opspulse/internal/dataprocessing"
	apierrors "opspulse/internal/errors"
	"opspulse/internal/files"
	"opspulse/internal/infrastructure"
	customMiddleware "opspulse/internal/middleware"
	"opspulse/internal/services"
	"opspulse/internal/source"
	handlers "opspulse/internal/transport/http"
	ws "opspulse/internal/websocket"
	"opspulse/pkg/contracts/domain"
)

const (
	REPO_URL = "https://github.com/opspulse/opspulse"

	// systemMetricsInterval is how often runtime gauges are sampled.
	systemMetricsInterval = 15 * time.Second
)

// Set with -ldflags "-X opspulse/internal/app.NAME=value" by build.go.
var (
	VERSION   = config.AppVersion
	BuildTime string
	BuildID   string
)

func init() {
	if BuildTime == "" {
		BuildTime = time.Now().Format(time.RFC3339)
	}
	if BuildID == "" {
		BuildID = generateBuildID()
	}
}

func generateBuildID() string {
	h := sha256.New()
	h.Write([]byte(VERSION))
	h.Write([]byte(time.Now().Format("2006-01-02")))
	return fmt.Sprintf("%x", h.Sum(nil))[:12]
}

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
	SystemMetrics *infrastructure.SystemMetricsCollector
	Cache         cache.Cache
	Source        source.RowSource
	WebSocketHub  *ws.Hub
	Dashboard     *services.DashboardService
	HealthService *services.HealthService
	ErrorHandler  *apierrors.ErrorHandler
}

// NewApplication creates a new application instance with dependency
// injection. A nil cfg loads the configuration from file and environment.
func NewApplication(cfg *config.Config) (*Application, error) {
	if cfg == nil {
		loaded, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = loaded
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", VERSION),
		slog.String("build_id", BuildID))

	paths, err := config.GetPaths(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to get paths: %w", err)
	}

	logger.Info("Ensuring required directories exist")
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution(logger)

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: otelProviders,
		ErrorHandler:  apierrors.NewErrorHandler(logger, false),
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	ctx := context.Background()

	meter := a.OTelProviders.Meter
	if meter == nil {
		meter = noop.NewMeterProvider().Meter(infrastructure.MeterName)
	}

	metrics, err := infrastructure.CreateBusinessMetrics(meter)
	if err != nil {
		return fmt.Errorf("failed to create business metrics: %w", err)
	}
	a.Metrics = metrics

	collector, err := infrastructure.NewSystemMetricsCollector(meter, systemMetricsInterval)
	if err != nil {
		return fmt.Errorf("failed to create system metrics collector: %w", err)
	}
	a.SystemMetrics = collector

	viewCache, err := cache.New(ctx, a.Config.Cache, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize view cache: %w", err)
	}
	a.Cache = viewCache

	taxonomy := dataprocessing.DefaultHeaderTaxonomy()
	if a.Paths.TaxonomyFile != "" {
		taxonomy, err = dataprocessing.LoadHeaderTaxonomy(a.Paths.TaxonomyFile)
		if err != nil {
			return fmt.Errorf("failed to load header taxonomy: %w", err)
		}
		a.Logger.Info("Header taxonomy loaded", slog.String("path", a.Paths.TaxonomyFile))
	}
	ingestor := dataprocessing.NewIngestor(taxonomy, a.Logger)

	if a.Config.Sheets.Enabled {
		sheetsCfg := a.Config.Sheets
		sheetsCfg.CredentialsFile = a.Paths.CredentialsFile
		sheets, err := source.NewSheetsSource(ctx, sheetsCfg, a.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize sheets source: %w", err)
		}
		a.Source = sheets
	}

	hub := ws.NewHub(a.Logger, a.Metrics)
	hub.Start()
	a.WebSocketHub = hub

	a.Dashboard = services.NewDashboardService(ingestor, a.Source, a.Cache, hub, a.Metrics, a.Logger)

	a.HealthService = services.NewHealthService(services.BuildInfo{
		Version:   VERSION,
		BuildTime: BuildTime,
		BuildID:   BuildID,
		RepoURL:   REPO_URL,
	}, a.Dashboard, hub, a.Logger).WithRuntimeSampler(a.SystemMetrics)

	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Nothing here may wrap the ResponseWriter or /ws cannot hijack it.
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.StripSlashes)

	upgrader := ws.Upgrader(a.Config.WebSocket, a.Config.Security.AllowedOrigins)
	r.With(customMiddleware.WebSocketTraceMiddleware(a.Logger)).HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		if err := ws.ServeWS(a.WebSocketHub, upgrader, a.Config.WebSocket, w, r); err != nil {
			a.Logger.WarnContext(r.Context(), "WebSocket upgrade failed",
				slog.String("error", err.Error()),
				slog.String("remote_addr", r.RemoteAddr))
		}
	})

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.NewOTelMiddleware(a.Metrics, a.Logger).Handler)
		r.Use(customMiddleware.BusinessMetricsMiddleware(a.Metrics))
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.ErrorHandler))
		r.Use(customMiddleware.SecurityHeaders)
		r.Use(customMiddleware.Compress(5, "application/json", "text/csv"))

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.getCORSConfig()))
		}

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
				a.ErrorHandler,
			).Handler)
		}

		r.Use(customMiddleware.AuditLog(a.Logger))

		a.setupAPIRoutes(r)
	})

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	} else {
		r.Handle("/metrics", handlers.NewMetricsHandler(nil))
	}

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout))

		healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/health/ready", healthHandler.ReadinessCheck)
		r.Get("/health/live", healthHandler.LivenessCheck)
		r.Get("/health/stats", healthHandler.Stats)
		r.Get("/version", healthHandler.Version)

		r.With(customMiddleware.ContentTypeValidator(a.ErrorHandler, "application/json")).
			Post("/logs", handlers.NewClientLogHandler(a.Logger, a.ErrorHandler).Handle)

		datasetHandler := handlers.NewDatasetHandler(a.Dashboard, a.Config.Ingest, a.Logger, a.ErrorHandler)
		r.Mount("/datasets", datasetHandler.Routes())
	})
}

// getCORSConfig returns CORS configuration based on the security section
func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	cfg := customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"X-Request-ID",
			"X-Requested-With",
		},
		ExposedHeaders: []string{
			"X-Request-ID",
			"Content-Disposition",
		},
		MaxAge: 300,
		Logger: a.Logger,
	}

	a.Logger.Info("CORS configured", slog.Any("allowed_origins", cfg.AllowedOrigins))
	return cfg
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Server.Addr(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start starts the application
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", VERSION),
		slog.String("address", a.Server.Addr),
		slog.String("cache", a.Cache.Stats().Backend),
		slog.Bool("sheets_enabled", a.Source != nil))

	go a.SystemMetrics.Start(ctx)

	a.preloadDatasets(ctx)

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			// Signal shutdown through context instead of os.Exit
			cancel()
		}
	}()

	if a.Source != nil {
		go a.initialSync(ctx)
	}

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", a.Server.Addr))

	return nil
}

// preloadDatasets loads the newest workbook of each kind found in the data
// directory. Unreadable workbooks are logged and skipped.
func (a *Application) preloadDatasets(ctx context.Context) {
	discovery := files.NewDiscovery(a.Paths.DataDir)
	for _, kind := range domain.SheetKinds() {
		latest, ok := discovery.LatestForKind("", kind)
		if !ok {
			continue
		}

		ds, err := a.Dashboard.LoadFile(ctx, kind, latest.Path)
		if err != nil {
			a.Logger.WarnContext(ctx, "Skipping workbook in data directory",
				slog.String("kind", kind.Slug()),
				slog.String("path", latest.Path),
				slog.String("error", err.Error()))
			continue
		}
		a.Logger.InfoContext(ctx, "Workbook preloaded",
			slog.String("kind", kind.Slug()),
			slog.String("path", latest.Path),
			slog.Int("tickets", ds.Len()))
	}
}

// initialSync loads both datasets from Google Sheets once at startup. A
// failure leaves the dashboard empty until the next upload or sync.
func (a *Application) initialSync(ctx context.Context) {
	syncCtx, cancel := context.WithTimeout(ctx, a.Config.Sheets.Timeout*time.Duration(len(domain.SheetKinds())))
	defer cancel()

	datasets, err := a.Dashboard.SyncAll(syncCtx)
	if err != nil {
		a.Logger.WarnContext(ctx, "Initial sheets sync failed", slog.String("error", err.Error()))
		return
	}
	a.Logger.InfoContext(ctx, "Initial sheets sync complete", slog.Int("datasets", len(datasets)))
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	a.SystemMetrics.Stop()
	a.WebSocketHub.Stop()

	if err := a.Cache.Close(); err != nil {
		a.Logger.ErrorContext(ctx, "Error closing view cache", slog.String("error", err.Error()))
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
		a.Logger.InfoContext(ctx, "Server stopped unexpectedly")
	}

	// The run context may already be cancelled.
	return a.Stop(context.Background())
}

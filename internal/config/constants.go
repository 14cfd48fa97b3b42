package config

import "time"

// Application constants
const (
	// Application Info
	AppName    = "opspulse"
	AppVersion = "1.0.0"

	// Rate Limiting
	DefaultRateLimit = 50 // requests per second
	DefaultBurstSize = 100

	// Network Timeouts
	DefaultRequestTimeout = 60 * time.Second
	DefaultSheetsTimeout  = 30 * time.Second
	WebSocketPingPeriod   = 30 * time.Second
	WebSocketPongWait     = 60 * time.Second

	// WebSocket Buffer Sizes
	WebSocketReadBufferSize  = 1024
	WebSocketWriteBufferSize = 1024

	// File Paths (relative to executable)
	DefaultDataDir         = "data"
	DefaultExportsDir      = "data/exports"
	DefaultLogsDir         = "logs"
	DefaultLogFile         = "logs/opspulse.log"
	DefaultCredentialsFile = "credentials.json"

	// Ingest
	DefaultMaxUploadBytes = 20 << 20 // 20MB

	// Google Sheets ranges, named after the form exports' tabs
	DefaultFuelSheetRange       = "Fuel - Issue"
	DefaultAfterSalesSheetRange = "After Sales"

	// Cache
	DefaultViewCacheTTL = 5 * time.Minute
	CacheBackendMemory  = "memory"
	CacheBackendRedis   = "redis"
	CacheBackendNone    = "none"

	// Telemetry
	TraceExporterStdout = "stdout"
	TraceExporterNone   = "none"

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

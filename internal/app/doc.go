// Package app wires the opspulse server together and owns its lifecycle.
//
// NewApplication builds every component from a *config.Config in a fixed
// order:
//
//  1. Logger, resolved paths and OpenTelemetry providers
//  2. Business and runtime metrics
//  3. View cache (memory, redis or none)
//  4. Header taxonomy and ingestor
//  5. Google Sheets row source, when enabled
//  6. WebSocket hub, dashboard service and health service
//  7. Router and HTTP server
//
// The router keeps /ws outside the main middleware group so the connection can
// be hijacked. Everything else runs through tracing, structured logging,
// panic recovery, security headers, CORS, rate limiting and audit logging.
//
// Typical use from a main package:
//
//	application, err := app.NewApplication(nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := application.Run(); err != nil {
//	    log.Fatal(err)
//	}
package app

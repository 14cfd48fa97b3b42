// Package services holds the business logic between the HTTP handlers and the
// ingestion and analytics packages.
//
// DashboardService owns the active dataset of each sheet kind. Uploads, local
// files and Google Sheets syncs all go through the same ingest path, which
// normalizes the sheet, swaps the dataset in wholesale, drops the cached views
// of that kind and broadcasts a refresh event.
//
// Views are computed on demand from the active dataset and the request's
// filter criteria, then memoized under
//
//	<kind slug>:<dataset fingerprint>:<view>:<criteria key>
//
// so a cache entry can never outlive the data it was computed from.
//
// HealthService reports liveness, readiness and runtime statistics.
package services

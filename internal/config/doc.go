// Package config loads the opspulse configuration.
//
// # Configuration Sources
//
// Values are layered in increasing order of precedence:
//
//  1. Default()
//  2. A YAML file (OPS_CONFIG_FILE, or config.yaml / configs/config.yaml)
//  3. Environment variables prefixed with OPS_
//
// Environment variable names follow the struct layout, for example:
//
//	OPS_SERVER_PORT=8080
//	OPS_SECURITY_ALLOWED_ORIGINS=http://localhost:3000,https://ops.example.com
//	OPS_CACHE_BACKEND=redis
//	OPS_CACHE_REDIS_ADDR=redis:6379
//	OPS_SHEETS_ENABLED=true
//	OPS_SHEETS_FUEL_SPREADSHEET_ID=1AbC...
//	OPS_INGEST_TAXONOMY_FILE=headers.yaml
//
// # Paths
//
// Relative paths are resolved against the executable directory by GetPaths so
// the binaries behave the same regardless of the working directory.
package config

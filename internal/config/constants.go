package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Background job intervals
const CleanupJobInterval = 5 * time.Minute

// Reference data cache lifetimes. Fixed per collection, not tunable per call.
const (
	PropertyCacheTTL = 5 * time.Minute
	FAQCacheTTL      = 10 * time.Minute
)

// Sign-in link rate limits
const (
	LinkRequestLimit  = 5
	LinkRequestWindow = 15 * time.Minute
	LoginIPLimit      = 10
	LoginIPWindow     = time.Minute
)

// Upload limits
const MaxUploadSize = 10 << 20

// Lifetime of the signed link returned for a tenant document
const DocumentURLTTL = 15 * time.Minute

// Tenant gate lookup tokens kept in memory
const GateSequencerSize = 4096

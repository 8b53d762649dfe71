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

// ExpiredTokenRetention is how long expired share tokens are kept before the
// cleanup job deletes them. Recently expired tokens must stay queryable so
// guest validation can report TOKEN_EXPIRED instead of TOKEN_NOT_FOUND.
const ExpiredTokenRetention = 30 * 24 * time.Hour

// Share link durations accepted at issuance, in minutes.
var AllowedShareDurations = []int{5, 15, 30, 60, 180}

// Guest endpoint rate limits (per IP).
const (
	GuestValidateLimit  = 30
	GuestValidateWindow = time.Minute
)

// Default rate limiting for authenticated endpoints
const DefaultRateLimitPerMin = 60

// Maximum upload size for clinical documents (20MB).
const MaxDocumentSize = 20 << 20

// AssistantHistoryLimit is how many prior chat messages are sent as context.
const AssistantHistoryLimit = 20

// Registry client timeout
const RegistryTimeout = 10 * time.Second

package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 10
	DBMaxIdleConns    = 2
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 30 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerWriteTimeout    = 35 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 15 * time.Second
)

// Database ping timeout for startup checks
const DBPingTimeout = 5 * time.Second

// Outbound call to the company jobs endpoint
const JobsClientTimeout = 8 * time.Second

// Admin session cookie lifetime. The token itself carries no expiry.
const AdminSessionMaxAge = 8 * time.Hour

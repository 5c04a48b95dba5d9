package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Fetcher   FetcherConfig
	Store     StoreConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Worker    WorkerConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Proxy is an optional proxy URL for all navigations.
	Proxy string
}

// FetcherConfig controls page fetching behavior.
type FetcherConfig struct {
	// NavTimeout is the maximum duration for a single page navigation.
	NavTimeout time.Duration // default: 15s

	// MarkerTimeout bounds the wait for the result-container selector
	// after navigation. On expiry the partial DOM is used as-is.
	MarkerTimeout time.Duration // default: 8s
}

// StoreConfig controls the Postgres connection.
type StoreConfig struct {
	// DatabaseURL is the pgx connection string. Required.
	DatabaseURL string

	// MaxConns is the connection pool size.
	MaxConns int // default: 4
}

// AuthConfig controls bearer-token authentication.
type AuthConfig struct {
	// Token is the shared bearer secret. Empty disables the gate.
	Token string
}

// RateLimitConfig controls per-identity rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per caller.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per caller.
	Burst int // default: 10
}

// WorkerConfig controls the scrape worker pool.
type WorkerConfig struct {
	// PoolSize is the number of concurrent scrape runs.
	PoolSize int // default: 4

	// QueueSize is the buffered backlog of pending runs.
	QueueSize int // default: 32
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("KLIPING_HOST", "0.0.0.0"),
			Port: envIntOr("KLIPING_PORT", 8080),
			Mode: envOr("KLIPING_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:   envBoolOr("KLIPING_HEADLESS", true),
			NoSandbox:  envBoolOr("KLIPING_NO_SANDBOX", false),
			BrowserBin: os.Getenv("KLIPING_BROWSER_BIN"),
			Proxy:      os.Getenv("KLIPING_PROXY"),
		},
		Fetcher: FetcherConfig{
			NavTimeout:    envDurationOr("KLIPING_NAV_TIMEOUT", 15*time.Second),
			MarkerTimeout: envDurationOr("KLIPING_MARKER_TIMEOUT", 8*time.Second),
		},
		Store: StoreConfig{
			DatabaseURL: os.Getenv("KLIPING_DATABASE_URL"),
			MaxConns:    envIntOr("KLIPING_DB_MAX_CONNS", 4),
		},
		Auth: AuthConfig{
			Token: os.Getenv("KLIPING_AUTH_TOKEN"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("KLIPING_RATE_RPS", 5.0),
			Burst:             envIntOr("KLIPING_RATE_BURST", 10),
		},
		Worker: WorkerConfig{
			PoolSize:  envIntOr("KLIPING_WORKERS", 4),
			QueueSize: envIntOr("KLIPING_QUEUE_SIZE", 32),
		},
		Log: LogConfig{
			Level:  envOr("KLIPING_LOG_LEVEL", "info"),
			Format: envOr("KLIPING_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

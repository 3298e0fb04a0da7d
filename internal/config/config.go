// Package config resolves process configuration from the environment,
// optionally seeded from a .env file. Everything is read once at
// startup.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	BrapiBaseURL string
	BrapiToken   string
	YahooBaseURL string

	// DefaultProvider is the global fallback when a route has no
	// configured default and no explicit override is requested.
	DefaultProvider string

	RequestTimeout time.Duration
	LogLevel       slog.Level
	Debug          bool
}

// Load reads the environment. A .env file is honored when present but
// never required. A missing BRAPI token is not fatal here; the calls
// that need it fail at request time instead.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:            getenv("PORT", "8000"),
		BrapiBaseURL:    getenv("BRAPI_API_URL", "https://brapi.dev/api"),
		BrapiToken:      os.Getenv("BRAPI_TOKEN"),
		YahooBaseURL:    getenv("YAHOO_API_URL", "https://query1.finance.yahoo.com"),
		DefaultProvider: getenv("DEFAULT_PROVIDER", "brapi"),
		RequestTimeout:  time.Duration(getenvInt("REQUEST_TIMEOUT_SEC", 10)) * time.Second,
		LogLevel:        parseLevel(getenv("LOG_LEVEL", "info")),
		Debug:           getenvBool("DEBUG", false),
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if x, err := strconv.Atoi(v); err == nil && x > 0 {
			return x
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "y":
			return true
		case "0", "false", "no", "n":
			return false
		}
	}
	return def
}

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"passenger-rights-bot/internal/logger"
	"passenger-rights-bot/internal/resolver"
)

type Config struct {
	Port          string
	AllowedOrigin string
	AppEnv        string
	// Logging
	LogLevel string
	LogFile  string
	// Rule table
	CatalogFile   string
	BaggagePolicy resolver.Policy
	// Sessions live in memory and expire after this much idle time
	SessionTTL    time.Duration
	SecureCookies bool
	// Optional Postgres DSN for resolution stats
	DatabaseURL string
}

func Load() Config {
	_ = godotenv.Load()
	cfg := Config{
		Port:          getEnvDefault("PORT", "8080"),
		AllowedOrigin: getEnvDefault("ALLOWED_ORIGIN", "*"),
		AppEnv:        getEnvDefault("APP_ENV", "development"),
		LogLevel:      getEnvDefault("LOG_LEVEL", "info"),
		LogFile:       os.Getenv("LOG_FILE"),
		CatalogFile:   os.Getenv("CATALOG_FILE"),
		BaggagePolicy: getEnvPolicyDefault("BAGGAGE_POLICY", resolver.DefaultPolicy),
		SessionTTL:    time.Duration(getEnvIntDefault("SESSION_TTL_MINUTES", 15)) * time.Minute,
		SecureCookies: getEnvBoolDefault("COOKIE_SECURE", false),
		DatabaseURL:   os.Getenv("DB_URL"),
	}
	if cfg.SessionTTL <= 0 {
		logger.Warn(logger.Fields{"ttl": cfg.SessionTTL.String()}, "SESSION_TTL_MINUTES must be positive; using 15")
		cfg.SessionTTL = 15 * time.Minute
	}
	return cfg
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvIntDefault(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		logger.Warn(logger.Fields{"key": key, "value": v}, "ignoring non-numeric value")
	}
	return def
}

func getEnvBoolDefault(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getEnvPolicyDefault(key string, def resolver.Policy) resolver.Policy {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	p, err := resolver.ParsePolicy(v)
	if err != nil {
		logger.Warn(logger.Fields{"key": key, "value": v}, "unknown baggage policy; using default")
		return def
	}
	return p
}

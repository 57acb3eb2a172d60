package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"passenger-rights-bot/internal/resolver"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "ALLOWED_ORIGIN", "APP_ENV", "LOG_LEVEL", "LOG_FILE", "CATALOG_FILE",
		"BAGGAGE_POLICY", "SESSION_TTL_MINUTES", "COOKIE_SECURE", "DB_URL",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "*", cfg.AllowedOrigin)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, resolver.PolicyLenient, cfg.BaggagePolicy)
	assert.Equal(t, 15*time.Minute, cfg.SessionTTL)
	assert.False(t, cfg.SecureCookies)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("BAGGAGE_POLICY", "STRICT")
	t.Setenv("SESSION_TTL_MINUTES", "30")
	t.Setenv("COOKIE_SECURE", "yes")
	t.Setenv("DB_URL", "postgres://localhost/rights")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, resolver.PolicyStrict, cfg.BaggagePolicy)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.True(t, cfg.SecureCookies)
	assert.Equal(t, "postgres://localhost/rights", cfg.DatabaseURL)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("BAGGAGE_POLICY", "whatever")
	t.Setenv("SESSION_TTL_MINUTES", "-4")

	cfg := Load()
	assert.Equal(t, resolver.DefaultPolicy, cfg.BaggagePolicy)
	assert.Equal(t, 15*time.Minute, cfg.SessionTTL)
}

func TestGetEnvIntDefault(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		expected int
	}{
		{"parses integer", "42", 42},
		{"uses default for empty", "", 10},
		{"uses default for non-numeric", "abc", 10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("TEST_INT", tc.envValue)
			assert.Equal(t, tc.expected, getEnvIntDefault("TEST_INT", 10))
		})
	}
}

func TestGetEnvBoolDefault(t *testing.T) {
	tests := []struct {
		envValue string
		def      bool
		expected bool
	}{
		{"on", false, true},
		{"0", true, false},
		{"maybe", true, true},
		{"", false, false},
	}

	for _, tc := range tests {
		t.Run(tc.envValue, func(t *testing.T) {
			t.Setenv("TEST_BOOL", tc.envValue)
			assert.Equal(t, tc.expected, getEnvBoolDefault("TEST_BOOL", tc.def))
		})
	}
}

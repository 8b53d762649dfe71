package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Port:          8080,
		DatabaseURL:   "postgres://localhost/portal",
		RedisURL:      "redis://localhost:6379",
		PublicBaseURL: "https://portal.example.com",
		JWTSecret:     strings.Repeat("s", 48),
		AIGatewayURL:  "https://gateway.example.com",
		AIGatewayKey:  "key",
		S3Bucket:      "portal-docs",
	}
}

func TestValidateAcceptsGoodProductionConfig(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate(true))
}

func TestValidateRejectsShortSecretInProduction(t *testing.T) {
	cfg := validConfig()
	cfg.JWTSecret = "short"

	err := cfg.Validate(true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestValidateRejectsWeakSecretInProduction(t *testing.T) {
	cfg := validConfig()
	cfg.JWTSecret = "change-me"

	err := cfg.Validate(true)
	require.Error(t, err)
}

func TestValidateAllowsWeakSecretInDevelopment(t *testing.T) {
	cfg := validConfig()
	cfg.JWTSecret = "dev"

	require.NoError(t, cfg.Validate(false))
}

func TestValidateRejectsRelativeBaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.PublicBaseURL = "portal.example.com"

	err := cfg.Validate(false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PUBLIC_BASE_URL")
}

func TestAddr(t *testing.T) {
	cfg := &Config{Port: 9000}
	assert.Equal(t, ":9000", cfg.Addr())
}

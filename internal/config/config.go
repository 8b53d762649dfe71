package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "admin", "password",
}

type Config struct {
	Port        int    `env:"PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	RedisURL    string `env:"REDIS_URL,required"`

	// PublicBaseURL is the origin guests open share links against, e.g.
	// https://portal.example.com. Guest URLs are PublicBaseURL + /guest/<token>.
	PublicBaseURL string `env:"PUBLIC_BASE_URL,required"`

	JWTSecret     string `env:"JWT_SECRET,required"`
	EncryptionKey string `env:"ENCRYPTION_KEY"`

	AIGatewayURL string `env:"AI_GATEWAY_URL,required"`
	AIGatewayKey string `env:"AI_GATEWAY_KEY,required"`
	AIModel      string `env:"AI_MODEL" envDefault:"gpt-4o-mini"`

	S3Bucket   string `env:"S3_BUCKET,required"`
	S3Region   string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Endpoint string `env:"S3_ENDPOINT"`

	RethusAPIURL  string `env:"RETHUS_API_URL"`
	RethusAPIKey  string `env:"RETHUS_API_KEY"`
	TopusAPIURL   string `env:"TOPUS_API_URL"`
	TopusAPIKey   string `env:"TOPUS_API_KEY"`
	HiSmartAPIURL string `env:"HISMART_API_URL"`
	HiSmartAPIKey string `env:"HISMART_API_KEY"`

	// CORSOrigins restricts browser callers of the authenticated API. The
	// guest endpoints always allow any origin. Empty means allow all.
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:","`

	AITimeoutSeconds int    `env:"AI_TIMEOUT_SECONDS" envDefault:"60"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) AITimeout() time.Duration {
	return time.Duration(c.AITimeoutSeconds) * time.Second
}

func (c *Config) Validate(isProduction bool) error {
	if err := validateSecret("JWT_SECRET", c.JWTSecret, isProduction); err != nil {
		return err
	}

	if !strings.HasPrefix(c.PublicBaseURL, "http://") && !strings.HasPrefix(c.PublicBaseURL, "https://") {
		return fmt.Errorf("PUBLIC_BASE_URL must be an absolute http(s) URL")
	}

	if isProduction {
		if c.EncryptionKey == "" {
			log.Warn().Msg("ENCRYPTION_KEY is empty in production: chat messages will not be encrypted at rest")
		}
		if c.RethusAPIKey == "" {
			log.Warn().Msg("RETHUS_API_KEY is empty in production: professional registry validation disabled")
		}
		if strings.HasPrefix(c.PublicBaseURL, "http://") {
			log.Warn().Msg("PUBLIC_BASE_URL uses http:// in production: share links will not be TLS-protected")
		}
	}

	return nil
}

func validateSecret(name, value string, isProduction bool) error {
	if !isProduction {
		return nil
	}
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 characters in production (generate with: openssl rand -base64 32)", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret in production", name)
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

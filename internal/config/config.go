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
	Port               int    `env:"PORT" envDefault:"8080"`
	DatabaseURL        string `env:"DATABASE_URL,required"`
	RedisURL           string `env:"REDIS_URL,required"`
	LogLevel           string `env:"LOG_LEVEL" envDefault:"info"`
	PublicBaseURL      string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`
	StaticDir          string `env:"STATIC_DIR" envDefault:"static/site"`
	SessionSecret      string `env:"SESSION_SECRET"`
	LinkTokenSecret    string `env:"LINK_TOKEN_SECRET"`
	LinkTTLSeconds     int    `env:"LINK_TTL_SECONDS" envDefault:"3600"`
	SessionTTLHours    int    `env:"SESSION_TTL_HOURS" envDefault:"168"`
	AdminPasswordHash  string `env:"ADMIN_PASSWORD_HASH"`
	AdminSessionSecret string `env:"ADMIN_SESSION_SECRET"`
	SendGridAPIKey     string `env:"SENDGRID_API_KEY"`
	MailFromAddress    string `env:"MAIL_FROM_ADDRESS" envDefault:"hello@colivhub.example"`
	MailFromName       string `env:"MAIL_FROM_NAME" envDefault:"Coliv Hub"`
	StorageBucket      string `env:"STORAGE_BUCKET"`
	StorageRegion      string `env:"STORAGE_REGION" envDefault:"eu-west-3"`
	StorageEndpoint    string `env:"STORAGE_ENDPOINT"`
	StoragePublicURL   string `env:"STORAGE_PUBLIC_URL"`
}

func (c *Config) LinkTTL() time.Duration {
	return time.Duration(c.LinkTTLSeconds) * time.Second
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// StorageEnabled reports whether uploads can be served.
func (c *Config) StorageEnabled() bool {
	return c.StorageBucket != ""
}

func (c *Config) Validate(isProduction bool) error {
	if c.AdminPasswordHash != "" {
		if !strings.HasPrefix(c.AdminPasswordHash, "$2a$") &&
			!strings.HasPrefix(c.AdminPasswordHash, "$2b$") &&
			!strings.HasPrefix(c.AdminPasswordHash, "$2y$") {
			return fmt.Errorf("ADMIN_PASSWORD_HASH must be a bcrypt hash (generate with: go run scripts/hash-password.go <password>)")
		}
	}

	if c.LinkTTLSeconds <= 0 {
		return fmt.Errorf("LINK_TTL_SECONDS must be positive")
	}
	if c.SessionTTLHours <= 0 {
		return fmt.Errorf("SESSION_TTL_HOURS must be positive")
	}

	if isProduction {
		if err := validateSecret("SESSION_SECRET", c.SessionSecret); err != nil {
			return err
		}
		if err := validateSecret("LINK_TOKEN_SECRET", c.LinkTokenSecret); err != nil {
			return err
		}
		if err := validateSecret("ADMIN_SESSION_SECRET", c.AdminSessionSecret); err != nil {
			return err
		}

		if c.SendGridAPIKey == "" {
			log.Warn().Msg("SENDGRID_API_KEY is empty in production: sign-in links will only be logged")
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
		if !c.StorageEnabled() {
			log.Warn().Msg("STORAGE_BUCKET is empty in production: uploads are disabled")
		}
	}

	return nil
}

func validateSecret(name, value string) error {
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

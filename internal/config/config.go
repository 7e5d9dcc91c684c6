package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/ovaphlow/pitchfork/service-steamlink/internal/auth"
)

// Config holds all application configuration.
type Config struct {
	Port int `env:"PORT" envDefault:"3000"`

	DiscordClientID     string `env:"DISCORD_CLIENT_ID"`
	DiscordClientSecret string `env:"DISCORD_CLIENT_SECRET"`
	DiscordCallbackURL  string `env:"DISCORD_CALLBACK_URL"`

	DatabaseURL string `env:"DATABASE_URL"`

	SessionSecret string        `env:"SESSION_SECRET"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	CookieSecure  bool          `env:"COOKIE_SECURE" envDefault:"true"`

	// Sessions stay in memory when RedisAddr is empty.
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	LinkPolicy auth.Policy `env:"LINK_POLICY" envDefault:"permissive"`
}

// Load parses the environment. Call godotenv first to pick up a .env file.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate reports every missing or malformed setting at once.
func (c Config) Validate() error {
	var errs []error
	required := map[string]string{
		"DISCORD_CLIENT_ID":     c.DiscordClientID,
		"DISCORD_CLIENT_SECRET": c.DiscordClientSecret,
		"DISCORD_CALLBACK_URL":  c.DiscordCallbackURL,
		"DATABASE_URL":          c.DatabaseURL,
		"SESSION_SECRET":        c.SessionSecret,
	}
	for _, name := range []string{"DISCORD_CLIENT_ID", "DISCORD_CLIENT_SECRET", "DISCORD_CALLBACK_URL", "DATABASE_URL", "SESSION_SECRET"} {
		if required[name] == "" {
			errs = append(errs, fmt.Errorf("%s is required", name))
		}
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT out of range: %d", c.Port))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	return errors.Join(errs...)
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf("0.0.0.0:%d", c.Port)
}

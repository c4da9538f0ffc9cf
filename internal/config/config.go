package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// minSecretLen is the shortest JWT secret accepted for HMAC-SHA256.
const minSecretLen = 32

// Config aggregates settings sourced from the environment and an optional
// .env file.
type Config struct {
	Port            int           `mapstructure:"port"`
	DatabasePath    string        `mapstructure:"database_path"`
	JWTSecret       string        `mapstructure:"jwt_secret"`
	BcryptCost      int           `mapstructure:"bcrypt_cost"`
	TokenTTL        time.Duration `mapstructure:"token_ttl"`
	LoginRateLimit  float64       `mapstructure:"login_rate_limit"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Load reads configuration from environment variables, after loading any
// .env files given (missing files are ignored).
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if err := bindEnv(v); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 3001)
	v.SetDefault("database_path", "jobly.sqlite")
	v.SetDefault("bcrypt_cost", 10)
	v.SetDefault("token_ttl", "0s")
	v.SetDefault("login_rate_limit", 5)
	v.SetDefault("max_body_bytes", 64*1024)
	v.SetDefault("shutdown_timeout", "5s")
}

func bindEnv(v *viper.Viper) error {
	mappings := map[string]string{
		"port":             "PORT",
		"database_path":    "DATABASE_PATH",
		"jwt_secret":       "JWT_SECRET",
		"bcrypt_cost":      "BCRYPT_COST",
		"token_ttl":        "TOKEN_TTL",
		"login_rate_limit": "LOGIN_RATE_LIMIT",
		"max_body_bytes":   "MAX_BODY_BYTES",
		"shutdown_timeout": "SHUTDOWN_TIMEOUT",
	}

	for key, env := range mappings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s to %s: %w", key, env, err)
		}
	}

	return nil
}

func validate(cfg Config) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return errors.New("port must be between 1 and 65535")
	}
	if cfg.DatabasePath == "" {
		return errors.New("database path is required")
	}
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is required")
	}
	if len(cfg.JWTSecret) < minSecretLen {
		return fmt.Errorf("JWT_SECRET must be at least %d characters for HMAC-SHA256 security", minSecretLen)
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 14 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 14, got %d", cfg.BcryptCost)
	}
	if cfg.TokenTTL < 0 {
		return errors.New("TOKEN_TTL must not be negative")
	}
	if cfg.LoginRateLimit < 0 {
		return errors.New("LOGIN_RATE_LIMIT must not be negative")
	}
	if cfg.MaxBodyBytes <= 0 {
		return errors.New("MAX_BODY_BYTES must be positive")
	}
	if cfg.ShutdownTimeout <= 0 {
		return errors.New("SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

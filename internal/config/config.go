package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	ServerPort   int
	DatabaseURL  string
	DatabaseName string // MongoDB database; ignored by SQL backends

	JWTSecret  string
	TokenTTL   time.Duration // 0 disables expiry
	BcryptCost int

	RedisAddr    string // empty disables the todo cache
	TodoCacheTTL time.Duration

	TokenSweepSchedule string // cron spec; empty disables the sweeper

	CORSAllowedOrigins []string

	LogLevel  string
	LogFormat string
	AppEnv    string
}

// Load reads .env when present, then environment variables, falling back to defaults.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}
	tokenTTL, err := time.ParseDuration(getEnv("TOKEN_TTL", "168h"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}
	bcryptCost, err := strconv.Atoi(getEnv("BCRYPT_COST", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid BCRYPT_COST: %w", err)
	}
	cacheTTL, err := time.ParseDuration(getEnv("TODO_CACHE_TTL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid TODO_CACHE_TTL: %w", err)
	}

	cfg := &Config{
		ServerPort:         port,
		DatabaseURL:        getEnv("DATABASE_URL", "./todo.db"),
		DatabaseName:       getEnv("DATABASE_NAME", "todoapp"),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		TokenTTL:           tokenTTL,
		BcryptCost:         bcryptCost,
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		TodoCacheTTL:       cacheTTL,
		TokenSweepSchedule: getEnv("TOKEN_SWEEP_SCHEDULE", "@every 1h"),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "console"),
		AppEnv:             getEnv("APP_ENV", "development"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProduction reports whether APP_ENV is "production".
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Validate checks values that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.IsProduction() && len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters in production")
	}
	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return fmt.Errorf("PORT %d out of range", c.ServerPort)
	}
	if c.TokenTTL < 0 {
		return errors.New("TOKEN_TTL must not be negative")
	}
	if c.TodoCacheTTL < 0 {
		return errors.New("TODO_CACHE_TTL must not be negative")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST %d out of range 4..31", c.BcryptCost)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be console or json, got %q", c.LogFormat)
	}
	return nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

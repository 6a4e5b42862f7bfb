// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port          string
	APIBasePath   string
	DatabaseURL   string
	RunMigrations bool

	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	PurchaseViewTTL time.Duration

	JWTSecret string
	JWTIssuer string

	GeneralErrorStatus int
	CORSOrigins        []string
	LogLevel           string
	LogFormat          string
	RateLimitRPS       float64
	RateLimitBurst     int
	GinMode            string
}

// Load reads the environment and validates the result. Every problem is
// reported in a single error.
func Load() (*Config, error) {
	var problems []string
	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		APIBasePath:   getEnv("API_BASE_PATH", "/api/v1/internal"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		JWTIssuer:     getEnv("JWT_ISSUER", ""),
		CORSOrigins:   parseCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "json"),
		GinMode:       getEnv("GIN_MODE", "release"),
	}

	var err error
	if cfg.RunMigrations, err = strconv.ParseBool(getEnv("RUN_MIGRATIONS", "true")); err != nil {
		problems = append(problems, "RUN_MIGRATIONS must be a boolean")
	}
	if cfg.RedisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0")); err != nil {
		problems = append(problems, "REDIS_DB must be an integer")
	}
	if cfg.PurchaseViewTTL, err = time.ParseDuration(getEnv("PURCHASE_VIEW_TTL", "10m")); err != nil {
		problems = append(problems, "PURCHASE_VIEW_TTL must be a duration such as 10m")
	}
	if cfg.GeneralErrorStatus, err = strconv.Atoi(getEnv("GENERAL_ERROR_STATUS", "500")); err != nil {
		problems = append(problems, "GENERAL_ERROR_STATUS must be an integer")
	}
	if cfg.RateLimitRPS, err = strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "20"), 64); err != nil {
		problems = append(problems, "RATE_LIMIT_RPS must be a number")
	}
	if cfg.RateLimitBurst, err = strconv.Atoi(getEnv("RATE_LIMIT_BURST", "40")); err != nil {
		problems = append(problems, "RATE_LIMIT_BURST must be an integer")
	}

	problems = append(problems, cfg.validate()...)
	if len(problems) > 0 {
		return nil, fmt.Errorf("configuration errors: %s", strings.Join(problems, "; "))
	}
	return cfg, nil
}

func (c *Config) validate() []string {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %q: must be between 1 and 65535", c.Port))
	}
	if c.DatabaseURL == "" {
		problems = append(problems, "DATABASE_URL is required")
	}
	if c.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET is required")
	}
	if !strings.HasPrefix(c.APIBasePath, "/") {
		problems = append(problems, "API_BASE_PATH must start with /")
	}
	if c.GeneralErrorStatus != 0 && (c.GeneralErrorStatus < 500 || c.GeneralErrorStatus > 599) {
		problems = append(problems, "GENERAL_ERROR_STATUS must be a 5xx status")
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		problems = append(problems, "rate limits must not be negative")
	}
	return problems
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c *Config) HTTPAddress() string {
	return ":" + c.Port
}

// CacheEnabled reports whether Redis is configured.
func (c *Config) CacheEnabled() bool {
	return c.RedisAddr != ""
}

// ErrorStatus is the status used for persistence and internal failures.
func (c *Config) ErrorStatus() int {
	if c.GeneralErrorStatus == 0 {
		return http.StatusInternalServerError
	}
	return c.GeneralErrorStatus
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func parseCSV(input string) []string {
	var out []string
	for _, part := range strings.Split(input, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

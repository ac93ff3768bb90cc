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

type Config struct {
	Env         string
	DatabaseURL string
	HTTPPort    string
	LogLevel    string

	JWTSecret  string
	SessionTTL time.Duration

	HarvestBaseURL   string
	HarvestToken     string
	HarvestAccountID string

	OpenAIKey     string
	OpenAIModel   string
	OpenAIBaseURL string

	ExternalTimeout time.Duration

	FrontendURL        string
	LoginRatePerMinute int
	LoginRateBurst     int
	SeedUsers          bool
	TrustProxy         bool
}

// Load reads .env (if any) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:              getenv("APP_ENV", "production"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		HTTPPort:         getenv("HTTP_PORT", "8080"),
		LogLevel:         getenv("LOG_LEVEL", "info"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		HarvestBaseURL:   getenv("HARVEST_BASE_URL", "https://api.harvestapp.com/v2"),
		HarvestToken:     os.Getenv("HARVEST_ACCESS_TOKEN"),
		HarvestAccountID: os.Getenv("HARVEST_ACCOUNT_ID"),
		OpenAIKey:        os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:      getenv("OPENAI_MODEL", "gpt-4"),
		OpenAIBaseURL:    os.Getenv("OPENAI_BASE_URL"),
		FrontendURL:      getenv("FRONTEND_URL", "http://localhost:3000"),
	}

	var err error
	if cfg.SessionTTL, err = durationEnv("SESSION_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.ExternalTimeout, err = durationEnv("EXTERNAL_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.LoginRatePerMinute, err = intEnv("LOGIN_RATE_PER_MINUTE", 10); err != nil {
		return nil, err
	}
	if cfg.LoginRateBurst, err = intEnv("LOGIN_RATE_BURST", 5); err != nil {
		return nil, err
	}
	if cfg.SeedUsers, err = boolEnv("SEED_USERS", true); err != nil {
		return nil, err
	}
	if cfg.TrustProxy, err = boolEnv("TRUST_PROXY", false); err != nil {
		return nil, err
	}

	if cfg.JWTSecret == "" {
		if !cfg.Development() {
			return nil, errors.New("JWT_SECRET is not set")
		}
		cfg.JWTSecret = "dev-only-secret"
	}
	if cfg.SessionTTL <= 0 {
		return nil, errors.New("SESSION_TTL must be positive")
	}
	return cfg, nil
}

func (c *Config) Development() bool {
	return c.Env == "development" || c.Env == "dev"
}

func (c *Config) HarvestConfigured() bool {
	return c.HarvestToken != "" && c.HarvestAccountID != ""
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func intEnv(key string, def int) (int, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func boolEnv(key string, def bool) (bool, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

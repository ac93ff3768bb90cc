package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("SESSION_TTL", "")
	t.Setenv("HTTP_PORT", "")
	t.Setenv("HARVEST_ACCESS_TOKEN", "")
	t.Setenv("HARVEST_ACCOUNT_ID", "")
	t.Setenv("TRUST_PROXY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPPort != "8080" {
		t.Fatalf("unexpected port %q", cfg.HTTPPort)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Fatalf("unexpected session ttl %v", cfg.SessionTTL)
	}
	if cfg.JWTSecret == "" {
		t.Fatal("expected development secret")
	}
	if cfg.HarvestConfigured() {
		t.Fatal("harvest should not be configured")
	}
	if cfg.TrustProxy {
		t.Fatal("proxy headers must not be trusted by default")
	}
}

func TestLoadRequiresSecretOutsideDevelopment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without JWT_SECRET")
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("SESSION_TTL", "tomorrow")
	if _, err := Load(); err == nil {
		t.Fatal("expected parse error")
	}
}

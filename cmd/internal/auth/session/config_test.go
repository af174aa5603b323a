package session

import (
	"errors"
	"testing"
	"time"
)

func TestLoadConfigFromEnv_RequiresSecret(t *testing.T) {
	t.Setenv("KEYGATE_JWT_SECRET", "")
	if _, err := LoadConfigFromEnv(); !errors.Is(err, ErrConfig) {
		t.Fatalf("missing secret: got %v, want ErrConfig", err)
	}

	t.Setenv("KEYGATE_JWT_SECRET", "short")
	if _, err := LoadConfigFromEnv(); !errors.Is(err, ErrConfig) {
		t.Fatalf("short secret: got %v, want ErrConfig", err)
	}
}

func TestLoadConfigFromEnv_Overrides(t *testing.T) {
	t.Setenv("KEYGATE_JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("KEYGATE_AUTH_ISSUER", "keygate-test")
	t.Setenv("KEYGATE_AUTH_ACCESS_TTL", "5m")
	t.Setenv("KEYGATE_AUTH_REFRESH_TTL", "168h")
	t.Setenv("KEYGATE_AUTH_CLOCK_SKEW", "10s")
	t.Setenv("KEYGATE_AUTH_SWEEP_INTERVAL", "30s")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv: %v", err)
	}
	if cfg.Issuer != "keygate-test" {
		t.Fatalf("issuer: got %q", cfg.Issuer)
	}
	if cfg.AccessTokenTTL != 5*time.Minute || cfg.RefreshTokenTTL != 168*time.Hour {
		t.Fatalf("ttls: %v / %v", cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	}
	if cfg.ClockSkew != 10*time.Second || cfg.SweepInterval != 30*time.Second {
		t.Fatalf("skew/sweep: %v / %v", cfg.ClockSkew, cfg.SweepInterval)
	}
}

func TestLoadConfigFromEnv_AccessMustBeShorter(t *testing.T) {
	t.Setenv("KEYGATE_JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("KEYGATE_AUTH_ACCESS_TTL", "48h")
	t.Setenv("KEYGATE_AUTH_REFRESH_TTL", "24h")

	if _, err := LoadConfigFromEnv(); !errors.Is(err, ErrConfig) {
		t.Fatalf("access >= refresh: got %v, want ErrConfig", err)
	}
}

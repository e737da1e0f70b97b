package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("EFFECT_TIMEOUT", "")
	t.Setenv("CURRENCY", "")

	cfg := Load()
	if cfg.StoreDriver != "postgres" {
		t.Fatalf("expected postgres driver, got %s", cfg.StoreDriver)
	}
	if cfg.EffectTimeout != 5*time.Second {
		t.Fatalf("expected 5s effect timeout, got %s", cfg.EffectTimeout)
	}
	if cfg.Currency != "INR" {
		t.Fatalf("expected INR, got %s", cfg.Currency)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("CATALOG_TIMEOUT", "750ms")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://pos.example.com, ,https://kds.example.com")
	t.Setenv("R2_ACCOUNT_ID", "acct")
	t.Setenv("OBJECT_STORE_ENDPOINT", "")
	t.Setenv("R2_S3_ENDPOINT", "")

	cfg := Load()
	if cfg.StoreDriver != "memory" {
		t.Fatalf("expected memory driver, got %s", cfg.StoreDriver)
	}
	if cfg.CatalogTimeout != 750*time.Millisecond {
		t.Fatalf("expected 750ms, got %s", cfg.CatalogTimeout)
	}
	if len(cfg.CorsAllowedOrigins) != 2 {
		t.Fatalf("expected 2 origins, got %v", cfg.CorsAllowedOrigins)
	}
	if cfg.ObjectStoreEndpoint != "https://acct.r2.cloudflarestorage.com" {
		t.Fatalf("unexpected endpoint %s", cfg.ObjectStoreEndpoint)
	}
}

func TestInvalidDurationFallsBack(t *testing.T) {
	t.Setenv("EFFECT_TIMEOUT", "soon")
	if got := Load().EffectTimeout; got != 5*time.Second {
		t.Fatalf("expected fallback, got %s", got)
	}
}

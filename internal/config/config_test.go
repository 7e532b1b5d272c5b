package config_test

import (
	"testing"
	"time"

	"github.com/freshpress/portal-bff-go/internal/config"
)

func TestLoad_RequiresBackendBaseURL(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "")

	if _, err := config.Load(); err == nil {
		t.Fatal("expected error when BACKEND_BASE_URL is unset")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "http://localhost:3550")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.BackendBaseURL != "http://localhost:3550" {
		t.Errorf("backend URL = %q", cfg.BackendBaseURL)
	}
	if cfg.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Port)
	}
	if cfg.VerifyTimeout != 15*time.Second {
		t.Errorf("expected 15s verify timeout, got %s", cfg.VerifyTimeout)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "https://api.freshpress.example")
	t.Setenv("PORT", "9090")
	t.Setenv("VERIFY_TIMEOUT", "5s")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Port)
	}
	if cfg.VerifyTimeout != 5*time.Second {
		t.Errorf("expected 5s verify timeout, got %s", cfg.VerifyTimeout)
	}
}

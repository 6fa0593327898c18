package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", "test-secret")
	t.Setenv("APP_ENV", "")
	t.Setenv("DB_DSN", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Environment != "development" {
		t.Errorf("expected development environment, got %q", cfg.Environment)
	}
	if cfg.HTTP.Host != "0.0.0.0" {
		t.Errorf("expected default host, got %q", cfg.HTTP.Host)
	}
	if cfg.HTTP.Port != 8000 {
		t.Errorf("expected default port 8000, got %d", cfg.HTTP.Port)
	}
	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Errorf("expected default token ttl 24h, got %s", cfg.Auth.TokenTTL)
	}
	if len(cfg.Procurement.AllowedCurrencies) != 1 || cfg.Procurement.AllowedCurrencies[0] != "USD" {
		t.Errorf("expected default currencies [USD], got %v", cfg.Procurement.AllowedCurrencies)
	}
	if !cfg.IsDevelopment() {
		t.Error("expected IsDevelopment to be true")
	}
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", "")
	t.Setenv("APP_ENV", "development")

	if _, err := Load(); err == nil {
		t.Error("expected error for missing JWT_ACCESS_SECRET")
	}
}

func TestLoadRequiresDSNOutsideDevelopment(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", "test-secret")
	t.Setenv("APP_ENV", "production")
	t.Setenv("DB_DSN", "")

	if _, err := Load(); err == nil {
		t.Error("expected error for missing DB_DSN in production")
	}

	t.Setenv("DB_DSN", "postgres://localhost/procureflow")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.IsDevelopment() {
		t.Error("expected IsDevelopment to be false")
	}
}

func TestParseList(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"", 0},
		{"USD", 1},
		{"USD,EUR, KZT ", 3},
		{" , ,", 0},
	}

	for _, tt := range tests {
		if got := parseList(tt.raw); len(got) != tt.want {
			t.Errorf("parseList(%q) = %v, want %d items", tt.raw, got, tt.want)
		}
	}
}

package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_TTL", "")
	t.Setenv("PORT", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.JWTTTL != 12*time.Hour {
		t.Errorf("JWTTTL = %s, want 12h", cfg.JWTTTL)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Errorf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_TTL", "30m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://pos.example.com, https://admin.example.com,")
	t.Setenv("DB_HOST", "db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "9090" || cfg.JWTTTL != 30*time.Minute {
		t.Errorf("cfg = %+v", cfg)
	}
	if got := cfg.CORSAllowedOrigins; len(got) != 2 || got[1] != "https://admin.example.com" {
		t.Errorf("CORSAllowedOrigins = %v", got)
	}
	if want := "host=db port=5432"; cfg.DSN()[:len(want)] != want {
		t.Errorf("DSN() = %q", cfg.DSN())
	}
}

func TestLoadRejectsNegativeTTL(t *testing.T) {
	t.Setenv("JWT_TTL", "-1h")
	if _, err := Load(); err == nil {
		t.Fatal("Load() error = nil, want error for negative JWT_TTL")
	}
}

package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("PUBLIC_BASE_URL", "")
	t.Setenv("WHATSAPP_ACCESS_TOKEN", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	cfg := Load()
	if cfg.Port != "5000" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.PublicBaseURL != "http://localhost:5000" {
		t.Fatalf("expected base url derived from port, got %s", cfg.PublicBaseURL)
	}
	if cfg.Addr() != "127.0.0.1:5000" {
		t.Fatalf("expected loopback bind, got %s", cfg.Addr())
	}
	if cfg.CountryCode != "91" {
		t.Fatalf("expected default country code, got %s", cfg.CountryCode)
	}
	if cfg.WhatsAppAccessToken != "" {
		t.Fatalf("expected no access token by default")
	}
	if !cfg.WhatsAppWebEnabled {
		t.Fatalf("expected web deep-link enabled by default")
	}
	if cfg.DeliveryTimeout != 15*time.Second {
		t.Fatalf("expected default delivery timeout, got %s", cfg.DeliveryTimeout)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Fatalf("expected wildcard cors, got %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("PUBLIC_BASE_URL", "https://lab.example.com/")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DB_PATH", "/tmp/lab.db")
	t.Setenv("WHATSAPP_WEB_ENABLED", "false")
	t.Setenv("DELIVERY_TIMEOUT", "3s")
	t.Setenv("PDF_RENDER_TIMEOUT", "bogus")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.PublicBaseURL != "https://lab.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %s", cfg.PublicBaseURL)
	}
	if cfg.DBPath != "/tmp/lab.db" {
		t.Fatalf("expected db override, got %s", cfg.DBPath)
	}
	if cfg.WhatsAppWebEnabled {
		t.Fatalf("expected web deep-link disabled")
	}
	if cfg.DeliveryTimeout != 3*time.Second {
		t.Fatalf("expected delivery timeout override, got %s", cfg.DeliveryTimeout)
	}
	if cfg.PDFRenderTimeout != 30*time.Second {
		t.Fatalf("expected invalid duration to fall back, got %s", cfg.PDFRenderTimeout)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("expected parsed origin list, got %v", cfg.CORSAllowedOrigins)
	}
}

package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.HTTPPort != 3001 {
		t.Errorf("expected default port 3001, got %d", cfg.HTTPPort)
	}
	if cfg.DatabaseURL != "pedefacil.db" {
		t.Errorf("unexpected database URL %q", cfg.DatabaseURL)
	}
	if cfg.WhatsappReconnectDelay != 5*time.Second {
		t.Errorf("unexpected reconnect delay %s", cfg.WhatsappReconnectDelay)
	}
	if cfg.WhatsappMaxReconnects != 5 {
		t.Errorf("unexpected max reconnects %d", cfg.WhatsappMaxReconnects)
	}
	if cfg.WhatsappGatewayURL != "" {
		t.Errorf("gateway URL should default to empty, got %q", cfg.WhatsappGatewayURL)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("WHATSAPP_MAX_RECONNECTS", "3")
	t.Setenv("WHATSAPP_RECONNECT_DELAY_MS", "1000")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()
	if cfg.HTTPPort != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.HTTPPort)
	}
	if cfg.WhatsappMaxReconnects != 3 {
		t.Errorf("expected 3 reconnects, got %d", cfg.WhatsappMaxReconnects)
	}
	if cfg.WhatsappReconnectDelay != time.Second {
		t.Errorf("expected 1s delay, got %s", cfg.WhatsappReconnectDelay)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected debug level, got %q", cfg.LogLevel)
	}
}

func TestLoadIgnoresInvalidInt(t *testing.T) {
	t.Setenv("HTTP_PORT", "not-a-number")

	cfg := Load()
	if cfg.HTTPPort != 3001 {
		t.Errorf("invalid value should fall back to default, got %d", cfg.HTTPPort)
	}
}

package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.VisionProvider != "gemini" {
		t.Errorf("VisionProvider = %q, want gemini", cfg.VisionProvider)
	}
	if cfg.MaxImages != 5 {
		t.Errorf("MaxImages = %d, want 5", cfg.MaxImages)
	}
	if cfg.AuditParallelism != 3 {
		t.Errorf("AuditParallelism = %d, want 3", cfg.AuditParallelism)
	}
	if cfg.AuditCallTimeout != 90*time.Second {
		t.Errorf("AuditCallTimeout = %s, want 90s", cfg.AuditCallTimeout)
	}
	if cfg.PollInterval != 3*time.Second {
		t.Errorf("PollInterval = %s, want 3s", cfg.PollInterval)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "http://localhost:3000" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("VISION_PROVIDER", "openai")
	t.Setenv("MAX_IMAGES", "10")
	t.Setenv("AUDIT_PARALLELISM", "8")
	t.Setenv("POLL_INTERVAL_SECONDS", "1")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() unexpected error: %v", err)
	}
	if cfg.Port != "9999" {
		t.Errorf("Port = %q, want 9999", cfg.Port)
	}
	if cfg.VisionProvider != "openai" {
		t.Errorf("VisionProvider = %q, want openai", cfg.VisionProvider)
	}
	if cfg.MaxImages != 10 {
		t.Errorf("MaxImages = %d, want 10", cfg.MaxImages)
	}
	if cfg.AuditParallelism != 8 {
		t.Errorf("AuditParallelism = %d, want 8", cfg.AuditParallelism)
	}
	if cfg.PollInterval != time.Second {
		t.Errorf("PollInterval = %s, want 1s", cfg.PollInterval)
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Setenv("MAX_IMAGES", "0")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("LoadConfig() with MAX_IMAGES=0 expected error, got nil")
	}
}

func TestLoadConfigRejectsUnknownProvider(t *testing.T) {
	t.Setenv("VISION_PROVIDER", "watson")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("LoadConfig() with unknown provider expected error, got nil")
	}
}

package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":8080" {
		t.Fatalf("BindAddr = %q", cfg.BindAddr)
	}
	if cfg.TranscriptRetention != time.Hour || cfg.TranscriptSweepPeriod != time.Hour {
		t.Fatalf("transcript retention defaults wrong: %v / %v", cfg.TranscriptRetention, cfg.TranscriptSweepPeriod)
	}
	if cfg.SessionIDRetention != cfg.TranscriptRetention {
		t.Fatalf("SessionIDRetention = %v, want transcript window %v", cfg.SessionIDRetention, cfg.TranscriptRetention)
	}
	if cfg.PromptCacheTTL != 5*time.Minute {
		t.Fatalf("PromptCacheTTL = %v", cfg.PromptCacheTTL)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Fatalf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
	if cfg.StorageConfigured() {
		t.Fatalf("StorageConfigured() = true without a bucket")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TRANSCRIPT_RETENTION", "30m")
	t.Setenv("SESSION_ID_RETENTION", "0s")
	t.Setenv("APP_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("WEBHOOK_REDACT_PII", "true")
	t.Setenv("STORAGE_BUCKET", "chat-uploads")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.TranscriptRetention != 30*time.Minute {
		t.Fatalf("TranscriptRetention = %v", cfg.TranscriptRetention)
	}
	if cfg.SessionIDRetention != 0 {
		t.Fatalf("SessionIDRetention = %v, want 0 (eviction disabled)", cfg.SessionIDRetention)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
	if !cfg.WebhookRedactPII {
		t.Fatalf("WebhookRedactPII = false")
	}
	if !cfg.StorageConfigured() {
		t.Fatalf("StorageConfigured() = false with bucket set")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"bad duration", "TRANSCRIPT_RETENTION", "soon"},
		{"zero retention", "TRANSCRIPT_RETENTION", "0s"},
		{"sub-second cache ttl", "PROMPT_CACHE_TTL", "200ms"},
		{"bad bool", "WEBHOOK_REDACT_PII", "maybe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Fatalf("Load() with %s=%s should fail", tt.key, tt.value)
			}
		})
	}
}

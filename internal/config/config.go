package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config contains all runtime settings for the bridge service.
type Config struct {
	BindAddr         string
	PublicBaseURL    string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	AllowedOrigins []string

	OpenAIAPIKey      string
	OpenAIBaseURL     string
	ChatKitWorkflowID string

	PromptTemplatePath string
	PromptCacheTTL     time.Duration

	WebhookURL       string
	WebhookTimeout   time.Duration
	WebhookRedactPII bool

	TranscriptRetention   time.Duration
	TranscriptSweepPeriod time.Duration
	SessionIDRetention    time.Duration

	StorageEndpoint  string
	StorageRegion    string
	StorageBucket    string
	StorageAccessKey string
	StorageSecretKey string
	StoragePathStyle bool
	UploadURLTTL     time.Duration
	DownloadURLTTL   time.Duration
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:           envOrDefault("APP_BIND_ADDR", ":8080"),
		PublicBaseURL:      envOrDefault("APP_PUBLIC_BASE_URL", "http://localhost:8080"),
		MetricsNamespace:   envOrDefault("APP_METRICS_NAMESPACE", "chatbridge"),
		OpenAIAPIKey:       trimmedEnv("OPENAI_API_KEY"),
		OpenAIBaseURL:      envOrDefault("OPENAI_BASE_URL", "https://api.openai.com"),
		ChatKitWorkflowID:  trimmedEnv("CHATKIT_WORKFLOW_ID"),
		PromptTemplatePath: envOrDefault("PROMPT_TEMPLATE_PATH", "prompts/workflow.md"),
		WebhookURL:         trimmedEnv("WEBHOOK_URL"),
		StorageEndpoint:    trimmedEnv("STORAGE_ENDPOINT"),
		StorageRegion:      envOrDefault("STORAGE_REGION", "us-east-1"),
		StorageBucket:      trimmedEnv("STORAGE_BUCKET"),
		StorageAccessKey:   trimmedEnv("STORAGE_ACCESS_KEY_ID"),
		StorageSecretKey:   trimmedEnv("STORAGE_SECRET_ACCESS_KEY"),

		ShutdownTimeout:       15 * time.Second,
		PromptCacheTTL:        5 * time.Minute,
		WebhookTimeout:        15 * time.Second,
		TranscriptRetention:   time.Hour,
		TranscriptSweepPeriod: time.Hour,
		UploadURLTTL:          10 * time.Minute,
		DownloadURLTTL:        5 * time.Minute,
	}

	cfg.AllowedOrigins = splitCSV(envOrDefault("APP_ALLOWED_ORIGINS", "*"))

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.PromptCacheTTL, err = durationFromEnv("PROMPT_CACHE_TTL", cfg.PromptCacheTTL)
	if err != nil {
		return Config{}, err
	}
	cfg.WebhookTimeout, err = durationFromEnv("WEBHOOK_TIMEOUT", cfg.WebhookTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.WebhookRedactPII, err = boolFromEnv("WEBHOOK_REDACT_PII", false)
	if err != nil {
		return Config{}, err
	}
	cfg.TranscriptRetention, err = durationFromEnv("TRANSCRIPT_RETENTION", cfg.TranscriptRetention)
	if err != nil {
		return Config{}, err
	}
	cfg.TranscriptSweepPeriod, err = durationFromEnv("TRANSCRIPT_SWEEP_PERIOD", cfg.TranscriptSweepPeriod)
	if err != nil {
		return Config{}, err
	}
	// The id stores follow the transcript window unless overridden;
	// 0 disables their eviction entirely.
	cfg.SessionIDRetention, err = durationFromEnv("SESSION_ID_RETENTION", cfg.TranscriptRetention)
	if err != nil {
		return Config{}, err
	}
	cfg.UploadURLTTL, err = durationFromEnv("UPLOAD_URL_TTL", cfg.UploadURLTTL)
	if err != nil {
		return Config{}, err
	}
	cfg.DownloadURLTTL, err = durationFromEnv("DOWNLOAD_URL_TTL", cfg.DownloadURLTTL)
	if err != nil {
		return Config{}, err
	}
	cfg.StoragePathStyle, err = boolFromEnv("STORAGE_PATH_STYLE", true)
	if err != nil {
		return Config{}, err
	}

	if cfg.TranscriptRetention <= 0 {
		return Config{}, fmt.Errorf("TRANSCRIPT_RETENTION must be positive")
	}
	if cfg.TranscriptSweepPeriod <= 0 {
		return Config{}, fmt.Errorf("TRANSCRIPT_SWEEP_PERIOD must be positive")
	}
	if cfg.SessionIDRetention < 0 {
		return Config{}, fmt.Errorf("SESSION_ID_RETENTION must be zero or positive")
	}
	if cfg.PromptCacheTTL < time.Second {
		return Config{}, fmt.Errorf("PROMPT_CACHE_TTL must be at least 1s")
	}

	return cfg, nil
}

// StorageConfigured reports whether the attachment broker can be wired.
func (c Config) StorageConfigured() bool {
	return c.StorageBucket != ""
}

func envOrDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func trimmedEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func splitCSV(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(trimmedEnv(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}

package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PAINTBOT_ENDPOINT", "http://127.0.0.1:7860/sdapi/v1/txt2img")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.MaxConcurrency != 3 {
		t.Errorf("MaxConcurrency = %d, want 3", cfg.MaxConcurrency)
	}
	if cfg.DefaultWidth != 512 || cfg.DefaultHeight != 512 {
		t.Errorf("default resolution = %dx%d, want 512x512", cfg.DefaultWidth, cfg.DefaultHeight)
	}
	if cfg.Output != "normal" {
		t.Errorf("Output = %q, want normal", cfg.Output)
	}
	if cfg.Endpoint != "http://127.0.0.1:7860/sdapi/v1/txt2img" {
		t.Errorf("Endpoint = %q, env override not applied", cfg.Endpoint)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	content := `
endpoint: https://sd.example.com/sdapi/v1/txt2img
maxConcurrency: 5
forbidden: "nsfw!, gore"
weigh: 768
hight: 640
output: verbose
recallTimeout: 30
headers:
  X-Api-Key: secret
`
	path := filepath.Join(t.TempDir(), "paintbot.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Endpoint != "https://sd.example.com/sdapi/v1/txt2img" {
		t.Errorf("Endpoint = %q", cfg.Endpoint)
	}
	if cfg.MaxConcurrency != 5 {
		t.Errorf("MaxConcurrency = %d, want 5", cfg.MaxConcurrency)
	}
	if cfg.DefaultWidth != 768 || cfg.DefaultHeight != 640 {
		t.Errorf("resolution = %dx%d, want 768x640", cfg.DefaultWidth, cfg.DefaultHeight)
	}
	if cfg.Headers["X-Api-Key"] != "secret" {
		t.Errorf("Headers = %v, missing X-Api-Key", cfg.Headers)
	}
	if cfg.RecallTimeout().Seconds() != 30 {
		t.Errorf("RecallTimeout = %v, want 30s", cfg.RecallTimeout())
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paintbot.yaml")
	if err := os.WriteFile(path, []byte("endpoint: http://file.example/gen\nmaxConcurrency: 2\n"), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	t.Setenv("PAINTBOT_ENDPOINT", "http://env.example/gen")
	t.Setenv("PAINTBOT_MAX_CONCURRENCY", "7")
	t.Setenv("PAINTBOT_REQUEST_TIMEOUT", "90")
	t.Setenv("PAINTBOT_AUTH_TOKEN", "tok123")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Endpoint != "http://env.example/gen" {
		t.Errorf("Endpoint = %q, want env value", cfg.Endpoint)
	}
	if cfg.MaxConcurrency != 7 {
		t.Errorf("MaxConcurrency = %d, want 7", cfg.MaxConcurrency)
	}
	if cfg.RequestTimeout() != 90*time.Second {
		t.Errorf("RequestTimeout = %v, want 90s", cfg.RequestTimeout())
	}
	if cfg.Headers["Authorization"] != "Bearer tok123" {
		t.Errorf("Authorization header = %q", cfg.Headers["Authorization"])
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	base := DefaultConfig()
	base.Endpoint = "http://127.0.0.1:7860/sdapi/v1/txt2img"

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing endpoint", func(c *Config) { c.Endpoint = "" }},
		{"non-http endpoint", func(c *Config) { c.Endpoint = "ftp://host/gen" }},
		{"endpoint without host", func(c *Config) { c.Endpoint = "http://" }},
		{"negative concurrency", func(c *Config) { c.MaxConcurrency = -1 }},
		{"zero timeout", func(c *Config) { c.RequestTimeoutSec = 0 }},
		{"unknown output mode", func(c *Config) { c.Output = "chatty" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate accepted invalid config")
			}
		})
	}
}

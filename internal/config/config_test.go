package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Expected port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Content.PreviewLength != 1000 {
		t.Errorf("Expected preview length 1000, got %d", cfg.Content.PreviewLength)
	}
	if cfg.Notify.Backend != NotifyBackendDatabase {
		t.Errorf("Expected database backend, got %s", cfg.Notify.Backend)
	}
	if len(cfg.Content.AllowedTags) != len(DefaultAllowedTags) {
		t.Errorf("Expected default allowed tags, got %v", cfg.Content.AllowedTags)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CONTENT_ALLOWED_TAGS", "p, b ,,i")
	t.Setenv("CONTENT_PREVIEW_LENGTH", "250")
	t.Setenv("FEED_PING_TIMEOUT", "2s")
	t.Setenv("NOTIFY_BACKEND", "redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Server.Port)
	}
	want := []string{"p", "b", "i"}
	if len(cfg.Content.AllowedTags) != len(want) {
		t.Fatalf("Expected %v, got %v", want, cfg.Content.AllowedTags)
	}
	for i := range want {
		if cfg.Content.AllowedTags[i] != want[i] {
			t.Errorf("Expected tag %s at %d, got %s", want[i], i, cfg.Content.AllowedTags[i])
		}
	}
	if cfg.Content.PreviewLength != 250 {
		t.Errorf("Expected preview length 250, got %d", cfg.Content.PreviewLength)
	}
	if cfg.Feed.PingTimeout != 2*time.Second {
		t.Errorf("Expected 2s ping timeout, got %v", cfg.Feed.PingTimeout)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Database: DatabaseConfig{Host: "localhost", Name: "db"},
			Content:  ContentConfig{PreviewLength: 100, DefaultFormat: "html"},
			Notify:   NotifyConfig{Backend: NotifyBackendDatabase},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing host", func(c *Config) { c.Database.Host = "" }, true},
		{"zero preview", func(c *Config) { c.Content.PreviewLength = 0 }, true},
		{"bad format", func(c *Config) { c.Content.DefaultFormat = "bbcode" }, true},
		{"redis without url", func(c *Config) { c.Notify.Backend = NotifyBackendRedis }, true},
		{"unknown backend", func(c *Config) { c.Notify.Backend = "smtp" }, true},
		{"ping without hub", func(c *Config) { c.Feed.PingEnabled = true; c.Feed.FeedURL = "http://x/feed" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

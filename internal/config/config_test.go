package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

const validYAML = `
catalog:
  url: https://shop.example/api/catalog
  timeout: 20s
schedule: 2m
snapshot:
  path: ./state.json
webhook:
  url: https://discord.example/api/webhooks/1/abc
  cooldown: 1s
logging:
  level: debug
  console: true
  file:
    enabled: false
    path: ""
`

func TestLoadYAML(t *testing.T) {
	m := NewManager(writeConfig(t, "config.yaml", validYAML))
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Catalog.URL != "https://shop.example/api/catalog" {
		t.Fatalf("catalog.url = %q", cfg.Catalog.URL)
	}
	if cfg.Schedule != "2m" {
		t.Fatalf("schedule = %q", cfg.Schedule)
	}
	if cfg.SnapshotPath() != "./state.json" {
		t.Fatalf("snapshot path = %q", cfg.SnapshotPath())
	}
	if got := m.Get(); got != cfg {
		t.Fatal("Get must return the committed config")
	}
}

func TestLoadJSON(t *testing.T) {
	body := `{
  "catalog": {"url": "https://shop.example/api/catalog"},
  "webhook": {"url": "https://discord.example/api/webhooks/1/abc"},
  "logging": {"level": "info", "console": true, "file": {"enabled": false, "path": ""}}
}`
	m := NewManager(writeConfig(t, "config.json", body))
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Webhook.URL == "" {
		t.Fatal("webhook.url not decoded")
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	body := validYAML + "\nwebhok:\n  url: typo\n"
	m := NewManager(writeConfig(t, "config.yaml", body))
	if _, err := m.Parse(); err == nil {
		t.Fatal("expected error for unknown top-level field")
	}
}

func TestParseRejectsTrailingData(t *testing.T) {
	body := `{"catalog":{"url":"x"},"webhook":{"url":"y"},"logging":{"level":"info","console":true,"file":{"enabled":false,"path":""}}}{"extra":1}`
	m := NewManager(writeConfig(t, "config.json", body))
	if _, err := m.Parse(); err == nil {
		t.Fatal("expected error for trailing data")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Catalog: CatalogConfig{URL: "https://shop.example/api"},
			Webhook: WebhookConfig{URL: "https://discord.example/hook"},
		}
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("minimal config must validate: %v", err)
	}

	cases := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{"missing catalog url", func(c *Config) { c.Catalog.URL = " " }, "catalog.url"},
		{"missing webhook url", func(c *Config) { c.Webhook.URL = "" }, "webhook.url"},
		{"bad catalog timeout", func(c *Config) { c.Catalog.Timeout = "soon" }, "catalog.timeout"},
		{"negative cooldown", func(c *Config) { c.Webhook.Cooldown = "-1s" }, "webhook.cooldown"},
		{"bad webhook timeout", func(c *Config) { c.Webhook.Timeout = "10" }, "webhook.timeout"},
		{"telegram enabled without token", func(c *Config) {
			c.Telegram = &TelegramConfig{Enabled: true, ChatID: 42}
		}, "telegram.token"},
		{"telegram enabled without chat", func(c *Config) {
			c.Telegram = &TelegramConfig{Enabled: true, Token: "t"}
		}, "telegram.chat_id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Fatalf("error %q does not mention %q", err, tc.wantSub)
			}
		})
	}

	// Disabled telegram needs no token.
	cfg := base()
	cfg.Telegram = &TelegramConfig{Enabled: false}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled telegram must validate: %v", err)
	}
}

func TestSnapshotPathDefault(t *testing.T) {
	var cfg Config
	if got := cfg.SnapshotPath(); got != "./old_shop_data.json" {
		t.Fatalf("default snapshot path = %q", got)
	}
}

func TestParseDurationField(t *testing.T) {
	if d, err := ParseDurationField("x", " 90s "); err != nil || d != 90*time.Second {
		t.Fatalf("got %v, %v", d, err)
	}
	if d, err := ParseDurationField("x", ""); err != nil || d != 0 {
		t.Fatalf("empty: got %v, %v", d, err)
	}
	if _, err := ParseDurationField("x", "banana"); err == nil {
		t.Fatal("expected error for junk duration")
	}
	if _, err := ParseDurationField("x", "-2s"); err == nil {
		t.Fatal("expected error for negative duration")
	}
	if d, err := ParseDurationOrDefault("x", "", 15*time.Second); err != nil || d != 15*time.Second {
		t.Fatalf("default: got %v, %v", d, err)
	}
	if d, err := ParseDurationOrDefault("x", "3s", 15*time.Second); err != nil || d != 3*time.Second {
		t.Fatalf("explicit: got %v, %v", d, err)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	body := "catalog:\n  url: \"\"\nwebhook:\n  url: https://discord.example/hook\n"
	m := NewManager(writeConfig(t, "config.yaml", body))
	if _, err := m.Load(); err == nil {
		t.Fatal("expected validation error from Load")
	}
	if m.Get() != nil {
		t.Fatal("invalid config must not be committed")
	}
}

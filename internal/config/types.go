package config

import (
	"errors"
	"strings"
)

type Config struct {
	Catalog CatalogConfig `json:"catalog"`

	// Schedule controls cycle spacing. Accepted forms:
	//   - Go duration: "60s", "2m30s"
	//   - HH:MM: "01:30" (one hour thirty minutes)
	//   - cron (crontab.guru-style): "*/5 * * * *", "@hourly", "@every 90s"
	//
	// Empty defaults to "60s".
	Schedule string `json:"schedule,omitempty"`

	Snapshot SnapshotConfig `json:"snapshot"`
	Webhook  WebhookConfig  `json:"webhook"`

	// Telegram is an optional secondary notification channel.
	Telegram *TelegramConfig `json:"telegram,omitempty"`

	Logging LoggingConfig `json:"logging"`
}

type CatalogConfig struct {
	URL string `json:"url"`
	// Timeout is a Go duration string bounding one fetch (default "15s").
	Timeout string `json:"timeout,omitempty"`
}

// SnapshotConfig controls the persistence layer for the last-known shop state.
//
// Driver values:
//   - "file" (default): one pretty-printed JSON document
//   - "sqlite": SQLite database file (build with -tags sqlite)
type SnapshotConfig struct {
	Driver string `json:"driver,omitempty"`
	Path   string `json:"path,omitempty"`
	// BusyTimeout is a Go duration string (sqlite only).
	BusyTimeout string `json:"busy_timeout,omitempty"`
}

type WebhookConfig struct {
	URL string `json:"url"`
	// Cooldown is imposed after every dispatch attempt, success or failure,
	// to stay clear of the endpoint's rate limits (default "1s").
	Cooldown string `json:"cooldown,omitempty"`
	// Timeout bounds one POST (default "10s").
	Timeout string `json:"timeout,omitempty"`
}

type TelegramConfig struct {
	Enabled    bool   `json:"enabled"`
	Token      string `json:"token"`
	ChatID     int64  `json:"chat_id"`
	RatePerSec int    `json:"rate_per_sec,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// Validate checks the parts that would make the watcher unable to run at all.
// Everything else has a default.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if strings.TrimSpace(c.Catalog.URL) == "" {
		return errors.New("catalog.url is required")
	}
	if strings.TrimSpace(c.Webhook.URL) == "" {
		return errors.New("webhook.url is required")
	}
	if _, err := ParseDurationField("catalog.timeout", c.Catalog.Timeout); err != nil {
		return err
	}
	if _, err := ParseDurationField("webhook.cooldown", c.Webhook.Cooldown); err != nil {
		return err
	}
	if _, err := ParseDurationField("webhook.timeout", c.Webhook.Timeout); err != nil {
		return err
	}
	if _, err := ParseDurationField("snapshot.busy_timeout", c.Snapshot.BusyTimeout); err != nil {
		return err
	}
	if t := c.Telegram; t != nil && t.Enabled {
		if strings.TrimSpace(t.Token) == "" {
			return errors.New("telegram.token is required when telegram is enabled")
		}
		if t.ChatID == 0 {
			return errors.New("telegram.chat_id is required when telegram is enabled")
		}
	}
	return nil
}

// SnapshotPath returns the configured snapshot path or the historical default.
func (c *Config) SnapshotPath() string {
	if p := strings.TrimSpace(c.Snapshot.Path); p != "" {
		return p
	}
	return "./old_shop_data.json"
}

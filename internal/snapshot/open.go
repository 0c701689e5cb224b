package snapshot

import (
	"context"
	"errors"
	"strings"
	"time"

	"shopwatch/internal/catalog"
	logx "shopwatch/pkg/logx"
)

// Store is the persistence API used by the watcher.
//
// Load returns an empty snapshot (not an error) when nothing has been
// persisted yet or the stored state is unreadable; the next successful cycle
// rewrites it. Save replaces the stored state in full.
type Store interface {
	Load(ctx context.Context) (catalog.Snapshot, error)
	Save(ctx context.Context, snap catalog.Snapshot) error
	Close() error
}

// Config configures the snapshot store.
//
// Driver values:
//   - "file" (default when empty): one JSON document at Path
//   - "sqlite": SQLite database file (optional build tag)
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Open initializes the configured store.
func Open(cfg Config, log logx.Logger) (Store, error) {
	if log.IsZero() {
		log = logx.Nop()
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown snapshot driver: " + cfg.Driver)
	}
}

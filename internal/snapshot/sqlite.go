//go:build sqlite
// +build sqlite

package snapshot

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"shopwatch/internal/catalog"
	logx "shopwatch/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("snapshot.path is required for sqlite driver")
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	st := &sqliteStore{db: db, log: log}
	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) Load(ctx context.Context) (catalog.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, data FROM sections`)
	if err != nil {
		s.log.Warn("snapshot query failed; starting empty", logx.Err(err))
		return catalog.Snapshot{}, nil
	}
	defer rows.Close()

	snap := catalog.Snapshot{}
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			s.log.Warn("snapshot row unreadable; starting empty", logx.Err(err))
			return catalog.Snapshot{}, nil
		}
		var sec catalog.NormalizedSection
		if err := json.Unmarshal([]byte(data), &sec); err != nil {
			s.log.Warn("snapshot row is corrupt; starting empty", logx.String("id", id), logx.Err(err))
			return catalog.Snapshot{}, nil
		}
		snap[id] = sec
	}
	if err := rows.Err(); err != nil {
		s.log.Warn("snapshot scan failed; starting empty", logx.Err(err))
		return catalog.Snapshot{}, nil
	}
	return snap, nil
}

func (s *sqliteStore) Save(ctx context.Context, snap catalog.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Full replacement, matching the file driver's semantics.
	if _, err := tx.ExecContext(ctx, `DELETE FROM sections`); err != nil {
		return err
	}
	for id, sec := range snap {
		data, err := json.Marshal(sec)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO sections(id, data) VALUES(?,?)`, id, string(data)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

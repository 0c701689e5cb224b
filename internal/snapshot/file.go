package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"shopwatch/internal/catalog"
	logx "shopwatch/pkg/logx"
)

// fileStore keeps the snapshot as one pretty-printed JSON document, the same
// format the system has always used: section ID -> normalized record.
type fileStore struct {
	path string
	log  logx.Logger
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("snapshot.path is required for file driver")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return &fileStore{path: path, log: log}, nil
}

func (s *fileStore) Load(ctx context.Context) (catalog.Snapshot, error) {
	_ = ctx
	b, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("snapshot read failed; starting empty", logx.String("path", s.path), logx.Err(err))
		} else {
			s.log.Warn("no previous shop data found; starting empty", logx.String("path", s.path))
		}
		return catalog.Snapshot{}, nil
	}

	var snap catalog.Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		s.log.Warn("snapshot file is corrupt; starting empty", logx.String("path", s.path), logx.Err(err))
		return catalog.Snapshot{}, nil
	}
	if snap == nil {
		snap = catalog.Snapshot{}
	}
	return snap, nil
}

func (s *fileStore) Save(ctx context.Context, snap catalog.Snapshot) error {
	_ = ctx
	b, err := json.MarshalIndent(snap, "", "    ")
	if err != nil {
		return err
	}
	// Write-then-rename so a crash mid-write can't corrupt the previous state.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *fileStore) Close() error { return nil }

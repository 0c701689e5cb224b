//go:build !sqlite
// +build !sqlite

package snapshot

import (
	"errors"

	logx "shopwatch/pkg/logx"
)

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	_ = cfg
	_ = log
	return nil, errors.New("sqlite snapshot store not built: build with -tags sqlite")
}

// Package store persists the session log. Every save rewrites the whole log.
package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/LeaOLLER/Chronotime/internal/config"
	"github.com/LeaOLLER/Chronotime/internal/session"
)

type Store interface {
	// Load returns the persisted log. A missing or unreadable log yields an
	// empty one rather than an error.
	Load(ctx context.Context) (*session.Log, error)
	Save(ctx context.Context, log *session.Log) error
	Close() error
}

// Open returns the backend selected by cfg.
func Open(cfg config.Data, logger *zap.Logger) (Store, error) {
	switch cfg.Backend {
	case config.BackendJSON, "":
		return NewJSONFile(cfg.File, logger), nil
	case config.BackendSQLite:
		return NewSQLite(cfg.SQLitePath, logger)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/LeaOLLER/Chronotime/internal/session"

	_ "modernc.org/sqlite"
)

// SQLite stores one row per record. seq is the record's position when the log
// is walked category by category, which is enough to rebuild both orders.
type SQLite struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewSQLite(dbPath string, logger *zap.Logger) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer; the driver serialises anyway
	db.SetMaxOpenConns(1)
	s := &SQLite{db: db, logger: logger.With(zap.String("store", dbPath))}
	if err := s.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS sessions (
  seq INTEGER PRIMARY KEY,
  id TEXT NOT NULL,
  category TEXT NOT NULL,
  started_at TEXT NOT NULL,
  duration TEXT NOT NULL,
  duration_seconds REAL NOT NULL,
  tag TEXT NOT NULL DEFAULT '',
  note INTEGER NOT NULL DEFAULT 3,
  done TEXT NOT NULL DEFAULT '',
  todo TEXT NOT NULL DEFAULT '',
  tabs TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS categories (
  position INTEGER PRIMARY KEY,
  name TEXT NOT NULL UNIQUE
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *SQLite) Load(ctx context.Context) (*session.Log, error) {
	log := session.NewLog()

	cats, err := s.db.QueryContext(ctx, `SELECT name FROM categories ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	var order []string
	for cats.Next() {
		var name string
		if err := cats.Scan(&name); err != nil {
			cats.Close()
			return nil, fmt.Errorf("scan category: %w", err)
		}
		order = append(order, name)
	}
	cats.Close()
	if err := cats.Err(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, category, started_at, duration, duration_seconds, tag, note, done, todo, tabs
FROM sessions ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	byCategory := map[string][]session.Record{}
	var firstSeen []string
	for rows.Next() {
		var (
			rec       session.Record
			startedAt string
			tabs      string
		)
		if err := rows.Scan(&rec.ID, &rec.Category, &startedAt, &rec.Duration, &rec.DurationSeconds,
			&rec.Tag, &rec.Note, &rec.Done, &rec.Todo, &tabs); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		rec.Start, err = time.Parse(time.RFC3339, startedAt)
		if err != nil {
			s.logger.Warn("skipping session with bad timestamp", zap.String("id", rec.ID), zap.Error(err))
			continue
		}
		if tabs != "" {
			if err := json.Unmarshal([]byte(tabs), &rec.Tabs); err != nil {
				s.logger.Warn("dropping unreadable tab stats", zap.String("id", rec.ID), zap.Error(err))
				rec.Tabs = nil
			}
		}
		if _, ok := byCategory[rec.Category]; !ok {
			firstSeen = append(firstSeen, rec.Category)
		}
		byCategory[rec.Category] = append(byCategory[rec.Category], rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	appendCategory := func(name string) error {
		if seen[name] {
			return nil
		}
		seen[name] = true
		log.EnsureCategory(name)
		for _, rec := range byCategory[name] {
			if err := log.Append(rec); err != nil {
				return fmt.Errorf("session %s: %w", rec.ID, err)
			}
		}
		return nil
	}
	for _, name := range order {
		if err := appendCategory(name); err != nil {
			return nil, err
		}
	}
	// rows whose category row went missing still load after the known ones,
	// in order of their first seq
	for _, name := range firstSeen {
		if err := appendCategory(name); err != nil {
			return nil, err
		}
	}
	return log, nil
}

func (s *SQLite) Save(ctx context.Context, log *session.Log) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		return fmt.Errorf("clear sessions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM categories`); err != nil {
		return fmt.Errorf("clear categories: %w", err)
	}

	seq := 0
	for pos, category := range log.Categories() {
		if _, err := tx.ExecContext(ctx, `INSERT INTO categories (position, name) VALUES (?, ?)`, pos, category); err != nil {
			return fmt.Errorf("insert category: %w", err)
		}
		for _, rec := range log.Records(category) {
			tabs := ""
			if len(rec.Tabs) > 0 {
				raw, err := json.Marshal(rec.Tabs)
				if err != nil {
					return fmt.Errorf("encode tabs: %w", err)
				}
				tabs = string(raw)
			}
			_, err := tx.ExecContext(ctx, `
INSERT INTO sessions (seq, id, category, started_at, duration, duration_seconds, tag, note, done, todo, tabs)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				seq, rec.ID, category, rec.Start.Format(time.RFC3339), rec.Duration, rec.DurationSeconds,
				rec.Tag, rec.Note, rec.Done, rec.Todo, tabs)
			if err != nil {
				return fmt.Errorf("insert session: %w", err)
			}
			seq++
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error { return s.db.Close() }

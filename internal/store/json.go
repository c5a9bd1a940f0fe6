package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/LeaOLLER/Chronotime/internal/session"
)

// JSONFile keeps the log in a single JSON document keyed by category.
type JSONFile struct {
	path   string
	logger *zap.Logger
}

func NewJSONFile(path string, logger *zap.Logger) *JSONFile {
	return &JSONFile{path: path, logger: logger.With(zap.String("store", path))}
}

func (s *JSONFile) Path() string { return s.path }

func (s *JSONFile) Load(_ context.Context) (*session.Log, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return session.NewLog(), nil
		}
		s.logger.Warn("session log unreadable, starting empty", zap.Error(err))
		return session.NewLog(), nil
	}
	defer f.Close()

	log := session.NewLog()
	if err := json.NewDecoder(f).Decode(log); err != nil {
		s.logger.Warn("session log unreadable, starting empty", zap.Error(err))
		return session.NewLog(), nil
	}
	return log, nil
}

func (s *JSONFile) Save(_ context.Context, log *session.Log) error {
	if dir := filepath.Dir(s.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(log); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *JSONFile) Close() error { return nil }

// Package tags keeps the per-category tag lists offered when a session is
// finished.
package tags

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

var ErrEmptyTag = errors.New("empty tag")

// Manager reads and writes a YAML file of category -> tags.
type Manager struct {
	mu   sync.Mutex
	path string
	tags map[string][]string
}

// Load reads path. A missing file gives empty lists.
func Load(path string) (*Manager, error) {
	m := &Manager{path: path, tags: map[string][]string{}}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return m, nil
		}
		return nil, fmt.Errorf("read tags: %w", err)
	}
	if err := yaml.Unmarshal(raw, &m.tags); err != nil {
		return nil, fmt.Errorf("parse tags %s: %w", path, err)
	}
	if m.tags == nil {
		m.tags = map[string][]string{}
	}
	return m, nil
}

// List returns the tags of category in insertion order.
func (m *Manager) List(category string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.tags[category]...)
}

// Categories returns the categories that have tags, sorted.
func (m *Manager) Categories() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.tags))
	for c, ts := range m.tags {
		if len(ts) > 0 {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}

// Add appends tag to category unless it is already there. It reports whether
// the list changed.
func (m *Manager) Add(category, tag string) (bool, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return false, ErrEmptyTag
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tags[category] {
		if strings.EqualFold(t, tag) {
			return false, nil
		}
	}
	m.tags[category] = append(m.tags[category], tag)
	return true, m.save()
}

// Remove deletes tag from category, ignoring case as Add does. It reports
// whether it was present.
func (m *Manager) Remove(category, tag string) (bool, error) {
	tag = strings.TrimSpace(tag)
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.tags[category]
	for i, t := range list {
		if strings.EqualFold(t, tag) {
			m.tags[category] = append(list[:i:i], list[i+1:]...)
			if len(m.tags[category]) == 0 {
				delete(m.tags, category)
			}
			return true, m.save()
		}
	}
	return false, nil
}

func (m *Manager) save() error {
	raw, err := yaml.Marshal(m.tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, m.path)
}

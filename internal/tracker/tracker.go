// Package tracker owns the stopwatch and the session log. The widget, the tab
// server and the CLI all go through a Tracker, so every method is safe for
// concurrent use.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/LeaOLLER/Chronotime/internal/metrics"
	"github.com/LeaOLLER/Chronotime/internal/session"
	"github.com/LeaOLLER/Chronotime/internal/stopwatch"
	"github.com/LeaOLLER/Chronotime/internal/store"
	"github.com/LeaOLLER/Chronotime/internal/tabs"
)

var ErrUnknownCategory = errors.New("unknown category")

// Meta is what the user fills in when finishing a session.
type Meta struct {
	Tag  string
	Note int
	Done string
	Todo string
}

type Options struct {
	Store           store.Store
	Categories      []string
	DefaultCategory string
	Provider        tabs.Provider
	Accumulator     *tabs.Accumulator
	Metrics         *metrics.Metrics
	Logger          *zap.Logger
	Now             func() time.Time
}

// Status is a snapshot for rendering.
type Status struct {
	Running   bool
	Elapsed   time.Duration
	StartedAt time.Time
	Category  string
	Tab       tabs.Tab
	HasTab    bool
}

type Tracker struct {
	mu         sync.Mutex
	store      store.Store
	categories []string
	category   string
	sw         stopwatch.Stopwatch
	log        *session.Log
	provider   tabs.Provider
	acc        *tabs.Accumulator
	metrics    *metrics.Metrics
	logger     *zap.Logger
	now        func() time.Time
	lastSample time.Time
	tab        tabs.Tab
	hasTab     bool
}

// New loads the log from opts.Store and returns a stopped tracker.
func New(ctx context.Context, opts Options) (*Tracker, error) {
	if opts.Store == nil {
		return nil, errors.New("tracker: store is required")
	}
	if len(opts.Categories) == 0 {
		return nil, errors.New("tracker: at least one category is required")
	}
	t := &Tracker{
		store:      opts.Store,
		categories: append([]string(nil), opts.Categories...),
		category:   opts.Categories[0],
		provider:   opts.Provider,
		acc:        opts.Accumulator,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
		now:        opts.Now,
	}
	if t.provider == nil {
		t.provider = tabs.Nop{}
	}
	if t.acc == nil {
		t.acc = tabs.NewAccumulator()
	}
	if t.logger == nil {
		t.logger = zap.NewNop()
	}
	if t.now == nil {
		t.now = time.Now
	}
	if opts.DefaultCategory != "" {
		if err := t.SetCategory(opts.DefaultCategory); err != nil {
			return nil, err
		}
	}

	log, err := t.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	t.log = log
	t.logger.Debug("session log loaded", zap.Int("sessions", log.Len()))
	return t, nil
}

// Toggle starts, resumes or pauses the stopwatch.
func (t *Tracker) Toggle() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	t.sw.Toggle(now)
	if t.sw.Running() {
		t.lastSample = now
	}
	t.metrics.SetRunning(t.sw.Running())
	return t.sw.Running()
}

// Reset discards the running session without recording it.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sw.Reset()
	t.acc.ResetSession()
	t.hasTab = false
	t.metrics.SetRunning(false)
}

func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Status{
		Running:   t.sw.Running(),
		Elapsed:   t.sw.Elapsed(t.now()),
		StartedAt: t.sw.StartedAt(),
		Category:  t.category,
		Tab:       t.tab,
		HasTab:    t.hasTab,
	}
}

func (t *Tracker) Categories() []string {
	return append([]string(nil), t.categories...)
}

func (t *Tracker) SetCategory(name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, c := range t.categories {
		if c == name {
			t.category = name
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownCategory, name)
}

// CycleCategory moves step positions through the category list, wrapping.
func (t *Tracker) CycleCategory(step int) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := len(t.categories)
	idx := 0
	for i, c := range t.categories {
		if c == t.category {
			idx = i
			break
		}
	}
	idx = ((idx+step)%n + n) % n
	t.category = t.categories[idx]
	return t.category
}

// Finish records the current run under the selected category and resets the
// stopwatch. With nothing elapsed it does nothing and reports false. When the
// store rejects the save the log and stopwatch are left as they were.
func (t *Tracker) Finish(ctx context.Context, meta Meta) (session.Record, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	elapsed := t.sw.Elapsed(now)
	if elapsed <= 0 {
		return session.Record{}, false, nil
	}

	note := meta.Note
	if note < 1 || note > 5 {
		note = session.DefaultNote
	}
	start := t.sw.StartedAt()
	if start.IsZero() {
		start = now.Add(-elapsed)
	}
	rec := session.Record{
		ID:              uuid.NewString(),
		Category:        t.category,
		Start:           start,
		Duration:        stopwatch.FormatShort(elapsed),
		DurationSeconds: elapsed.Seconds(),
		Tag:             meta.Tag,
		Note:            note,
		Done:            meta.Done,
		Todo:            meta.Todo,
		Tabs:            t.acc.SessionSeconds(),
	}

	next := t.log.Clone()
	if err := next.Append(rec); err != nil {
		return session.Record{}, false, err
	}
	if err := t.store.Save(ctx, next); err != nil {
		t.logger.Error("saving session failed", zap.String("category", rec.Category), zap.Error(err))
		return session.Record{}, false, fmt.Errorf("save session: %w", err)
	}

	t.log = next
	t.sw.Reset()
	t.acc.ResetSession()
	t.hasTab = false
	t.metrics.RecordFinish(rec.Category, rec.DurationSeconds)
	t.metrics.SetRunning(false)
	t.logger.Info("session finished",
		zap.String("id", rec.ID),
		zap.String("category", rec.Category),
		zap.String("duration", rec.Duration),
		zap.Int("tabs", len(rec.Tabs)),
	)
	return rec, true, nil
}

// Delete removes the record at displayIndex of the reverse-chronological list
// of category and persists the log.
func (t *Tracker) Delete(ctx context.Context, category string, displayIndex int) (session.Record, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	next := t.log.Clone()
	removed, err := next.DeleteDisplayed(category, displayIndex)
	if err != nil {
		return session.Record{}, err
	}
	if err := t.store.Save(ctx, next); err != nil {
		return session.Record{}, fmt.Errorf("save after delete: %w", err)
	}
	t.log = next
	t.metrics.RecordDelete(category)
	t.logger.Info("session deleted", zap.String("category", category), zap.String("id", removed.ID))
	return removed, nil
}

// Sample credits the time since the previous sample to the current tab. It is
// a no-op while paused, and an unknown tab only moves the sample mark.
func (t *Tracker) Sample(ctx context.Context) {
	t.mu.Lock()
	running := t.sw.Running()
	t.mu.Unlock()
	if !running {
		t.metrics.RecordTabSample("skipped")
		return
	}

	// the provider may shell out, so it runs unlocked
	tab, ok := t.provider.Current(ctx)

	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.sw.Running() {
		return
	}
	now := t.now()
	elapsed := now.Sub(t.lastSample)
	t.lastSample = now
	if !ok || tab.Empty() {
		t.hasTab = false
		t.acc.Leave()
		t.metrics.RecordTabSample("unknown")
		return
	}
	t.tab, t.hasTab = tab, true
	t.acc.Sample(tab.Key(), elapsed, now)
	t.metrics.RecordTabSample("hit")
}

// Log returns a copy of the session log.
func (t *Tracker) Log() *session.Log {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.log.Clone()
}

// TabTotals returns the process-lifetime seconds per page.
func (t *Tracker) TabTotals() map[string]float64 { return t.acc.Totals() }

// SessionTabs returns the per-page usage of the running session.
func (t *Tracker) SessionTabs() map[string]tabs.Usage { return t.acc.SessionStats() }

// Reload replaces the in-memory log with the stored one.
func (t *Tracker) Reload(ctx context.Context) error {
	log, err := t.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("reload sessions: %w", err)
	}
	t.mu.Lock()
	t.log = log
	t.mu.Unlock()
	return nil
}

// Close finishes a pending session, as quitting the widget does. The store
// stays open; its owner closes it.
func (t *Tracker) Close(ctx context.Context) error {
	if _, finished, err := t.Finish(ctx, Meta{}); err != nil {
		return err
	} else if finished {
		t.logger.Info("pending session saved on exit")
	}
	return nil
}

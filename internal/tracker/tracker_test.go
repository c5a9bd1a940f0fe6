package tracker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/LeaOLLER/Chronotime/internal/session"
	"github.com/LeaOLLER/Chronotime/internal/store"
	"github.com/LeaOLLER/Chronotime/internal/tabs"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time           { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

type memStore struct {
	mu    sync.Mutex
	log   *session.Log
	saves int
	fail  error
}

func (m *memStore) Load(context.Context) (*session.Log, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.log == nil {
		return session.NewLog(), nil
	}
	return m.log.Clone(), nil
}

func (m *memStore) Save(_ context.Context, log *session.Log) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.saves++
	m.log = log.Clone()
	return nil
}

func (m *memStore) Close() error { return nil }

type stubProvider struct {
	tab tabs.Tab
	ok  bool
}

func (s *stubProvider) Current(context.Context) (tabs.Tab, bool) { return s.tab, s.ok }

var categories = []string{"Études", "Thales", "Lecture", "Autre"}

func newTracker(t *testing.T, st store.Store, p tabs.Provider) (*Tracker, *clock) {
	t.Helper()
	c := &clock{t: time.Date(2025, 3, 10, 9, 0, 0, 0, time.Local)}
	tr, err := New(context.Background(), Options{
		Store:      st,
		Categories: categories,
		Provider:   p,
		Logger:     zap.NewNop(),
		Now:        c.now,
	})
	require.NoError(t, err)
	return tr, c
}

func TestElapsedExcludesPauses(t *testing.T) {
	tr, c := newTracker(t, &memStore{}, nil)

	assert.True(t, tr.Toggle())
	c.advance(10 * time.Second)
	assert.False(t, tr.Toggle())
	c.advance(time.Hour)
	tr.Toggle()
	c.advance(5 * time.Second)

	st := tr.Status()
	assert.True(t, st.Running)
	assert.Equal(t, 15*time.Second, st.Elapsed)
}

func TestFinish_AppendsOneRecordAndResets(t *testing.T) {
	ms := &memStore{}
	tr, c := newTracker(t, ms, nil)
	require.NoError(t, tr.SetCategory("Thales"))

	start := c.t
	tr.Toggle()
	c.advance(90 * time.Second)

	rec, ok, err := tr.Finish(context.Background(), Meta{Tag: "api", Note: 4, Done: "review"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Thales", rec.Category)
	assert.Equal(t, "0:01:30", rec.Duration)
	assert.Equal(t, 90.0, rec.DurationSeconds)
	assert.Equal(t, start, rec.Start)
	assert.Equal(t, 4, rec.Note)
	assert.NotEmpty(t, rec.ID)

	assert.Equal(t, 1, tr.Log().Len())
	assert.Equal(t, 1, ms.saves)
	st := tr.Status()
	assert.False(t, st.Running)
	assert.Zero(t, st.Elapsed)
}

func TestFinish_ZeroElapsedIsNoop(t *testing.T) {
	ms := &memStore{}
	tr, _ := newTracker(t, ms, nil)

	_, ok, err := tr.Finish(context.Background(), Meta{})
	require.NoError(t, err)
	assert.False(t, ok)

	tr.Toggle() // running, but no time has passed
	_, ok, err = tr.Finish(context.Background(), Meta{})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, tr.Log().Len())
	assert.Equal(t, 0, ms.saves)
}

func TestFinish_SaveFailureKeepsState(t *testing.T) {
	ms := &memStore{fail: errors.New("disk full")}
	tr, c := newTracker(t, ms, nil)
	tr.Toggle()
	c.advance(time.Minute)

	_, ok, err := tr.Finish(context.Background(), Meta{})
	require.Error(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, tr.Log().Len())
	assert.Equal(t, time.Minute, tr.Status().Elapsed)
}

func TestFinish_DefaultsNote(t *testing.T) {
	tr, c := newTracker(t, &memStore{}, nil)
	tr.Toggle()
	c.advance(time.Second)
	rec, _, err := tr.Finish(context.Background(), Meta{Note: 9})
	require.NoError(t, err)
	assert.Equal(t, session.DefaultNote, rec.Note)
}

func TestDelete_RemovesDisplayedIndex(t *testing.T) {
	ms := &memStore{}
	tr, c := newTracker(t, ms, nil)
	for _, d := range []time.Duration{time.Second, 2 * time.Second, 3 * time.Second} {
		tr.Toggle()
		c.advance(d)
		_, ok, err := tr.Finish(context.Background(), Meta{})
		require.NoError(t, err)
		require.True(t, ok)
		c.advance(time.Minute)
	}

	// displayed newest first: 3s, 2s, 1s
	removed, err := tr.Delete(context.Background(), "Études", 1)
	require.NoError(t, err)
	assert.Equal(t, 2.0, removed.DurationSeconds)

	recs := tr.Log().Records("Études")
	require.Len(t, recs, 2)
	assert.Equal(t, 1.0, recs[0].DurationSeconds)
	assert.Equal(t, 3.0, recs[1].DurationSeconds)

	stored, err := ms.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Len())

	_, err = tr.Delete(context.Background(), "Études", 5)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestCategories(t *testing.T) {
	tr, _ := newTracker(t, &memStore{}, nil)
	assert.Equal(t, "Études", tr.Status().Category)
	assert.Equal(t, "Thales", tr.CycleCategory(1))
	assert.Equal(t, "Autre", tr.CycleCategory(-2))
	assert.Equal(t, "Études", tr.CycleCategory(1))
	assert.ErrorIs(t, tr.SetCategory("Sport"), ErrUnknownCategory)

	_, err := New(context.Background(), Options{Store: &memStore{}, Categories: categories, DefaultCategory: "Sport"})
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestSample_AccumulatesWhileRunning(t *testing.T) {
	p := &stubProvider{tab: tabs.Tab{Title: "Go", URL: "https://go.dev/doc/"}, ok: true}
	tr, c := newTracker(t, &memStore{}, p)
	ctx := context.Background()

	tr.Sample(ctx) // paused: nothing
	assert.Empty(t, tr.TabTotals())

	tr.Toggle()
	c.advance(time.Second)
	tr.Sample(ctx)
	c.advance(time.Second)
	tr.Sample(ctx)

	p.ok = false
	c.advance(5 * time.Second)
	tr.Sample(ctx) // unknown tab: skipped

	p.ok = true
	c.advance(time.Second)
	tr.Sample(ctx)

	assert.Equal(t, map[string]float64{"go.dev/doc": 3}, tr.TabTotals())
	st := tr.Status()
	assert.True(t, st.HasTab)
	assert.Equal(t, "Go", st.Tab.Title)
	assert.Equal(t, 2, tr.SessionTabs()["go.dev/doc"].Opens, "coming back from an unknown tab reopens it")

	rec, ok, err := tr.Finish(ctx, Meta{})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, map[string]float64{"go.dev/doc": 3}, rec.Tabs)
	assert.Empty(t, tr.SessionTabs())
	assert.Len(t, tr.TabTotals(), 1, "totals outlive the session")
}

func TestClose_FinishesPending(t *testing.T) {
	ms := &memStore{}
	tr, c := newTracker(t, ms, nil)
	tr.Toggle()
	c.advance(42 * time.Second)
	require.NoError(t, tr.Close(context.Background()))
	assert.Equal(t, 1, ms.saves)
}

func TestReload_CorruptFileYieldsEmptyLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	js := store.NewJSONFile(path, zap.NewNop())
	tr, c := newTracker(t, js, nil)
	tr.Toggle()
	c.advance(time.Minute)
	_, _, err := tr.Finish(context.Background(), Meta{})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{"Études": [{"date": oops`), 0o644))
	require.NoError(t, tr.Reload(context.Background()))
	assert.Equal(t, 0, tr.Log().Len())

	require.NoError(t, os.Remove(path))
	require.NoError(t, tr.Reload(context.Background()))
	assert.Equal(t, 0, tr.Log().Len())
}

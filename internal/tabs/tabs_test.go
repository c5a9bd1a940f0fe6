package tabs

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCleanURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://www.github.com/foo/bar/?tab=1", "github.com/foo/bar"},
		{"http://example.org/", "example.org"},
		{"https://docs.python.org/3/library#x", "docs.python.org/3/library"},
		{"example.org", "example.org"},
		{"  ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanURL(tt.in), tt.in)
	}
}

func TestDomain(t *testing.T) {
	assert.Equal(t, "github.com", Domain("https://www.GitHub.com/foo"))
	assert.Equal(t, "localhost", Domain("http://localhost:8080/x"))
	assert.Equal(t, "github.com", Domain("github.com/foo/bar"))
}

func TestTab_Key(t *testing.T) {
	assert.Equal(t, "github.com/x", Tab{Title: "X", URL: "https://github.com/x/"}.Key())
	assert.Equal(t, "Notes", Tab{Title: " Notes "}.Key())
	assert.True(t, Tab{}.Empty())
}

func TestParseProcessList(t *testing.T) {
	ps := strings.Join([]string{
		"/usr/bin/zsh",
		"/opt/google/chrome/chrome --type=gpu-process",
		"/opt/google/chrome/chrome --type=renderer --lang=fr https://ignored.example/",
		"/opt/google/chrome/chrome --type=renderer --url=https://www.example.com/page?q=1",
	}, "\n")

	tab, ok := parseProcessList(strings.NewReader(ps), "chrome")
	require.True(t, ok)
	assert.Equal(t, "https://www.example.com/page?q=1", tab.URL)
	assert.Equal(t, "example.com/page", tab.Title)
}

func TestParseProcessList_Fallback(t *testing.T) {
	ps := "/usr/lib/firefox/firefox -contentproc --type=renderer https://news.ycombinator.com/item?id=1\n"
	tab, ok := parseProcessList(strings.NewReader(ps), "firefox")
	require.True(t, ok)
	assert.Equal(t, "news.ycombinator.com/item", tab.Title)

	_, ok = parseProcessList(strings.NewReader(ps), "chrome")
	assert.False(t, ok)
}

func TestProcScan_ErrorIsUnknown(t *testing.T) {
	p := NewProcScan("", zap.NewNop())
	p.listProcesses = func(context.Context) (io.Reader, error) { return nil, errors.New("no ps") }
	_, ok := p.Current(context.Background())
	assert.False(t, ok)
}

func TestExtension_Staleness(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	e := NewExtension(30 * time.Second)
	e.now = func() time.Time { return now }

	_, ok := e.Current(context.Background())
	assert.False(t, ok)

	e.Update(Tab{Title: "Go", URL: "https://go.dev"})
	tab, ok := e.Current(context.Background())
	require.True(t, ok)
	assert.Equal(t, "Go", tab.Title)
	assert.Equal(t, now, e.UpdatedAt())

	now = now.Add(31 * time.Second)
	_, ok = e.Current(context.Background())
	assert.False(t, ok)
}

type fixed struct {
	tab Tab
	ok  bool
}

func (f fixed) Current(context.Context) (Tab, bool) { return f.tab, f.ok }

func TestChain_FirstKnownWins(t *testing.T) {
	c := Chain{Nop{}, fixed{Tab{Title: "a"}, true}, fixed{Tab{Title: "b"}, true}}
	tab, ok := c.Current(context.Background())
	require.True(t, ok)
	assert.Equal(t, "a", tab.Title)

	_, ok = Chain{Nop{}}.Current(context.Background())
	assert.False(t, ok)
}

func TestAccumulator(t *testing.T) {
	a := NewAccumulator()
	t0 := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

	a.Sample("github.com", time.Second, t0)
	a.Sample("github.com", 2*time.Second, t0.Add(2*time.Second))
	a.Sample("go.dev", time.Second, t0.Add(3*time.Second))
	a.Sample("github.com", time.Second, t0.Add(4*time.Second))
	a.Sample("", time.Second, t0)

	assert.Equal(t, map[string]float64{"github.com": 4, "go.dev": 1}, a.Totals())
	stats := a.SessionStats()
	assert.Equal(t, 2, stats["github.com"].Opens)
	assert.Equal(t, t0.Add(4*time.Second), stats["github.com"].LastUsed)
	assert.Equal(t, "github.com", a.Current())

	a.ResetSession()
	assert.Nil(t, a.SessionSeconds())
	assert.Equal(t, "", a.Current())
	assert.Len(t, a.Totals(), 2, "totals survive a session reset")
}

func TestAccumulator_LeaveCountsReturnAsOpen(t *testing.T) {
	a := NewAccumulator()
	t0 := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

	a.Sample("go.dev", time.Second, t0)
	a.Leave()
	assert.Equal(t, "", a.Current())
	a.Sample("go.dev", time.Second, t0.Add(5*time.Second))

	stats := a.SessionStats()
	assert.Equal(t, 2, stats["go.dev"].Opens)
	assert.InDelta(t, 2, stats["go.dev"].Seconds, 1e-9)
	assert.Equal(t, "go.dev", a.Current())
}

package tabs

import (
	"sync"
	"time"
)

// Usage is what the current session knows about one page.
type Usage struct {
	Seconds  float64
	Opens    int
	LastUsed time.Time
}

// Accumulator sums seconds per page for the life of the process, plus a
// per-session view that is cleared whenever a session is finished.
type Accumulator struct {
	mu      sync.Mutex
	totals  map[string]float64
	session map[string]Usage
	current string
}

func NewAccumulator() *Accumulator {
	return &Accumulator{totals: map[string]float64{}, session: map[string]Usage{}}
}

// Sample credits elapsed to key. Switching to a different key counts as
// opening it.
func (a *Accumulator) Sample(key string, elapsed time.Duration, now time.Time) {
	if key == "" || elapsed < 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	secs := elapsed.Seconds()
	a.totals[key] += secs
	u := a.session[key]
	if key != a.current {
		u.Opens++
		a.current = key
	}
	u.Seconds += secs
	u.LastUsed = now
	a.session[key] = u
}

// Leave records that no page is in focus, so returning to the last page
// counts as a new open.
func (a *Accumulator) Leave() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.current = ""
}

func (a *Accumulator) Current() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// Totals returns a copy of the process-lifetime totals.
func (a *Accumulator) Totals() map[string]float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]float64, len(a.totals))
	for k, v := range a.totals {
		out[k] = v
	}
	return out
}

// SessionStats returns a copy of the per-session usage.
func (a *Accumulator) SessionStats() map[string]Usage {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]Usage, len(a.session))
	for k, v := range a.session {
		out[k] = v
	}
	return out
}

// SessionSeconds is SessionStats reduced to seconds, the shape stored on a record.
func (a *Accumulator) SessionSeconds() map[string]float64 {
	stats := a.SessionStats()
	if len(stats) == 0 {
		return nil
	}
	out := make(map[string]float64, len(stats))
	for k, v := range stats {
		out[k] = v.Seconds
	}
	return out
}

func (a *Accumulator) ResetSession() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.session = map[string]Usage{}
	a.current = ""
}

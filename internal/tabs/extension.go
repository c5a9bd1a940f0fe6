package tabs

import (
	"context"
	"sync"
	"time"
)

// Extension holds the last tab pushed by the browser extension.
type Extension struct {
	mu         sync.RWMutex
	tab        Tab
	updatedAt  time.Time
	staleAfter time.Duration
	now        func() time.Time
}

// NewExtension returns a provider whose tab expires staleAfter after its last
// update. Zero means it never expires.
func NewExtension(staleAfter time.Duration) *Extension {
	return &Extension{staleAfter: staleAfter, now: time.Now}
}

func (e *Extension) Update(tab Tab) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tab = tab
	e.updatedAt = e.now()
}

func (e *Extension) Current(context.Context) (Tab, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.tab.Empty() {
		return Tab{}, false
	}
	if e.staleAfter > 0 && e.now().Sub(e.updatedAt) > e.staleAfter {
		return Tab{}, false
	}
	return e.tab, true
}

// UpdatedAt is the time of the last push, zero if none.
func (e *Extension) UpdatedAt() time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.updatedAt
}

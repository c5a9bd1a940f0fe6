// Package stopwatch tracks running/paused state and the time accumulated
// while running.
package stopwatch

import (
	"fmt"
	"time"
)

type Stopwatch struct {
	running     bool
	accumulated time.Duration
	resumedAt   time.Time
	startedAt   time.Time
}

// Toggle starts or resumes a stopped watch and pauses a running one.
func (s *Stopwatch) Toggle(now time.Time) {
	if s.running {
		s.accumulated += nonNegative(now.Sub(s.resumedAt))
		s.running = false
		return
	}
	if s.startedAt.IsZero() {
		s.startedAt = now
	}
	s.resumedAt = now
	s.running = true
}

func (s *Stopwatch) Reset() {
	*s = Stopwatch{}
}

func (s *Stopwatch) Running() bool { return s.running }

// StartedAt is when the current run was first started, zero if never.
func (s *Stopwatch) StartedAt() time.Time { return s.startedAt }

func (s *Stopwatch) Elapsed(now time.Time) time.Duration {
	if !s.running {
		return s.accumulated
	}
	return s.accumulated + nonNegative(now.Sub(s.resumedAt))
}

// clock going backwards must never shrink the total
func nonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}

// Format renders d as HH:MM:SS for the widget label.
func Format(d time.Duration) string {
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}

// FormatShort renders d as H:MM:SS, the duration string stored with a record.
func FormatShort(d time.Duration) string {
	secs := int64(d / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}

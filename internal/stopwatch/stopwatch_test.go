package stopwatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStopwatch_ExcludesPausedIntervals(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	var s Stopwatch

	s.Toggle(t0) // start
	assert.True(t, s.Running())
	assert.Equal(t, 5*time.Minute, s.Elapsed(t0.Add(5*time.Minute)))

	s.Toggle(t0.Add(10 * time.Minute)) // pause
	assert.False(t, s.Running())
	assert.Equal(t, 10*time.Minute, s.Elapsed(t0.Add(time.Hour)))

	s.Toggle(t0.Add(30 * time.Minute)) // resume
	assert.Equal(t, 15*time.Minute, s.Elapsed(t0.Add(35*time.Minute)))

	s.Toggle(t0.Add(40 * time.Minute))
	assert.Equal(t, 20*time.Minute, s.Elapsed(t0.Add(50*time.Minute)))
	assert.Equal(t, t0, s.StartedAt())
}

func TestStopwatch_Reset(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	var s Stopwatch
	s.Toggle(t0)
	s.Reset()

	assert.False(t, s.Running())
	assert.Zero(t, s.Elapsed(t0.Add(time.Hour)))
	assert.True(t, s.StartedAt().IsZero())
}

func TestStopwatch_ClockSkewNeverNegative(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	var s Stopwatch
	s.Toggle(t0)
	assert.Zero(t, s.Elapsed(t0.Add(-time.Minute)))
	s.Toggle(t0.Add(-time.Minute))
	assert.Zero(t, s.Elapsed(t0))
}

func TestFormat(t *testing.T) {
	cases := []struct {
		d           time.Duration
		label, disk string
	}{
		{0, "00:00:00", "0:00:00"},
		{59*time.Second + 900*time.Millisecond, "00:00:59", "0:00:59"},
		{time.Hour + 2*time.Minute + 3*time.Second, "01:02:03", "1:02:03"},
		{27 * time.Hour, "27:00:00", "27:00:00"},
	}
	for _, c := range cases {
		assert.Equal(t, c.label, Format(c.d))
		assert.Equal(t, c.disk, FormatShort(c.d))
	}
}

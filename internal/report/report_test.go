package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeaOLLER/Chronotime/internal/config"
	"github.com/LeaOLLER/Chronotime/internal/session"
	"github.com/LeaOLLER/Chronotime/internal/stats"
)

var goal = config.Goal{DailyMinutes: 480, WorkDays: []int{1, 2, 3, 4, 5}}

func fixture(t *testing.T) *session.Log {
	t.Helper()
	log := session.NewLog()
	add := func(cat string, start time.Time, secs float64, tag string) {
		require.NoError(t, log.Append(session.Record{Category: cat, Start: start, DurationSeconds: secs, Tag: tag}))
	}
	add("Thales", time.Date(2025, 3, 12, 14, 0, 0, 0, time.Local), 3600, "")
	add("Études", time.Date(2025, 3, 12, 9, 0, 0, 0, time.Local), 5400, "math")
	add("Thales", time.Date(2025, 3, 10, 9, 0, 0, 0, time.Local), 1800, "")
	add("Thales", time.Date(2025, 1, 5, 9, 0, 0, 0, time.Local), 600, "")
	return log
}

func TestHumanDuration(t *testing.T) {
	assert.Equal(t, "0 mins", HumanDuration(0))
	assert.Equal(t, "1 min", HumanDuration(1))
	assert.Equal(t, "1 hr", HumanDuration(60))
	assert.Equal(t, "2 hrs", HumanDuration(120))
	assert.Equal(t, "1 hr 5 mins", HumanDuration(65))
	assert.Equal(t, "2 hr 1 mins", HumanDuration(121))
	assert.Equal(t, "45 mins", HumanDuration(45))
}

func TestGoalProgressAndPercent(t *testing.T) {
	assert.Equal(t, "0%", GoalProgress(10, 0))
	assert.Equal(t, "50% of 8 hrs", GoalProgress(240, 480))
	assert.Equal(t, "150% of 1 hr", GoalProgress(90, 60))
	assert.Equal(t, 100, GoalPercent(999, 480))
	assert.Equal(t, 50, GoalPercent(240, 480))
	assert.Equal(t, 0, GoalPercent(10, 0))
	assert.Equal(t, 0, GoalPercent(10, -5))
}

func TestToday_ListsChronologically(t *testing.T) {
	var buf bytes.Buffer
	now := time.Date(2025, 3, 12, 18, 0, 0, 0, time.Local) // Wednesday
	require.NoError(t, Write(&buf, fixture(t), "today", Options{Goal: goal, Now: now}))

	out := buf.String()
	assert.Contains(t, out, "09:00-10:30")
	assert.Contains(t, out, "Études (math)")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("09:00")), bytes.Index(buf.Bytes(), []byte("14:00")))
	assert.Contains(t, out, "Total tracked today : 2 hr 30 mins")
	assert.Contains(t, out, "Daily goal progress: 31% of 8 hrs")
}

func TestWeek_FilterAndGoal(t *testing.T) {
	var buf bytes.Buffer
	now := time.Date(2025, 3, 12, 18, 0, 0, 0, time.Local)
	opts := Options{Goal: goal, Now: now, Filter: stats.Filter{Category: "Thales"}}
	require.NoError(t, Write(&buf, fixture(t), "week", opts))

	out := buf.String()
	assert.Contains(t, out, "for week starting 2025-03-10")
	assert.Contains(t, out, "2025-03-10      | 30 mins")
	assert.Contains(t, out, "Total tracked week : 1 hr 30 mins")
	assert.Contains(t, out, "Goal progress: 3% of 40 hrs")
}

func TestYear(t *testing.T) {
	var buf bytes.Buffer
	now := time.Date(2025, 3, 12, 18, 0, 0, 0, time.Local)
	require.NoError(t, Write(&buf, fixture(t), "year", Options{Goal: goal, Now: now}))
	out := buf.String()
	assert.Contains(t, out, "Jan             | 10 mins")
	assert.Contains(t, out, "Mar             | 3 hrs")
}

func TestUnknownRange(t *testing.T) {
	assert.Error(t, Write(&bytes.Buffer{}, session.NewLog(), "decade", Options{}))
}

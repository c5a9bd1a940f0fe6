package stats

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeaOLLER/Chronotime/internal/session"
)

func at(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.Local)
}

func buildLog(t *testing.T, recs ...session.Record) *session.Log {
	t.Helper()
	log := session.NewLog()
	for _, r := range recs {
		if r.Note == 0 {
			r.Note = session.DefaultNote
		}
		require.NoError(t, log.Append(r))
	}
	return log
}

func TestCategoryTotals(t *testing.T) {
	log := buildLog(t,
		session.Record{Category: "Thales", Start: at(2025, 3, 10, 9), DurationSeconds: 1800, Tag: "x"},
		session.Record{Category: "Études", Start: at(2025, 3, 10, 10), DurationSeconds: 3600},
		session.Record{Category: "Thales", Start: at(2025, 3, 11, 9), DurationSeconds: 600},
	)

	got := CategoryTotals(log, Filter{})
	require.Len(t, got, 2)
	assert.Equal(t, CategoryTotal{Category: "Thales", Seconds: 2400, Sessions: 2}, got[0])
	assert.Equal(t, "Études", got[1].Category)
	assert.InDelta(t, 1.0, got[1].Hours(), 1e-9)

	got = CategoryTotals(log, Filter{Tag: "x"})
	require.Len(t, got, 1)
	assert.Equal(t, 1800.0, got[0].Seconds)
}

func TestByPeriod_ChronologicalBuckets(t *testing.T) {
	log := buildLog(t,
		session.Record{Category: "A", Start: at(2025, 1, 2, 9), DurationSeconds: 3600},
		session.Record{Category: "B", Start: at(2024, 12, 30, 9), DurationSeconds: 1800},
		session.Record{Category: "A", Start: at(2025, 1, 2, 15), DurationSeconds: 1800},
	)

	days := ByPeriod(log, Filter{}, Day)
	require.Len(t, days, 2)
	assert.Equal(t, "30/12", days[0].Label)
	assert.Equal(t, "02/01", days[1].Label)
	assert.InDelta(t, 1.5, days[1].Hours, 1e-9)

	weeks := ByPeriod(log, Filter{}, Week)
	require.Len(t, weeks, 1, "30 Dec 2024 and 2 Jan 2025 share ISO week 1")
	assert.Equal(t, "2025-W01", weeks[0].Label)

	months := ByPeriod(log, Filter{Category: "A"}, Month)
	require.Len(t, months, 1)
	assert.Equal(t, "01/2025", months[0].Label)

	years := ByPeriod(log, Filter{}, Year)
	require.Len(t, years, 2)
	assert.Equal(t, []string{"2024", "2025"}, []string{years[0].Label, years[1].Label})
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod(" Week ")
	require.NoError(t, err)
	assert.Equal(t, Week, p)
	_, err = ParsePeriod("fortnight")
	assert.Error(t, err)
	assert.Equal(t, Day, Year.Next())
	assert.Equal(t, Week, Day.Next())
}

func TestDailyTotals(t *testing.T) {
	log := buildLog(t,
		session.Record{Category: "A", Start: at(2025, 3, 9, 9), DurationSeconds: 100},
		session.Record{Category: "A", Start: at(2025, 3, 10, 9), DurationSeconds: 60},
		session.Record{Category: "A", Start: at(2025, 3, 12, 23), DurationSeconds: 30},
		session.Record{Category: "A", Start: at(2025, 3, 20, 9), DurationSeconds: 5},
	)
	assert.Equal(t, []float64{60, 0, 30}, DailyTotals(log, Filter{}, at(2025, 3, 10, 17), 3))
	assert.Nil(t, DailyTotals(log, Filter{}, at(2025, 3, 10, 0), 0))
}

func TestTopTabs(t *testing.T) {
	m := map[string]float64{"b": 10, "a": 10, "c": 30, "d": 1}
	got := TopTabs(m, 3)
	assert.Equal(t, []TabStat{{"c", 30}, {"a", 10}, {"b", 10}}, got)
	assert.Len(t, TopTabs(m, -1), 4)
}

func TestStartOfWeek(t *testing.T) {
	assert.Equal(t, at(2025, 3, 10, 0), StartOfWeek(at(2025, 3, 16, 22)))
	assert.Equal(t, at(2025, 3, 10, 0), StartOfWeek(at(2025, 3, 10, 8)))
}

func TestWeekly(t *testing.T) {
	monday := at(2025, 3, 10, 0)
	recs := []session.Record{
		{Category: "Thales", Start: at(2025, 3, 10, 9), DurationSeconds: 3600, Note: 4, Tag: "api",
			Tabs: map[string]float64{"github.com/a": 600, "www.github.com/b": 300, "go.dev/doc": 100}},
		{Category: "Thales", Start: at(2025, 3, 11, 9), DurationSeconds: 1800, Note: 2, Tag: "api"},
		{Category: "Études", Start: at(2025, 3, 12, 14), DurationSeconds: 5400, Note: 5},
		{Category: "Études", Start: at(2025, 3, 3, 9), DurationSeconds: 9999, Note: 1},  // previous week
		{Category: "Études", Start: at(2025, 3, 17, 9), DurationSeconds: 9999, Note: 1}, // next week
	}

	d := Weekly(recs, monday)
	assert.Equal(t, 3, d.Sessions)
	assert.Equal(t, 10800.0, d.TotalSeconds)
	assert.Equal(t, []Named{{"Thales", 5400}, {"Études", 5400}}, d.Categories, "ties sort by name")
	assert.Equal(t, []Named{{"api", 5400}}, d.TopTags)
	assert.Equal(t, 1, d.TagsUsed)
	assert.InDelta(t, 11.0/3, d.AverageNote, 1e-9)
	assert.Equal(t, [6]int{0, 0, 1, 0, 1, 1}, d.NoteCounts)
	require.NotNil(t, d.BestDay)
	assert.Equal(t, time.Wednesday, d.BestDay.Weekday)
	require.NotNil(t, d.BestHour)
	assert.Equal(t, 9, d.BestHour.Hour)
	assert.InDelta(t, 3.0, d.BestHour.Average, 1e-9)
	assert.Equal(t, []Named{{"github.com", 900}, {"go.dev", 100}}, d.TopSites)
	assert.Equal(t, time.Hour, d.AverageSession())

	out := d.Render()
	assert.True(t, strings.HasPrefix(out, "**WEEKLY REPORT**\nWeek of 10/03/2025"))
	assert.Contains(t, out, "**Thales** : 1h30m")
	assert.Contains(t, out, "Best slot : 09h-10h (3.0/5)")
	assert.Contains(t, out, "1. github.com : 0h15m")
	assert.Contains(t, out, "Average session : 1h00m")
}

func TestWeekly_BestHourNeedsTwoSessions(t *testing.T) {
	d := Weekly([]session.Record{{Category: "A", Start: at(2025, 3, 10, 9), DurationSeconds: 60, Note: 5}}, at(2025, 3, 10, 0))
	assert.Nil(t, d.BestHour)
	assert.NotNil(t, d.BestDay)
}

func TestWeekly_Empty(t *testing.T) {
	d := Weekly(nil, at(2025, 3, 10, 0))
	assert.Equal(t, NoActivity, d.Render())
}

// Package stats aggregates the session log for charts, reports and the
// weekly digest.
package stats

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/LeaOLLER/Chronotime/internal/session"
)

// Filter narrows the records an aggregation sees. Empty fields match all.
type Filter struct {
	Category string
	Tag      string
}

func (f Filter) Match(r session.Record) bool {
	if f.Category != "" && r.Category != f.Category {
		return false
	}
	if f.Tag != "" && r.Tag != f.Tag {
		return false
	}
	return true
}

// Records returns the matching records sorted by start.
func (f Filter) Records(log *session.Log) []session.Record {
	var out []session.Record
	for _, r := range log.All() {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

type CategoryTotal struct {
	Category string
	Seconds  float64
	Sessions int
}

func (c CategoryTotal) Hours() float64 { return c.Seconds / 3600 }

// CategoryTotals sums durations per category, in log category order.
// Categories without matching records are left out.
func CategoryTotals(log *session.Log, f Filter) []CategoryTotal {
	var out []CategoryTotal
	for _, c := range log.Categories() {
		t := CategoryTotal{Category: c}
		for _, r := range log.Records(c) {
			if !f.Match(r) {
				continue
			}
			t.Seconds += r.DurationSeconds
			t.Sessions++
		}
		if t.Sessions > 0 {
			out = append(out, t)
		}
	}
	return out
}

type Period string

const (
	Day   Period = "day"
	Week  Period = "week"
	Month Period = "month"
	Year  Period = "year"
)

var Periods = []Period{Day, Week, Month, Year}

func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case Day, Week, Month, Year:
		return p, nil
	}
	return "", fmt.Errorf("unknown period %q (want day, week, month or year)", s)
}

// Next cycles day -> week -> month -> year -> day.
func (p Period) Next() Period {
	for i, q := range Periods {
		if q == p {
			return Periods[(i+1)%len(Periods)]
		}
	}
	return Day
}

// Floor returns the start of the period containing t. Weeks start on Monday.
func (p Period) Floor(t time.Time) time.Time {
	day := StartOfDay(t)
	switch p {
	case Week:
		return StartOfWeek(t)
	case Month:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	case Year:
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	default:
		return day
	}
}

// Label renders the bucket label for a period start.
func (p Period) Label(start time.Time) string {
	switch p {
	case Week:
		y, w := start.ISOWeek()
		return fmt.Sprintf("%d-W%02d", y, w)
	case Month:
		return start.Format("01/2006")
	case Year:
		return start.Format("2006")
	default:
		return start.Format("02/01")
	}
}

type Bucket struct {
	Start time.Time
	Label string
	Hours float64
}

// ByPeriod groups matching records into period buckets, oldest first.
func ByPeriod(log *session.Log, f Filter, p Period) []Bucket {
	sums := map[time.Time]float64{}
	for _, r := range f.Records(log) {
		sums[p.Floor(r.Start)] += r.DurationSeconds
	}
	out := make([]Bucket, 0, len(sums))
	for start, secs := range sums {
		out = append(out, Bucket{Start: start, Label: p.Label(start), Hours: secs / 3600})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// DailyTotals returns one value per day starting at from, in seconds. Days
// without sessions are zero.
func DailyTotals(log *session.Log, f Filter, from time.Time, days int) []float64 {
	if days <= 0 {
		return nil
	}
	first := StartOfDay(from)
	out := make([]float64, days)
	for _, r := range f.Records(log) {
		d := StartOfDay(r.Start)
		if d.Before(first) {
			continue
		}
		idx := daysBetween(first, d)
		if idx < days {
			out[idx] += r.DurationSeconds
		}
	}
	return out
}

type TabStat struct {
	Key     string
	Seconds float64
}

// TopTabs returns the n largest entries of m, by seconds then key.
func TopTabs(m map[string]float64, n int) []TabStat {
	out := make([]TabStat, 0, len(m))
	for k, v := range m {
		out = append(out, TabStat{Key: k, Seconds: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Seconds != out[j].Seconds {
			return out[i].Seconds > out[j].Seconds
		}
		return out[i].Key < out[j].Key
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Tags returns the distinct non-empty tags of the log, sorted.
func Tags(log *session.Log) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range log.All() {
		if r.Tag != "" && !seen[r.Tag] {
			seen[r.Tag] = true
			out = append(out, r.Tag)
		}
	}
	sort.Strings(out)
	return out
}

func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// StartOfWeek returns midnight of the Monday of t's week.
func StartOfWeek(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 { // Sunday -> 7
		weekday = 7
	}
	return StartOfDay(t).AddDate(0, 0, -(weekday - 1))
}

// daysBetween counts calendar days, so DST shifts do not skew the index.
func daysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

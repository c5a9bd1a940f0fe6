// Package report prints plain-text period summaries of the session log.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/LeaOLLER/Chronotime/internal/config"
	"github.com/LeaOLLER/Chronotime/internal/session"
	"github.com/LeaOLLER/Chronotime/internal/stats"
)

var Ranges = []string{"today", "week", "month", "year"}

// Options selects what a report covers.
type Options struct {
	Filter stats.Filter
	Goal   config.Goal
	Now    time.Time
}

// Write prints the report for rng (today, week, month or year).
func Write(w io.Writer, log *session.Log, rng string, opts Options) error {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	switch rng {
	case "today":
		Today(w, log, opts, now)
	case "week":
		start := stats.StartOfWeek(now)
		AggregateDaily(w, log, opts, start, 7, fmt.Sprintf("for week starting %s", start.Format("2006-01-02")))
	case "month":
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		days := start.AddDate(0, 1, -1).Day()
		AggregateDaily(w, log, opts, start, days, fmt.Sprintf("for month %s", start.Format("2006-01")))
	case "year":
		YearMonthly(w, log, opts, now.Year(), now.Location())
	default:
		return fmt.Errorf("unknown range %q (want %s)", rng, strings.Join(Ranges, ", "))
	}
	return nil
}

// Today lists the day's sessions in chronological order.
func Today(w io.Writer, log *session.Log, opts Options, now time.Time) {
	start := stats.StartOfDay(now)
	end := start.AddDate(0, 0, 1)

	fmt.Fprintln(w, now.Format("Date : Jan 2, 2006 , Monday"))
	fmt.Fprintln(w, strings.Repeat("-", 50))
	fmt.Fprintf(w, "%-15s | %-12s | %s\n", "Time Range", "Duration", "Category")
	fmt.Fprintln(w, strings.Repeat("-", 50))

	total := 0.0
	for _, r := range opts.Filter.Records(log) {
		if r.Start.Before(start) || !r.Start.Before(end) {
			continue
		}
		stop := r.Start.Add(r.Elapsed())
		desc := r.Category
		if r.Tag != "" {
			desc += " (" + r.Tag + ")"
		}
		fmt.Fprintf(w, "%s-%-9s | %-12s | %s\n", r.Start.Format("15:04"), stop.Format("15:04"),
			HumanDuration(minutes(r.DurationSeconds)), desc)
		total += r.DurationSeconds
	}
	fmt.Fprintln(w, strings.Repeat("-", 50))
	fmt.Fprintf(w, "Total tracked today : %s\n", HumanDuration(minutes(total)))
	if config.IsWorkDay(now, opts.Goal.WorkDays) {
		fmt.Fprintf(w, "Daily goal progress: %s\n", GoalProgress(minutes(total), opts.Goal.DailyMinutes))
	}
}

// AggregateDaily prints one row per day, used for week and month ranges.
func AggregateDaily(w io.Writer, log *session.Log, opts Options, start time.Time, days int, title string) {
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("-", 50))
	fmt.Fprintf(w, "%-15s | %s\n", "Date", "Tracked Time")
	fmt.Fprintln(w, strings.Repeat("-", 50))

	totals := stats.DailyTotals(log, opts.Filter, start, days)
	total := 0
	workDays := 0
	for i, secs := range totals {
		d := start.AddDate(0, 0, i)
		mins := minutes(secs)
		total += mins
		if config.IsWorkDay(d, opts.Goal.WorkDays) {
			workDays++
		}
		fmt.Fprintf(w, "%-15s | %s\n", d.Format("2006-01-02"), HumanDuration(mins))
	}
	fmt.Fprintln(w, strings.Repeat("-", 50))

	lower := strings.ToLower(title)
	noun := "range"
	if strings.Contains(lower, "week") {
		noun = "week"
	}
	if strings.Contains(lower, "month") {
		noun = "month"
	}
	fmt.Fprintf(w, "Total tracked %s : %s\n", noun, HumanDuration(total))
	if workDays > 0 {
		fmt.Fprintf(w, "Goal progress: %s\n", GoalProgress(total, workDays*opts.Goal.DailyMinutes))
	}
}

// YearMonthly prints monthly totals for year.
func YearMonthly(w io.Writer, log *session.Log, opts Options, year int, loc *time.Location) {
	fmt.Fprintf(w, "for year %d (monthly totals)\n", year)
	fmt.Fprintln(w, strings.Repeat("-", 50))
	fmt.Fprintf(w, "%-15s | %s\n", "Month", "Tracked Time")
	fmt.Fprintln(w, strings.Repeat("-", 50))

	perMonth := make([]float64, 12)
	for _, r := range opts.Filter.Records(log) {
		t := r.Start.In(loc)
		if t.Year() == year {
			perMonth[t.Month()-1] += r.DurationSeconds
		}
	}

	total := 0
	workDays := 0
	for m := time.January; m <= time.December; m++ {
		start := time.Date(year, m, 1, 0, 0, 0, 0, loc)
		mins := minutes(perMonth[m-1])
		total += mins
		fmt.Fprintf(w, "%-15s | %s\n", start.Format("Jan"), HumanDuration(mins))
		next := start.AddDate(0, 1, 0)
		for d := start; d.Before(next); d = d.AddDate(0, 0, 1) {
			if config.IsWorkDay(d, opts.Goal.WorkDays) {
				workDays++
			}
		}
	}
	fmt.Fprintln(w, strings.Repeat("-", 50))
	fmt.Fprintf(w, "Total tracked year : %s\n", HumanDuration(total))
	fmt.Fprintf(w, "Goal progress: %s\n", GoalProgress(total, workDays*opts.Goal.DailyMinutes))
}

// HumanDuration renders whole minutes as "45 mins", "2 hrs" or "1 hr 5 mins".
func HumanDuration(mins int) string {
	h, m := mins/60, mins%60
	switch {
	case h == 0:
		return count(m, "min")
	case m == 0:
		return count(h, "hr")
	}
	return fmt.Sprintf("%d hr %d mins", h, m)
}

func count(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// share is workMins as a whole percentage of goalMins. ok is false when there
// is no goal.
func share(workMins, goalMins int) (pct int, ok bool) {
	if goalMins <= 0 {
		return 0, false
	}
	return workMins * 100 / goalMins, true
}

// GoalProgress reads like "50% of 8 hrs".
func GoalProgress(workMins, goalMins int) string {
	pct, ok := share(workMins, goalMins)
	if !ok {
		return "0%"
	}
	return fmt.Sprintf("%d%% of %s", pct, HumanDuration(goalMins))
}

// GoalPercent is the share of the goal reached, capped at 100.
func GoalPercent(workMins, goalMins int) int {
	pct, _ := share(workMins, goalMins)
	return min(pct, 100)
}

func minutes(seconds float64) int { return int(seconds / 60) }

package stats

import (
	"fmt"
	"strings"
	"time"

	"github.com/LeaOLLER/Chronotime/internal/session"
	"github.com/LeaOLLER/Chronotime/internal/tabs"
)

const (
	digestTopTags  = 5
	digestTopSites = 3
	// an hour slot needs this many sessions before it can be "best"
	minHourSessions = 2
)

// NoActivity is the digest text for an empty week.
const NoActivity = "**Weekly report**\nNo activity recorded this week."

type Named struct {
	Name    string
	Seconds float64
}

type DayScore struct {
	Weekday time.Weekday
	Average float64
}

type HourScore struct {
	Hour    int
	Average float64
}

// Digest summarises one week of sessions.
type Digest struct {
	WeekStart    time.Time
	Manual       bool
	Categories   []Named
	TopTags      []Named
	TagsUsed     int
	AverageNote  float64
	NoteCounts   [6]int // index = note
	BestDay      *DayScore
	BestHour     *HourScore
	TopSites     []Named
	TotalSeconds float64
	Sessions     int
}

// Weekly builds the digest for the seven days starting at weekStart.
func Weekly(records []session.Record, weekStart time.Time) Digest {
	weekStart = StartOfDay(weekStart)
	weekEnd := weekStart.AddDate(0, 0, 7)
	d := Digest{WeekStart: weekStart}

	categories := map[string]float64{}
	tagTotals := map[string]float64{}
	sites := map[string]float64{}
	notesByDay := map[time.Weekday][]int{}
	notesByHour := map[int][]int{}
	noteSum := 0

	for _, r := range records {
		if r.Start.Before(weekStart) || !r.Start.Before(weekEnd) {
			continue
		}
		d.Sessions++
		d.TotalSeconds += r.DurationSeconds
		categories[r.Category] += r.DurationSeconds
		if tag := strings.TrimSpace(r.Tag); tag != "" {
			tagTotals[tag] += r.DurationSeconds
		}
		for url, secs := range r.Tabs {
			sites[tabs.Domain(url)] += secs
		}
		note := r.Note
		if note < 1 || note > 5 {
			note = session.DefaultNote
		}
		noteSum += note
		d.NoteCounts[note]++
		notesByDay[r.Start.Weekday()] = append(notesByDay[r.Start.Weekday()], note)
		notesByHour[r.Start.Hour()] = append(notesByHour[r.Start.Hour()], note)
	}
	if d.Sessions == 0 {
		return d
	}

	d.Categories = sortedNamed(categories, -1)
	d.TopTags = sortedNamed(tagTotals, digestTopTags)
	d.TagsUsed = len(tagTotals)
	d.TopSites = sortedNamed(sites, digestTopSites)
	d.AverageNote = float64(noteSum) / float64(d.Sessions)

	for i := 0; i < 7; i++ {
		wd := time.Weekday((int(time.Monday) + i) % 7)
		notes, ok := notesByDay[wd]
		if !ok {
			continue
		}
		if avg := average(notes); d.BestDay == nil || avg > d.BestDay.Average {
			d.BestDay = &DayScore{Weekday: wd, Average: avg}
		}
	}
	for h := 0; h < 24; h++ {
		notes := notesByHour[h]
		if len(notes) < minHourSessions {
			continue
		}
		if avg := average(notes); d.BestHour == nil || avg > d.BestHour.Average {
			d.BestHour = &HourScore{Hour: h, Average: avg}
		}
	}
	return d
}

// AverageSession is the mean session length.
func (d Digest) AverageSession() time.Duration {
	if d.Sessions == 0 {
		return 0
	}
	return time.Duration(d.TotalSeconds / float64(d.Sessions) * float64(time.Second))
}

// Render formats the digest as chat-friendly markdown.
func (d Digest) Render() string {
	if d.Sessions == 0 {
		return NoActivity
	}
	var b strings.Builder
	b.WriteString("**WEEKLY REPORT**")
	if d.Manual {
		b.WriteString(" (sent manually)")
	}
	fmt.Fprintf(&b, "\nWeek of %s\n\n", d.WeekStart.Format("02/01/2006"))

	b.WriteString("**TIME BY CATEGORY**\n")
	for _, c := range d.Categories {
		fmt.Fprintf(&b, "**%s** : %s\n", c.Name, hm(c.Seconds))
	}

	if len(d.TopTags) > 0 {
		b.WriteString("\n**TIME BY TAG**\n")
		for _, t := range d.TopTags {
			fmt.Fprintf(&b, "**%s** : %s\n", t.Name, hm(t.Seconds))
		}
	}

	b.WriteString("\n**PRODUCTIVITY**\n")
	fmt.Fprintf(&b, "Average note : %.1f/5\n", d.AverageNote)
	b.WriteString("Notes :")
	for note := 1; note <= 5; note++ {
		if n := d.NoteCounts[note]; n > 0 {
			fmt.Fprintf(&b, " %d★(%d)", note, n)
		}
	}
	b.WriteString("\n")
	if d.BestDay != nil {
		fmt.Fprintf(&b, "Best day : %s (%.1f/5)\n", d.BestDay.Weekday, d.BestDay.Average)
	}
	if d.BestHour != nil {
		fmt.Fprintf(&b, "Best slot : %02dh-%02dh (%.1f/5)\n", d.BestHour.Hour, d.BestHour.Hour+1, d.BestHour.Average)
	}

	if len(d.TopSites) > 0 {
		b.WriteString("\n**TOP SITES**\n")
		for i, s := range d.TopSites {
			fmt.Fprintf(&b, "%d. %s : %s\n", i+1, s.Name, hm(s.Seconds))
		}
	}

	b.WriteString("\n**OVERALL**\n")
	fmt.Fprintf(&b, "Total time : %s\n", hm(d.TotalSeconds))
	fmt.Fprintf(&b, "Sessions : %d\n", d.Sessions)
	if d.TagsUsed > 0 {
		fmt.Fprintf(&b, "Tags used : %d\n", d.TagsUsed)
	}
	fmt.Fprintf(&b, "Average session : %s\n", hm(d.AverageSession().Seconds()))
	return b.String()
}

func sortedNamed(m map[string]float64, n int) []Named {
	var out []Named
	for _, t := range TopTabs(m, n) {
		out = append(out, Named{Name: t.Key, Seconds: t.Seconds})
	}
	return out
}

func average(xs []int) float64 {
	sum := 0
	for _, x := range xs {
		sum += x
	}
	return float64(sum) / float64(len(xs))
}

func hm(seconds float64) string {
	s := int(seconds)
	return fmt.Sprintf("%dh%02dm", s/3600, (s%3600)/60)
}

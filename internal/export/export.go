// Package export writes the session log as CSV for spreadsheets.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/LeaOLLER/Chronotime/internal/session"
)

// Sessions writes one row per record.
func Sessions(w io.Writer, records []session.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "duration", "category", "tag", "note", "done", "todo"}); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.Start.Format(session.DateLayout),
			r.Duration,
			r.Category,
			r.Tag,
			strconv.Itoa(r.Note),
			r.Done,
			r.Todo,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Totals writes three sections: hours per category, per day and per ISO week,
// separated by blank rows.
func Totals(w io.Writer, records []session.Record) error {
	cw := csv.NewWriter(w)

	byCategory := map[string]float64{}
	byDay := map[string]float64{}
	byWeek := map[string]float64{}
	for _, r := range records {
		byCategory[r.Category] += r.DurationSeconds
		byDay[r.Start.Format("2006-01-02")] += r.DurationSeconds
		byWeek[isoWeek(r.Start)] += r.DurationSeconds
	}

	sections := []struct {
		header string
		sums   map[string]float64
	}{
		{"category", byCategory},
		{"day", byDay},
		{"week", byWeek},
	}
	for i, s := range sections {
		if i > 0 {
			if err := cw.Write([]string{}); err != nil {
				return err
			}
		}
		if err := cw.Write([]string{s.header, "hours"}); err != nil {
			return err
		}
		keys := make([]string, 0, len(s.sums))
		for k := range s.sums {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := cw.Write([]string{k, fmt.Sprintf("%.2f", s.sums[k]/3600)}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func isoWeek(t time.Time) string {
	y, w := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", y, w)
}

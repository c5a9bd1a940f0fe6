// Package session holds completed stopwatch runs and the per-category log they
// are appended to.
package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"
)

// DateLayout is the on-disk layout of a record's start timestamp.
const DateLayout = "2006-01-02 15:04:05"

// DefaultNote is the rating a session gets when none is given.
const DefaultNote = 3

var (
	ErrNotFound         = errors.New("session not found")
	ErrNegativeDuration = errors.New("negative session duration")
)

// Record is one finished stopwatch run.
type Record struct {
	ID              string
	Category        string
	Start           time.Time
	Duration        string
	DurationSeconds float64
	Tag             string
	Note            int
	Done            string
	Todo            string
	Tabs            map[string]float64
}

type recordJSON struct {
	ID              string             `json:"id,omitempty"`
	Date            string             `json:"date"`
	Duration        string             `json:"duration"`
	DurationSeconds float64            `json:"duration_seconds"`
	Tag             string             `json:"tag,omitempty"`
	Note            int                `json:"note,omitempty"`
	Done            string             `json:"done,omitempty"`
	Todo            string             `json:"todo,omitempty"`
	Tabs            map[string]float64 `json:"tabs,omitempty"`
}

// Elapsed returns the record's duration as a time.Duration.
func (r Record) Elapsed() time.Duration {
	return time.Duration(r.DurationSeconds * float64(time.Second))
}

func (r Record) toJSON() recordJSON {
	return recordJSON{
		ID:              r.ID,
		Date:            r.Start.Format(DateLayout),
		Duration:        r.Duration,
		DurationSeconds: r.DurationSeconds,
		Tag:             r.Tag,
		Note:            r.Note,
		Done:            r.Done,
		Todo:            r.Todo,
		Tabs:            r.Tabs,
	}
}

func (j recordJSON) toRecord(category string) (Record, error) {
	start, err := time.ParseInLocation(DateLayout, j.Date, time.Local)
	if err != nil {
		return Record{}, fmt.Errorf("parse date %q: %w", j.Date, err)
	}
	note := j.Note
	if note == 0 {
		note = DefaultNote
	}
	return Record{
		ID:              j.ID,
		Category:        category,
		Start:           start,
		Duration:        j.Duration,
		DurationSeconds: j.DurationSeconds,
		Tag:             j.Tag,
		Note:            note,
		Done:            j.Done,
		Todo:            j.Todo,
		Tabs:            j.Tabs,
	}, nil
}

// Log maps a category to its records. Both categories and records keep their
// insertion order.
type Log struct {
	order   []string
	records map[string][]Record
}

func NewLog() *Log {
	return &Log{records: map[string][]Record{}}
}

// Append adds rec at the end of its category.
func (l *Log) Append(rec Record) error {
	if rec.DurationSeconds < 0 {
		return ErrNegativeDuration
	}
	if _, ok := l.records[rec.Category]; !ok {
		l.order = append(l.order, rec.Category)
	}
	l.records[rec.Category] = append(l.records[rec.Category], rec)
	return nil
}

// EnsureCategory registers category without adding records to it.
func (l *Log) EnsureCategory(category string) {
	if _, ok := l.records[category]; !ok {
		l.order = append(l.order, category)
		l.records[category] = []Record{}
	}
}

// Categories returns category names in first-insertion order.
func (l *Log) Categories() []string {
	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}

// Records returns the chronological records of category.
func (l *Log) Records(category string) []Record {
	src := l.records[category]
	out := make([]Record, len(src))
	copy(out, src)
	return out
}

// Displayed returns the records of category newest first, the order the
// detail list shows them in.
func (l *Log) Displayed(category string) []Record {
	src := l.records[category]
	out := make([]Record, len(src))
	for i := range src {
		out[i] = src[len(src)-1-i]
	}
	return out
}

// DeleteDisplayed removes the record shown at index i of Displayed(category).
func (l *Log) DeleteDisplayed(category string, i int) (Record, error) {
	recs, ok := l.records[category]
	if !ok {
		return Record{}, fmt.Errorf("category %q: %w", category, ErrNotFound)
	}
	real := len(recs) - 1 - i
	if i < 0 || real < 0 {
		return Record{}, fmt.Errorf("category %q index %d: %w", category, i, ErrNotFound)
	}
	removed := recs[real]
	next := make([]Record, 0, len(recs)-1)
	next = append(next, recs[:real]...)
	next = append(next, recs[real+1:]...)
	// an emptied category keeps its key and position
	l.records[category] = next
	return removed, nil
}

// All returns every record sorted by start time.
func (l *Log) All() []Record {
	var out []Record
	for _, c := range l.order {
		out = append(out, l.records[c]...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

func (l *Log) Len() int {
	n := 0
	for _, recs := range l.records {
		n += len(recs)
	}
	return n
}

func (l *Log) Clone() *Log {
	c := NewLog()
	c.order = append(c.order, l.order...)
	for k, v := range l.records {
		c.records[k] = append([]Record(nil), v...)
	}
	return c
}

// MarshalJSON writes the log as an object keyed by category, keys in order.
func (l *Log) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range l.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		recs := l.records[c]
		out := make([]recordJSON, len(recs))
		for j, r := range recs {
			out[j] = r.toJSON()
		}
		val, err := json.Marshal(out)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the category object while keeping key order.
func (l *Log) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("session log: expected object, got %v", tok)
	}
	fresh := NewLog()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		category, ok := tok.(string)
		if !ok {
			return fmt.Errorf("session log: expected category key, got %v", tok)
		}
		var raw []recordJSON
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("category %q: %w", category, err)
		}
		fresh.EnsureCategory(category)
		for _, rj := range raw {
			rec, err := rj.toRecord(category)
			if err != nil {
				return fmt.Errorf("category %q: %w", category, err)
			}
			if rec.DurationSeconds < 0 {
				return fmt.Errorf("category %q: %w", category, ErrNegativeDuration)
			}
			fresh.records[category] = append(fresh.records[category], rec)
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*l = *fresh
	return nil
}

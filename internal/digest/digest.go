// Package digest posts the weekly summary to a chat webhook.
package digest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/LeaOLLER/Chronotime/internal/session"
	"github.com/LeaOLLER/Chronotime/internal/stats"
)

var ErrNoWebhook = errors.New("no webhook url configured")

// NextRun returns the first weekday at hour:00 strictly after now.
func NextRun(now time.Time, weekday time.Weekday, hour int) time.Time {
	days := (int(weekday) - int(now.Weekday()) + 7) % 7
	next := time.Date(now.Year(), now.Month(), now.Day()+days, hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}

// Webhook delivers a message as {"content": ...}, the shape Discord and
// compatible chat webhooks accept.
type Webhook struct {
	URL    string
	Client *http.Client
}

func NewWebhook(url string) *Webhook {
	return &Webhook{URL: url, Client: &http.Client{Timeout: 15 * time.Second}}
}

func (w *Webhook) Send(ctx context.Context, content string) error {
	if w.URL == "" {
		return ErrNoWebhook
	}
	body, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := w.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("post digest: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}
	return nil
}

// Sender is anything a digest can be delivered to.
type Sender interface {
	Send(ctx context.Context, content string) error
}

// Source returns the current session log.
type Source func() *session.Log

// Build renders the digest of the week containing now.
func Build(log *session.Log, now time.Time, manual bool) string {
	d := stats.Weekly(log.All(), stats.StartOfWeek(now))
	d.Manual = manual
	return d.Render()
}

// Scheduler sends the weekly digest at a fixed weekday and hour.
type Scheduler struct {
	Sender  Sender
	Source  Source
	Weekday time.Weekday
	Hour    int
	Logger  *zap.Logger
	Now     func() time.Time
}

// Run blocks until ctx is done. Send failures are logged and the next week is
// scheduled anyway.
func (s *Scheduler) Run(ctx context.Context) error {
	now := s.Now
	if now == nil {
		now = time.Now
	}
	for {
		next := NextRun(now(), s.Weekday, s.Hour)
		s.Logger.Info("next weekly digest scheduled", zap.Time("at", next))

		timer := time.NewTimer(next.Sub(now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}

		content := Build(s.Source(), now(), false)
		if err := s.Sender.Send(ctx, content); err != nil {
			s.Logger.Error("weekly digest failed", zap.Error(err))
			continue
		}
		s.Logger.Info("weekly digest sent")
	}
}

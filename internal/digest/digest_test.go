package digest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/LeaOLLER/Chronotime/internal/session"
	"github.com/LeaOLLER/Chronotime/internal/stats"
)

func TestNextRun(t *testing.T) {
	loc := time.Local
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"midweek", time.Date(2025, 3, 12, 10, 0, 0, 0, loc), time.Date(2025, 3, 16, 20, 0, 0, 0, loc)},
		{"sunday before hour", time.Date(2025, 3, 16, 19, 59, 0, 0, loc), time.Date(2025, 3, 16, 20, 0, 0, 0, loc)},
		{"sunday at hour", time.Date(2025, 3, 16, 20, 0, 0, 0, loc), time.Date(2025, 3, 23, 20, 0, 0, 0, loc)},
		{"sunday after hour", time.Date(2025, 3, 16, 21, 0, 0, 0, loc), time.Date(2025, 3, 23, 20, 0, 0, 0, loc)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextRun(tt.now, time.Sunday, 20))
		})
	}
}

func TestWebhook_Send(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	require.NoError(t, NewWebhook(srv.URL).Send(context.Background(), "hello"))
	assert.Equal(t, map[string]string{"content": "hello"}, got)
}

func TestWebhook_Non2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := NewWebhook(srv.URL).Send(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "bad token")

	assert.ErrorIs(t, NewWebhook("").Send(context.Background(), "x"), ErrNoWebhook)
}

func TestBuild(t *testing.T) {
	log := session.NewLog()
	now := time.Date(2025, 3, 16, 20, 0, 0, 0, time.Local)
	assert.Equal(t, stats.NoActivity, Build(log, now, false))

	require.NoError(t, log.Append(session.Record{Category: "Thales", Start: time.Date(2025, 3, 11, 9, 0, 0, 0, time.Local), DurationSeconds: 3600, Note: 3}))
	out := Build(log, now, true)
	assert.Contains(t, out, "(sent manually)")
	assert.Contains(t, out, "**Thales** : 1h00m")
}

type captureSender struct {
	sent   []string
	cancel context.CancelFunc
}

func (c *captureSender) Send(_ context.Context, content string) error {
	c.sent = append(c.sent, content)
	c.cancel()
	return nil
}

func TestScheduler_SendsAtNextRun(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// one millisecond before the slot
	fixed := time.Date(2025, 3, 16, 19, 59, 59, int(999*time.Millisecond), time.Local)
	sender := &captureSender{cancel: cancel}
	s := &Scheduler{
		Sender:  sender,
		Source:  session.NewLog,
		Weekday: time.Sunday,
		Hour:    20,
		Logger:  zap.NewNop(),
		Now:     func() time.Time { return fixed },
	}
	require.NoError(t, s.Run(ctx))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, stats.NoActivity, sender.sent[0])
}

func TestScheduler_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := &Scheduler{Sender: &captureSender{cancel: func() {}}, Source: session.NewLog, Weekday: time.Sunday, Hour: 20, Logger: zap.NewNop()}
	assert.NoError(t, s.Run(ctx))
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, []string{"Études", "Thales", "Lecture", "Autre"}, cfg.CategoryNames())
	assert.Equal(t, "Études", cfg.DefaultCategory)
	assert.Equal(t, time.Second, cfg.Tick)
	assert.Equal(t, BackendJSON, cfg.Data.Backend)
	assert.Equal(t, "chrono_sessions.json", filepath.Base(cfg.Data.File))
	assert.True(t, cfg.Server.Enabled)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, 480, cfg.Goal.DailyMinutes)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, cfg.Goal.WorkDays)
	assert.Equal(t, 20, cfg.Digest.Hour)
	assert.Equal(t, 2*time.Minute, cfg.Tabs.StaleAfter)
	assert.InDelta(t, 5.0, cfg.Server.RateLimit, 0.0001)
}

func TestLoad_ExplicitZerosAreKept(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	path := writeConfig(t, `
digest:
  hour: 0
tabs:
  stale_after: 0s
server:
  rate_limit: 0
goal:
  daily_minutes: 0
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.Digest.Hour)
	assert.Equal(t, time.Duration(0), cfg.Tabs.StaleAfter)
	assert.Zero(t, cfg.Server.RateLimit)
	assert.Equal(t, 0, cfg.Goal.DailyMinutes)
	assert.True(t, cfg.Server.Enabled)
	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	path := writeConfig(t, `
categories:
  - name: Work
    color: "#112233"
  - name: Play
default_category: Play
tick: 2s
server:
  port: 8123
  enabled: false
tabs:
  provider: extension
`)
	t.Setenv("CHRONOTIME_SERVER_PORT", "9001")
	t.Setenv("CHRONOTIME_DEFAULT_CATEGORY", "Work")
	t.Setenv("CHRONOTIME_DATA_BACKEND", "sqlite")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"Work", "Play"}, cfg.CategoryNames())
	assert.Equal(t, "Work", cfg.DefaultCategory)
	assert.Equal(t, 2*time.Second, cfg.Tick)
	assert.Equal(t, 9001, cfg.Server.Port)
	assert.False(t, cfg.Server.Enabled)
	assert.Equal(t, ProviderExtension, cfg.Tabs.Provider)
	assert.Equal(t, BackendSQLite, cfg.Data.Backend)
	assert.Equal(t, "#112233", cfg.Color("Work", "#000000"))
	assert.Equal(t, "#000000", cfg.Color("Play", "#000000"))
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"unknown default": "default_category: Nope\n",
		"duplicate":       "categories:\n  - name: A\n  - name: A\n",
		"backend":         "data:\n  backend: mongo\n",
		"provider":        "tabs:\n  provider: magic\n",
		"weekday":         "digest:\n  weekday: someday\n",
		"digest no url":   "digest:\n  enabled: true\n",
		"workday":         "goal:\n  work_days: [0]\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "categories: [\n"))
	assert.Error(t, err)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "server.port", envKey("CHRONOTIME_SERVER_PORT"))
	assert.Equal(t, "data.sqlite_path", envKey("CHRONOTIME_DATA_SQLITE_PATH"))
	assert.Equal(t, "default_category", envKey("CHRONOTIME_DEFAULT_CATEGORY"))
	assert.Equal(t, "tick", envKey("CHRONOTIME_TICK"))
}

func TestParseTimeToMinutes(t *testing.T) {
	mins, err := ParseTimeToMinutes("07:30")
	require.NoError(t, err)
	assert.Equal(t, 450, mins)

	for _, bad := range []string{"7", "aa:10", "07:75", "1:2:3"} {
		_, err := ParseTimeToMinutes(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseWorkDays(t *testing.T) {
	days, err := ParseWorkDays("Mon-Fri")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, days)

	days, err = ParseWorkDays("mon, wed,Sun")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 7}, days)

	for _, bad := range []string{"Fri-Mon", "Mon-Xyz", "Mon,Funday", "a-b-c"} {
		_, err := ParseWorkDays(bad)
		assert.Error(t, err, bad)
	}
}

func TestIsWorkDay(t *testing.T) {
	sunday := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	monday := sunday.AddDate(0, 0, 1)
	assert.False(t, IsWorkDay(sunday, []int{1, 2, 3, 4, 5}))
	assert.True(t, IsWorkDay(sunday, []int{7}))
	assert.True(t, IsWorkDay(monday, []int{1}))
}

func TestParseWeekday(t *testing.T) {
	d, err := ParseWeekday("Sunday")
	require.NoError(t, err)
	assert.Equal(t, time.Sunday, d)

	d, err = ParseWeekday("wed")
	require.NoError(t, err)
	assert.Equal(t, time.Wednesday, d)

	_, err = ParseWeekday("sundays")
	assert.Error(t, err)
	_, err = ParseWeekday("xx")
	assert.Error(t, err)
}

func TestSet_RewritesGoalAndKeepsOtherKeys(t *testing.T) {
	path := writeConfig(t, "default_category: Thales\ngoal:\n  daily_minutes: 60\n")

	require.NoError(t, Set(path, "dailygoal", "07:30"))
	require.NoError(t, Set(path, "workdays", "Mon-Wed"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc struct {
		DefaultCategory string `yaml:"default_category"`
		Goal            struct {
			DailyMinutes int   `yaml:"daily_minutes"`
			WorkDays     []int `yaml:"work_days"`
		} `yaml:"goal"`
	}
	require.NoError(t, yaml.Unmarshal(raw, &doc))
	assert.Equal(t, "Thales", doc.DefaultCategory)
	assert.Equal(t, 450, doc.Goal.DailyMinutes)
	assert.Equal(t, []int{1, 2, 3}, doc.Goal.WorkDays)

	assert.Error(t, Set(path, "colour", "red"))
	assert.Error(t, Set(path, "dailygoal", "late"))
}

func TestSet_CreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	require.NoError(t, Set(path, "dailygoal", "06:00"))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 360, cfg.Goal.DailyMinutes)
}

// Package config loads chronotime configuration from a YAML file and
// CHRONOTIME_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var ErrInvalid = errors.New("invalid config")

const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"

	ProviderAuto      = "auto"
	ProviderProcScan  = "procscan"
	ProviderExtension = "extension"
	ProviderNone      = "none"

	defaultFile = "chrono_sessions.json"
)

type Config struct {
	Data            Data          `koanf:"data" yaml:"data"`
	Categories      []Category    `koanf:"categories" yaml:"categories"`
	DefaultCategory string        `koanf:"default_category" yaml:"default_category"`
	Tick            time.Duration `koanf:"tick" yaml:"tick"`
	Tabs            Tabs          `koanf:"tabs" yaml:"tabs"`
	Server          Server        `koanf:"server" yaml:"server"`
	Digest          Digest        `koanf:"digest" yaml:"digest"`
	Goal            Goal          `koanf:"goal" yaml:"goal"`
	Log             Log           `koanf:"log" yaml:"log"`
	Tags            Tags          `koanf:"tags" yaml:"tags"`
}

type Data struct {
	File       string `koanf:"file" yaml:"file"`
	Backend    string `koanf:"backend" yaml:"backend"`
	SQLitePath string `koanf:"sqlite_path" yaml:"sqlite_path"`
}

type Category struct {
	Name  string `koanf:"name" yaml:"name"`
	Color string `koanf:"color" yaml:"color"`
}

type Tabs struct {
	Provider   string        `koanf:"provider" yaml:"provider"`
	Browser    string        `koanf:"browser" yaml:"browser"`
	StaleAfter time.Duration `koanf:"stale_after" yaml:"stale_after"`
}

type Server struct {
	Enabled   bool    `koanf:"enabled" yaml:"enabled"`
	Host      string  `koanf:"host" yaml:"host"`
	Port      int     `koanf:"port" yaml:"port"`
	RateLimit float64 `koanf:"rate_limit" yaml:"rate_limit"`
	Burst     int     `koanf:"burst" yaml:"burst"`
}

type Digest struct {
	Enabled    bool   `koanf:"enabled" yaml:"enabled"`
	WebhookURL string `koanf:"webhook_url" yaml:"webhook_url"`
	Weekday    string `koanf:"weekday" yaml:"weekday"`
	Hour       int    `koanf:"hour" yaml:"hour"`
}

type Goal struct {
	DailyMinutes int   `koanf:"daily_minutes" yaml:"daily_minutes"`
	WorkDays     []int `koanf:"work_days" yaml:"work_days"` // 1=Monday, 7=Sunday
}

type Log struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
	File   string `koanf:"file" yaml:"file"`
}

type Tags struct {
	File string `koanf:"file" yaml:"file"`
}

// DefaultCategories are the labels the widget ships with.
func DefaultCategories() []Category {
	return []Category{
		{Name: "Études", Color: "#4CAF50"},
		{Name: "Thales", Color: "#2196F3"},
		{Name: "Lecture", Color: "#FF9800"},
		{Name: "Autre", Color: "#9C27B0"},
	}
}

// CategoryNames returns the configured category names in order.
func (c *Config) CategoryNames() []string {
	out := make([]string, len(c.Categories))
	for i, cat := range c.Categories {
		out[i] = cat.Name
	}
	return out
}

// Color returns the colour of category, or fallback when it is unknown.
func (c *Config) Color(category, fallback string) string {
	for _, cat := range c.Categories {
		if cat.Name == category && cat.Color != "" {
			return cat.Color
		}
	}
	return fallback
}

func applyDefaults(cfg *Config) {
	dataDir := dataHome()
	if cfg.Data.File == "" {
		cfg.Data.File = filepath.Join(dataDir, defaultFile)
	}
	if cfg.Data.Backend == "" {
		cfg.Data.Backend = BackendJSON
	}
	if cfg.Data.SQLitePath == "" {
		cfg.Data.SQLitePath = filepath.Join(dataDir, "chrono_sessions.db")
	}
	if len(cfg.Categories) == 0 {
		cfg.Categories = DefaultCategories()
	}
	if cfg.DefaultCategory == "" {
		cfg.DefaultCategory = cfg.Categories[0].Name
	}
	if cfg.Tick == 0 {
		cfg.Tick = time.Second
	}
	if cfg.Tabs.Provider == "" {
		cfg.Tabs.Provider = ProviderAuto
	}
	if cfg.Tabs.Browser == "" {
		cfg.Tabs.Browser = "chrome"
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 9999
	}
	if cfg.Server.Burst == 0 {
		cfg.Server.Burst = 10
	}
	if cfg.Digest.Weekday == "" {
		cfg.Digest.Weekday = "sunday"
	}
	if len(cfg.Goal.WorkDays) == 0 {
		cfg.Goal.WorkDays = []int{1, 2, 3, 4, 5} // Mon-Fri
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Log.File == "" {
		cfg.Log.File = filepath.Join(stateHome(), "chronotime.log")
	}
	if cfg.Tags.File == "" {
		cfg.Tags.File = filepath.Join(dataDir, "tags.yaml")
	}
	cfg.Data.File = expandHome(cfg.Data.File)
	cfg.Data.SQLitePath = expandHome(cfg.Data.SQLitePath)
	cfg.Log.File = expandHome(cfg.Log.File)
	cfg.Tags.File = expandHome(cfg.Tags.File)
}

// Validate reports the first problem found, wrapped in ErrInvalid.
func (c *Config) Validate() error {
	seen := map[string]bool{}
	for _, cat := range c.Categories {
		if strings.TrimSpace(cat.Name) == "" {
			return fmt.Errorf("%w: category with empty name", ErrInvalid)
		}
		if seen[cat.Name] {
			return fmt.Errorf("%w: duplicate category %q", ErrInvalid, cat.Name)
		}
		seen[cat.Name] = true
	}
	if !seen[c.DefaultCategory] {
		return fmt.Errorf("%w: default_category %q is not a configured category", ErrInvalid, c.DefaultCategory)
	}
	switch c.Data.Backend {
	case BackendJSON, BackendSQLite:
	default:
		return fmt.Errorf("%w: unknown data.backend %q", ErrInvalid, c.Data.Backend)
	}
	switch c.Tabs.Provider {
	case ProviderAuto, ProviderProcScan, ProviderExtension, ProviderNone:
	default:
		return fmt.Errorf("%w: unknown tabs.provider %q", ErrInvalid, c.Tabs.Provider)
	}
	if c.Tick <= 0 {
		return fmt.Errorf("%w: tick must be positive", ErrInvalid)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalid, c.Server.Port)
	}
	if c.Server.RateLimit < 0 || c.Server.Burst < 0 {
		return fmt.Errorf("%w: server rate limit must not be negative", ErrInvalid)
	}
	if _, err := ParseWeekday(c.Digest.Weekday); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.Digest.Hour < 0 || c.Digest.Hour > 23 {
		return fmt.Errorf("%w: digest.hour %d out of range", ErrInvalid, c.Digest.Hour)
	}
	if c.Digest.Enabled && c.Digest.WebhookURL == "" {
		return fmt.Errorf("%w: digest enabled without webhook_url", ErrInvalid)
	}
	for _, d := range c.Goal.WorkDays {
		if d < 1 || d > 7 {
			return fmt.Errorf("%w: work day %d out of range", ErrInvalid, d)
		}
	}
	if c.Goal.DailyMinutes < 0 {
		return fmt.Errorf("%w: goal.daily_minutes must not be negative", ErrInvalid)
	}
	return nil
}

// Dir is the directory holding config.yaml.
func Dir() string {
	if d := os.Getenv("XDG_CONFIG_HOME"); d != "" {
		return filepath.Join(d, "chronotime")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "chronotime")
}

// DefaultPath is where Load looks when no path is given.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

func dataHome() string {
	if d := os.Getenv("XDG_DATA_HOME"); d != "" {
		return filepath.Join(d, "chronotime")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share", "chronotime")
}

func stateHome() string {
	if d := os.Getenv("XDG_STATE_HOME"); d != "" {
		return filepath.Join(d, "chronotime")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "state", "chronotime")
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	return p
}

package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix         = "CHRONOTIME_"
	maxConfigFileSize = 1024 * 1024 // 1MB
)

// top-level keys that contain an underscore and so cannot be split on it
var topLevelKeys = map[string]bool{
	"default_category": true,
	"tick":             true,
}

// seededDefaults go into koanf before the file and env, so an explicit
// false or zero survives: digest.hour 0 is midnight, tabs.stale_after 0 never
// expires, server.rate_limit 0 disables the limiter, goal.daily_minutes 0 has
// no goal.
var seededDefaults = map[string]any{
	"server.enabled":     true,
	"server.rate_limit":  5.0,
	"digest.hour":        20,
	"tabs.stale_after":   2 * time.Minute,
	"goal.daily_minutes": 480,
}

// Load reads configuration with this precedence (highest first):
//  1. CHRONOTIME_* environment variables (CHRONOTIME_SERVER_PORT -> server.port)
//  2. the YAML file at path (DefaultPath() when empty)
//  3. built-in defaults
//
// A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	k := koanf.New(".")

	// keys whose zero value is meaningful are seeded here, not in applyDefaults
	for key, val := range seededDefaults {
		if err := k.Set(key, val); err != nil {
			return nil, fmt.Errorf("set default %s: %w", key, err)
		}
	}

	if content, err := readConfigFile(path); err != nil {
		return nil, err
	} else if content != nil {
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file %s is larger than %d bytes", path, maxConfigFileSize)
	}
	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return content, nil
}

// envKey maps CHRONOTIME_SECTION_FIELD_NAME to section.field_name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	if topLevelKeys[lower] {
		return lower
	}
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var dayMap = map[string]int{
	"mon": 1, "tue": 2, "wed": 3, "thu": 4, "fri": 5, "sat": 6, "sun": 7,
}

// ParseTimeToMinutes parses HH:MM.
func ParseTimeToMinutes(timeStr string) (int, error) {
	parts := strings.Split(timeStr, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time format, use HH:MM")
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, err
	}
	mins, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, err
	}
	if hours < 0 || mins < 0 || mins > 59 {
		return 0, fmt.Errorf("invalid time %q", timeStr)
	}
	return hours*60 + mins, nil
}

// ParseWorkDays accepts a range (Mon-Fri) or a list (Mon,Wed,Fri).
func ParseWorkDays(workDaysStr string) ([]int, error) {
	var days []int
	if strings.Contains(workDaysStr, "-") {
		parts := strings.Split(workDaysStr, "-")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid range format")
		}
		start, ok1 := dayMap[strings.ToLower(strings.TrimSpace(parts[0]))]
		end, ok2 := dayMap[strings.ToLower(strings.TrimSpace(parts[1]))]
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("invalid day names")
		}
		if start > end {
			return nil, fmt.Errorf("range %s runs backwards", workDaysStr)
		}
		for i := start; i <= end; i++ {
			days = append(days, i)
		}
		return days, nil
	}
	for _, part := range strings.Split(workDaysStr, ",") {
		day, ok := dayMap[strings.ToLower(strings.TrimSpace(part))]
		if !ok {
			return nil, fmt.Errorf("invalid day name: %s", part)
		}
		days = append(days, day)
	}
	return days, nil
}

// IsWorkDay reports whether t falls on one of workDays (1=Monday, 7=Sunday).
func IsWorkDay(t time.Time, workDays []int) bool {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	for _, day := range workDays {
		if day == weekday {
			return true
		}
	}
	return false
}

// ParseWeekday accepts full English names and three-letter abbreviations.
func ParseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if len(name) >= 3 {
		if d, ok := dayMap[name[:3]]; ok && strings.HasPrefix(strings.ToLower(time.Weekday(d%7).String()), name) {
			return time.Weekday(d % 7), nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

// Set applies a key=value mutation to the YAML file at path, creating it
// when needed. Supported keys are dailygoal (HH:MM) and workdays.
func Set(path, key, value string) error {
	if path == "" {
		path = DefaultPath()
	}
	doc := map[string]any{}
	if content, err := readConfigFile(path); err != nil {
		return err
	} else if content != nil {
		if err := yaml.Unmarshal(content, &doc); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		if doc == nil {
			doc = map[string]any{}
		}
	}

	goal, _ := doc["goal"].(map[string]any)
	if goal == nil {
		goal = map[string]any{}
	}
	switch key {
	case "dailygoal":
		mins, err := ParseTimeToMinutes(value)
		if err != nil {
			return fmt.Errorf("invalid time format: %w", err)
		}
		goal["daily_minutes"] = mins
	case "workdays":
		days, err := ParseWorkDays(value)
		if err != nil {
			return fmt.Errorf("invalid workdays format: %w", err)
		}
		goal["work_days"] = days
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	doc["goal"] = goal

	out, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

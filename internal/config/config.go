// Package config loads the optional YAML settings file and applies
// environment overrides. Command-line flags take precedence over
// everything here.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration decodes "2s"-style YAML strings (or bare nanosecond
// integers) into a time.Duration.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration %q", value.Value)
	}
	*d = Duration(n)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config holds the file-configurable settings.
type Config struct {
	// DBPath is the message database to read.
	DBPath string `yaml:"db"`
	// OutputPath receives the JSON report; "-" means stdout.
	OutputPath string `yaml:"output"`
	// ContactsPath is an optional contacts JSON file backing the
	// identity directory.
	ContactsPath string `yaml:"contacts"`

	// Since and Until bound the extraction window (YYYY-MM-DD,
	// inclusive).
	Since string `yaml:"since"`
	Until string `yaml:"until"`

	// ThresholdHours is the left-on-read threshold.
	ThresholdHours float64 `yaml:"threshold_hours"`
	// Top is the maximum number of chats in the report.
	Top int `yaml:"top"`

	// WatchDebounce is how long the watcher waits after the last
	// change before regenerating.
	WatchDebounce Duration `yaml:"watch_debounce"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		OutputPath:     "-",
		ThresholdHours: 24,
		Top:            20,
		WatchDebounce:  Duration(2 * time.Second),
	}
}

// Load reads the config file at path, merged over Defaults. A
// missing file yields defaults plus environment overrides.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// fall through to env overrides
		case err != nil:
			return cfg, err
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parsing config: %w", err)
			}
		}
	}

	applyEnvOverrides(&cfg)
	if cfg.WatchDebounce <= 0 {
		cfg.WatchDebounce = Defaults().WatchDebounce
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CHATMETRICS_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("CHATMETRICS_OUTPUT"); v != "" {
		cfg.OutputPath = v
	}
	if v := os.Getenv("CHATMETRICS_CONTACTS"); v != "" {
		cfg.ContactsPath = v
	}
}

// ParseDay parses a YYYY-MM-DD setting in UTC. Empty input yields
// a nil time.
func ParseDay(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return &t, nil
}

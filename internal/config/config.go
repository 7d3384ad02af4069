package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/paquetes/internal/dates"
	"github.com/paquetes/internal/work"
)

type Config struct {
	DatabasePath string   `yaml:"DatabasePath"`
	WorkStart    string   `yaml:"WorkStart"`
	WorkEnd      string   `yaml:"WorkEnd"`
	Holidays     []string `yaml:"Holidays"`
	TimeZone     string   `yaml:"TimeZone"`
}

func Load() (*Config, error) {
	configPath := getConfigPath()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return getDefaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Apply defaults for missing values
	if cfg.WorkStart == "" {
		cfg.WorkStart = work.DefaultWorkStart
	}
	if cfg.WorkEnd == "" {
		cfg.WorkEnd = work.DefaultWorkEnd
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = getDefaultConfig().DatabasePath
	}

	// Expand ~ in database path
	if strings.HasPrefix(cfg.DatabasePath, "~/") {
		home, _ := os.UserHomeDir()
		cfg.DatabasePath = filepath.Join(home, cfg.DatabasePath[2:])
	}

	return &cfg, nil
}

func Save(cfg *Config) error {
	configPath := getConfigPath()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(configPath, data, 0644)
}

func getConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".paquetes.yaml")
}

func getDefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		DatabasePath: filepath.Join(home, ".paquetes", "data.db"),
		WorkStart:    work.DefaultWorkStart,
		WorkEnd:      work.DefaultWorkEnd,
	}
}

// Location returns the configured timezone, falling back to local time.
func (c *Config) Location() *time.Location {
	if c.TimeZone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Now returns the current instant in the configured timezone. The registry
// takes this as its clock so hour calculations stay reproducible in tests.
func (c *Config) Now() time.Time {
	return time.Now().In(c.Location())
}

// Calendar builds the immutable work calendar from the configured window and
// holiday list. Holiday entries are normalized to canonical form; an
// unparsable entry is a configuration error, not a silent skip.
func (c *Config) Calendar() (work.Calendar, error) {
	schedule, err := work.NewSchedule(c.WorkStart, c.WorkEnd)
	if err != nil {
		return work.Calendar{}, err
	}
	holidays := make([]string, 0, len(c.Holidays))
	for _, h := range c.Holidays {
		canon, err := dates.Normalize(h)
		if err != nil {
			return work.Calendar{}, fmt.Errorf("invalid holiday %q: %w", h, err)
		}
		if canon != "" {
			holidays = append(holidays, canon)
		}
	}
	return work.NewCalendar(schedule, holidays), nil
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation error: %s - %s", e.Field, e.Message)
}

// Validate checks the configuration for common issues
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return &ValidationError{Field: "DatabasePath", Message: "database path is required"}
	}
	if _, err := work.NewSchedule(c.WorkStart, c.WorkEnd); err != nil {
		return &ValidationError{Field: "WorkStart/WorkEnd", Message: err.Error()}
	}
	for _, h := range c.Holidays {
		if _, err := dates.Normalize(h); err != nil {
			return &ValidationError{Field: "Holidays", Message: fmt.Sprintf("invalid date %q (use YYYY-MM-DD)", h)}
		}
	}
	if c.TimeZone != "" {
		if _, err := time.LoadLocation(c.TimeZone); err != nil {
			return &ValidationError{Field: "TimeZone", Message: fmt.Sprintf("unknown timezone %q", c.TimeZone)}
		}
	}
	return nil
}

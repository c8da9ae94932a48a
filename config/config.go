/*
Package config loads the service configuration.

PURPOSE:
  One typed configuration structure with enumerated keys, loaded from a
  YAML file with sane defaults. Nothing in the engine reads ad hoc
  settings from scattered state; lead times and the holiday set are
  injected into the calendar at construction time.

CONFIGURATION SURFACE:
  lead_times:
    weld_fab_days: 4
    blast_days: 7
    paint_assembly_days: 10
  holiday_dates: ["2026-01-01", "2026-07-03", ...]
  max_order_lines: 0        # 0 = unlimited
  fetch_concurrency: 5
  port: 8080
  database: availability.db
  allowed_origins: ["http://localhost:5173"]

SEE ALSO:
  - calendar/calendar.go: Consumes lead times and holidays
  - cmd/server/main.go: Flag overrides for port/database/config path
*/
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/forge/availability-engine/calendar"
)

// Config is the full configuration surface.
type Config struct {
	Port             int                `yaml:"port"`
	Database         string             `yaml:"database"`
	LeadTimes        calendar.LeadTimes `yaml:"lead_times"`
	HolidayDates     []string           `yaml:"holiday_dates"` // ISO dates
	MaxOrderLines    int                `yaml:"max_order_lines"`
	FetchConcurrency int                `yaml:"fetch_concurrency"`
	AllowedOrigins   []string           `yaml:"allowed_origins"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Port:             8080,
		Database:         "availability.db",
		LeadTimes:        calendar.DefaultLeadTimes(),
		MaxOrderLines:    0,
		FetchConcurrency: 5,
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
	}
}

// Load reads a YAML file over the defaults. Missing keys keep their
// default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects values that would break a run before one starts.
func (c Config) Validate() error {
	if err := c.LeadTimes.Validate(); err != nil {
		return err
	}
	if c.MaxOrderLines < 0 {
		return fmt.Errorf("max_order_lines must not be negative")
	}
	if c.FetchConcurrency < 0 {
		return fmt.Errorf("fetch_concurrency must not be negative")
	}
	if _, err := c.Holidays(); err != nil {
		return err
	}
	return nil
}

// Holidays parses the configured holiday dates.
func (c Config) Holidays() ([]time.Time, error) {
	out := make([]time.Time, 0, len(c.HolidayDates))
	for _, s := range c.HolidayDates {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			return nil, fmt.Errorf("holiday_dates: %q is not an ISO date", s)
		}
		out = append(out, d)
	}
	return out, nil
}

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forge/availability-engine/calendar"
	"github.com/forge/availability-engine/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "availability.db", cfg.Database)
	assert.Equal(t, calendar.DefaultLeadTimes(), cfg.LeadTimes)
	assert.Equal(t, 0, cfg.MaxOrderLines)
	assert.Equal(t, 5, cfg.FetchConcurrency)
	require.NoError(t, cfg.Validate())
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
port: 9090
lead_times:
  weld_fab_days: 5
  blast_days: 8
  paint_assembly_days: 12
holiday_dates: ["2026-01-01", "2026-07-03"]
max_order_lines: 500
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, calendar.LeadTimes{WeldFabDays: 5, BlastDays: 8, PaintAssemblyDays: 12}, cfg.LeadTimes)
	assert.Equal(t, 500, cfg.MaxOrderLines)

	// Keys missing from the file keep their defaults.
	assert.Equal(t, "availability.db", cfg.Database)
	assert.Equal(t, 5, cfg.FetchConcurrency)

	holidays, err := cfg.Holidays()
	require.NoError(t, err)
	require.Len(t, holidays, 2)
	assert.True(t, holidays[0].Equal(time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoad_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"zero lead time", "lead_times:\n  weld_fab_days: 0\n  blast_days: 7\n  paint_assembly_days: 10\n"},
		{"negative max lines", "max_order_lines: -1\n"},
		{"negative concurrency", "fetch_concurrency: -2\n"},
		{"malformed holiday", `holiday_dates: ["Jan 1 2026"]` + "\n"},
		{"not yaml", "{{{\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

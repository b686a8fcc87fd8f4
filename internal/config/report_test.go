package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProfile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "report.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultReportIsValid(t *testing.T) {
	cfg := DefaultReport()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "America/New_York", cfg.Location().String())
	rate, ok := cfg.Tariff.Rate()
	assert.True(t, ok)
	assert.Equal(t, 0.12, rate)
}

func TestLoadReportOverridesDefaults(t *testing.T) {
	path := writeProfile(t, `
timezone: Europe/London
businessHours:
  friday: null
  saturday: {start: 9, end: 13}
anomaly:
  context: hour_of_week
tariff:
  demandCharge: 15
`)
	cfg, err := LoadReport(path, "")
	require.NoError(t, err)

	assert.Equal(t, "Europe/London", cfg.Timezone)
	assert.Nil(t, cfg.BusinessHours.Friday)
	require.NotNil(t, cfg.BusinessHours.Saturday)
	assert.Equal(t, HourWindow{Start: 9, End: 13}, *cfg.BusinessHours.Saturday)
	require.NotNil(t, cfg.BusinessHours.Monday)
	assert.Equal(t, 7, cfg.BusinessHours.Monday.Start)
	assert.Equal(t, ContextHourOfWeek, cfg.Anomaly.Context)
	require.NotNil(t, cfg.Tariff.DemandCharge)
	assert.Equal(t, 15.0, *cfg.Tariff.DemandCharge)
	assert.Equal(t, 4, cfg.Baseline.WeeksCount)
}

func TestLoadReportTimezoneOverride(t *testing.T) {
	cfg, err := LoadReport("", "UTC")
	require.NoError(t, err)
	assert.Equal(t, time.UTC.String(), cfg.Location().String())
}

func TestLoadReportMissingFile(t *testing.T) {
	_, err := LoadReport(filepath.Join(t.TempDir(), "absent.yaml"), "")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidConfiguration)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Report)
	}{
		{"negative percentile", func(r *Report) { r.AfterHours.BaselinePercentile = -5 }},
		{"percentile above 100", func(r *Report) { r.Spike.BaselinePercentile = 101 }},
		{"unsupported interval", func(r *Report) { r.IntervalPreferences = []int{600} }},
		{"no interval preference", func(r *Report) { r.IntervalPreferences = nil }},
		{"unknown timezone", func(r *Report) { r.Timezone = "Mars/Olympus" }},
		{"window end before start", func(r *Report) { r.BusinessHours.Monday = &HourWindow{Start: 18, End: 7} }},
		{"window hour out of range", func(r *Report) { r.BusinessHours.Tuesday = &HourWindow{Start: 0, End: 25} }},
		{"gap multiplier of one", func(r *Report) { r.SensorHealth.GapMultiplier = 1 }},
		{"zero weeks", func(r *Report) { r.Baseline.WeeksCount = 0 }},
		{"unknown context", func(r *Report) { r.Anomaly.Context = "daily" }},
		{"negative rate", func(r *Report) { v := -0.1; r.Tariff.DefaultRate = &v }},
		{"empty schedule", func(r *Report) { r.BusinessHours = BusinessHours{} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultReport()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfiguration)
		})
	}
}

func TestLoadReportRejectsEmptySchedule(t *testing.T) {
	path := writeProfile(t, `
businessHours:
  monday: null
  tuesday: null
  wednesday: null
  thursday: null
  friday: null
`)
	_, err := LoadReport(path, "")
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestScheduleIndexedByWeekday(t *testing.T) {
	s := DefaultReport().BusinessHours.Schedule()
	assert.Nil(t, s[time.Sunday])
	assert.Nil(t, s[time.Saturday])
	require.NotNil(t, s[time.Wednesday])
	assert.Equal(t, 7, s[time.Wednesday].Start)
	assert.Equal(t, 18, s[time.Wednesday].End)
}

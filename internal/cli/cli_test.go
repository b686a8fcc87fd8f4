package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/brief"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/calendar"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/config"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/service"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/simulate"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestParsePeriod(t *testing.T) {
	p, err := parsePeriod("", "")
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = parsePeriod("2024-01-01T00:00:00Z", "2024-01-08T00:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, p.Duration())

	_, err = parsePeriod("2024-01-08T00:00:00Z", "2024-01-01T00:00:00Z")
	assert.ErrorContains(t, err, "--end must be after --start")

	_, err = parsePeriod("monday", "2024-01-08T00:00:00Z")
	assert.ErrorContains(t, err, "invalid --start")
}

func TestReadInput(t *testing.T) {
	_, err := readInput(strings.NewReader(`{"channels":[]}`))
	assert.ErrorContains(t, err, "no channels")

	_, err = readInput(strings.NewReader(`[`))
	assert.ErrorContains(t, err, "failed to decode input")

	in, err := readInput(strings.NewReader(`{"site":{"site_id":"hq"},"channels":[{"channel":{"channel_id":2}}]}`))
	require.NoError(t, err)
	assert.Equal(t, "hq", in.Site.ID)
	assert.Equal(t, int64(2), in.Channels[0].Channel.ID)
}

func TestPrintYAMLKeepsJSONNames(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printYAML(&buf, brief.RankEntry{ChannelID: 2, Name: "HVAC", ExcessKWh: 52.5}))
	assert.Equal(t, "channel_id: 2\nname: HVAC\nexcess_kwh: 52.5\n", buf.String())
}

func TestConfigValidate(t *testing.T) {
	out, err := run(t, "config", "validate", "--timezone", "UTC")
	require.NoError(t, err)
	assert.Equal(t, "profile is valid\n", out)

	_, err = run(t, "config", "validate", "--timezone", "Nowhere/Land")
	assert.ErrorIs(t, err, config.ErrInvalidConfiguration)
}

func TestConfigShow(t *testing.T) {
	out, err := run(t, "config", "show", "--timezone", "UTC")
	require.NoError(t, err)
	var cfg config.Report
	require.NoError(t, yaml.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, 4, cfg.Baseline.WeeksCount)
}

func TestAnalyzeCommand(t *testing.T) {
	week := calendar.Range{Start: time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), End: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)}
	cfg := config.DefaultReport()
	cfg.Timezone = "UTC"
	span := calendar.Range{Start: calendar.BaselinePeriod(week.Start, cfg.Baseline.WeeksCount).Start, End: week.End}
	site, channels := simulate.Site("demo", "UTC")
	profiles := simulate.DemoProfiles(week)
	in := brief.Input{Site: site, Period: week}
	for _, ch := range channels {
		in.Channels = append(in.Channels, brief.ChannelInput{
			Channel:  ch,
			Readings: simulate.Readings(ch.ID, span, time.Hour, cfg.Classifier(), profiles[ch.ID], 7),
		})
	}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "week.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	out, err := run(t, "analyze", "--input", path, "--timezone", "UTC")
	require.NoError(t, err)
	var rep brief.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, week, rep.Metadata.Period)
	assert.Len(t, rep.Channels, 3)
	assert.NotEmpty(t, rep.QuickWins)

	out2, err := run(t, "analyze", "--input", path, "--timezone", "UTC", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out2, "report_id: "+rep.ID)
}

func TestGenerateRemoteNeedsReportFunction(t *testing.T) {
	t.Setenv("USE_CLOUD_SERVICES", "false")
	_, err := run(t, "generate", "--site", "hq", "--remote", "--timezone", "UTC")
	assert.ErrorIs(t, err, service.ErrAsyncUnavailable)
}

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/calendar"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/database"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/domain"
)

var t0 = time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

func newRepos(t *testing.T) *Repos {
	t.Helper()
	db, err := database.Connect("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))
	return New(db)
}

func seed(t *testing.T, r *Repos) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, r.UpsertSite(ctx, domain.Site{ID: "hq", Name: "HQ", Timezone: "UTC"}))
	require.NoError(t, r.UpsertChannel(ctx, domain.Channel{ID: 2, SiteID: "hq", Name: "HVAC", Role: domain.RoleSubmeter}))
	require.NoError(t, r.UpsertChannel(ctx, domain.Channel{ID: 1, SiteID: "hq", Name: "Main", Role: domain.RoleSiteTotal}))
}

func kw(v float64) *float64 { return &v }

func TestSitesAndChannels(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	seed(t, r)
	require.NoError(t, r.UpsertSite(ctx, domain.Site{ID: "hq", Name: "Headquarters", Timezone: "Europe/London"}))

	site, err := r.GetSite(ctx, "hq")
	require.NoError(t, err)
	assert.Equal(t, domain.Site{ID: "hq", Name: "Headquarters", Timezone: "Europe/London"}, site)

	_, err = r.GetSite(ctx, "annex")
	assert.ErrorIs(t, err, ErrNotFound)

	sites, err := r.ListSites(ctx)
	require.NoError(t, err)
	assert.Len(t, sites, 1)

	channels, err := r.ListChannels(ctx, "hq")
	require.NoError(t, err)
	require.Len(t, channels, 2)
	assert.Equal(t, int64(1), channels[0].ID)
	assert.Equal(t, domain.RoleSiteTotal, channels[0].Role)
}

func TestReadingsRoundTrip(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	seed(t, r)

	batch := []domain.Reading{
		{ChannelID: 2, Timestamp: t0, PowerKW: kw(3)},
		{ChannelID: 2, Timestamp: t0.Add(time.Hour), EnergyKWh: kw(4)},
		{ChannelID: 2, Timestamp: t0.Add(2 * time.Hour), PowerKW: kw(5)},
		{ChannelID: 1, Timestamp: t0, PowerKW: kw(30)},
	}
	require.NoError(t, r.InsertReadings(ctx, batch))
	require.NoError(t, r.InsertReading(ctx, &domain.Reading{ChannelID: 2, Timestamp: t0, PowerKW: kw(99)}), "duplicates are ignored")

	got, err := r.FetchReadings(ctx, 2, calendar.Range{Start: t0, End: t0.Add(2 * time.Hour)})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, t0, got[0].Timestamp)
	require.NotNil(t, got[0].PowerKW)
	assert.Equal(t, 3.0, *got[0].PowerKW)
	assert.Nil(t, got[1].PowerKW)
	require.NotNil(t, got[1].EnergyKWh)
	assert.Equal(t, 4.0, *got[1].EnergyKWh)
}

func TestLastReadingTime(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	seed(t, r)

	_, err := r.LastReadingTime(ctx, 2)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, r.InsertReadings(ctx, []domain.Reading{
		{ChannelID: 2, Timestamp: t0.Add(3 * time.Hour), PowerKW: kw(1)},
		{ChannelID: 2, Timestamp: t0, PowerKW: kw(2)},
		{ChannelID: 1, Timestamp: t0.Add(9 * time.Hour), PowerKW: kw(3)},
	}))
	last, err := r.LastReadingTime(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, t0.Add(3*time.Hour), last)
}

func TestReports(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	seed(t, r)

	_, err := r.LatestReport(ctx, "hq")
	assert.ErrorIs(t, err, ErrNotFound)

	older := domain.StoredReport{ID: "a", SiteID: "hq", PeriodStart: t0.AddDate(0, 0, -7), PeriodEnd: t0, GeneratedAt: t0.Add(time.Hour), Body: `{"v":1}`}
	newer := domain.StoredReport{ID: "b", SiteID: "hq", PeriodStart: t0, PeriodEnd: t0.AddDate(0, 0, 7), GeneratedAt: t0.AddDate(0, 0, 7).Add(time.Hour), Body: `{"v":2}`}
	require.NoError(t, r.SaveReport(ctx, older))
	require.NoError(t, r.SaveReport(ctx, newer))
	newer.Body = `{"v":3}`
	require.NoError(t, r.SaveReport(ctx, newer))

	latest, err := r.LatestReport(ctx, "hq")
	require.NoError(t, err)
	assert.Equal(t, newer, latest)
}

func TestConnectRejectsUnknownDriver(t *testing.T) {
	_, err := database.Connect("mysql", "")
	assert.Error(t, err)
}

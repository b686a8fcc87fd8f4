package baseline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/calendar"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/series"
)

var monday = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// day is one hourly Monday where the load equals the hour of day.
func day() series.Series {
	s := series.Series{ChannelID: 1, Interval: time.Hour, Window: calendar.Range{Start: monday, End: monday.Add(24 * time.Hour)}}
	for h := 0; h < 24; h++ {
		s.Points = append(s.Points, series.Point{TS: monday.Add(time.Duration(h) * time.Hour), KW: float64(h)})
	}
	return s
}

func officeHours() calendar.Classifier {
	var sched calendar.Schedule
	for d := time.Monday; d <= time.Friday; d++ {
		sched[d] = &calendar.Window{Start: 7, End: 18}
	}
	return calendar.NewClassifier(sched, time.UTC)
}

func TestEstimateAfterHours(t *testing.T) {
	c := officeHours()
	b, err := Estimate(day(), c.IsAfterHours, func(kw float64) bool { return kw > 0.1 }, 50, 70)
	require.NoError(t, err)
	// After-hours loads 1..6 and 18..23 once zero is filtered out.
	assert.Equal(t, 12, b.Population)
	assert.InDelta(t, 12, b.Value, 1e-9)
	assert.InDelta(t, 100, b.Completeness, 1e-9)
	assert.Equal(t, 50.0, b.Percentile)
}

func TestEstimateInsufficientCompleteness(t *testing.T) {
	s := series.Series{Interval: time.Hour, Window: calendar.Range{Start: monday, End: monday.Add(10 * time.Hour)}}
	for h := 0; h < 6; h++ {
		s.Points = append(s.Points, series.Point{TS: monday.Add(time.Duration(h) * time.Hour), KW: 5})
	}
	b, err := Estimate(s, nil, nil, 10, 70)
	require.ErrorIs(t, err, ErrInsufficientData)
	assert.InDelta(t, 60, b.Completeness, 1e-9)

	_, err = PercentileProfile(s, WholeWindow, 95, 70)
	assert.ErrorIs(t, err, ErrInsufficientData)

	p, err := DistributionProfile(s, WholeWindow, 70)
	assert.ErrorIs(t, err, ErrInsufficientData)
	assert.InDelta(t, 60, p.Completeness, 1e-9)
}

func TestEstimateEmptyPopulation(t *testing.T) {
	_, err := Estimate(day(), nil, func(float64) bool { return false }, 50, 70)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestPercentileProfileByHourOfWeek(t *testing.T) {
	p, err := PercentileProfile(day(), ByHourOfWeek(officeHours()), 95, 70)
	require.NoError(t, err)
	assert.Equal(t, 24, p.Contexts)

	v, ok := p.At(monday.AddDate(0, 0, 7).Add(5 * time.Hour))
	require.True(t, ok)
	assert.Equal(t, 5.0, v)

	_, ok = p.At(monday.AddDate(0, 0, 8).Add(5 * time.Hour))
	assert.False(t, ok, "tuesday has no reference reading")
}

func TestDistributionProfileWholeWindow(t *testing.T) {
	p, err := DistributionProfile(day(), WholeWindow, 70)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Contexts)

	d, ok := p.At(monday.AddDate(0, 1, 0))
	require.True(t, ok)
	assert.Equal(t, 24, d.Count)
	assert.InDelta(t, 11.5, d.Median, 1e-9)
	assert.InDelta(t, 11.5, d.IQR, 1e-9)
}

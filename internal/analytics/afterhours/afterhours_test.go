package afterhours

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/baseline"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/calendar"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/series"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/config"
)

var monday = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func at(h int) time.Time { return monday.Add(time.Duration(h) * time.Hour) }

func classifier() calendar.Classifier {
	return calendar.NewClassifier(config.DefaultReport().BusinessHours.Schedule(), time.UTC)
}

func day(load map[int]float64, idle float64) series.Series {
	s := series.Series{ChannelID: 2, Interval: time.Hour, Window: calendar.Range{Start: monday, End: at(24)}}
	for h := 0; h < 24; h++ {
		kw, ok := load[h]
		if !ok {
			kw = idle
		}
		s.Points = append(s.Points, series.Point{TS: at(h), KW: kw})
	}
	return s
}

func TestDetectOvernightWaste(t *testing.T) {
	cfg := config.DefaultReport().AfterHours
	s := day(map[int]float64{10: 40, 11: 40, 19: 15, 20: 15, 21: 15, 22: 15}, 2)

	events := Detect(s, classifier(), 2, cfg, 1)
	require.Len(t, events, 1, "business-hours load is not waste")
	ev := events[0]
	assert.Equal(t, calendar.Range{Start: at(19), End: at(23)}, ev.Span)
	assert.Equal(t, 4, ev.Intervals)
	assert.InDelta(t, 52, ev.ExcessKWh, 1e-9)
	assert.InDelta(t, 15, ev.PeakKW, 1e-9)
	assert.InDelta(t, 15, ev.AvgKW, 1e-9)
	assert.Equal(t, 2.0, ev.BaselineKW)
}

func TestDetectDropsSmallEvents(t *testing.T) {
	cfg := config.DefaultReport().AfterHours
	s := day(map[int]float64{2: 5, 20: 5, 21: 5}, 2)
	assert.Empty(t, Detect(s, classifier(), 2, cfg, 1))
}

func TestDetectNoiseFloorSplitsEvents(t *testing.T) {
	cfg := config.DefaultReport().AfterHours
	cfg.MinExcessKwh = 0
	s := day(map[int]float64{19: 10, 20: 0.05, 21: 10}, 0)
	events := Detect(s, classifier(), 0, cfg, 2)
	require.Len(t, events, 2)
	assert.Equal(t, at(19), events[0].Span.Start)
	assert.Equal(t, at(21), events[1].Span.Start)
}

func TestBaseline(t *testing.T) {
	cfg := config.DefaultReport().AfterHours
	ref := day(map[int]float64{0: 0, 1: 3, 12: 50}, 2)
	b, err := Baseline(ref, classifier(), cfg, 70)
	require.NoError(t, err)
	assert.InDelta(t, 2, b.Value, 1e-9)
	assert.Equal(t, 12, b.Population)

	ref.Points = ref.Points[:4]
	_, err = Baseline(ref, classifier(), cfg, 70)
	assert.ErrorIs(t, err, baseline.ErrInsufficientData)
}

func TestExcessGrowsAsThresholdsLoosen(t *testing.T) {
	s := day(map[int]float64{0: 6, 1: 6, 3: 9, 19: 15, 20: 15, 22: 4, 23: 4}, 2)
	total := func(minExcess float64) float64 {
		cfg := config.DefaultReport().AfterHours
		cfg.MinExcessKwh = minExcess
		var sum float64
		for _, ev := range Detect(s, classifier(), 2, cfg, 1) {
			assert.GreaterOrEqual(t, ev.ExcessKWh, 0.0)
			sum += ev.ExcessKWh
		}
		return sum
	}
	prev := -1.0
	for _, threshold := range []float64{30, 20, 10, 5, 0} {
		got := total(threshold)
		assert.GreaterOrEqual(t, got, prev, "minExcessKwh %v", threshold)
		prev = got
	}
}

func TestEventsDoNotOverlap(t *testing.T) {
	cfg := config.DefaultReport().AfterHours
	cfg.MinExcessKwh = 0
	s := day(map[int]float64{0: 6, 1: 6, 3: 9, 19: 15, 20: 15, 22: 4, 23: 4}, 2)
	events := Detect(s, classifier(), 2, cfg, 1)
	require.Len(t, events, 4)
	for i := 1; i < len(events); i++ {
		assert.False(t, events[i].Span.Start.Before(events[i-1].Span.End))
	}
}

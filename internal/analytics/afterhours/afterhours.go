// Package afterhours finds sustained consumption above the idle baseline
// while the site is closed.
package afterhours

import (
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/baseline"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/calendar"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/finding"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/series"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/config"
)

// Baseline estimates the idle load: the configured low percentile of
// after-hours reference readings above the noise floor.
func Baseline(ref series.Series, c calendar.Classifier, cfg config.AfterHours, minCompleteness float64) (baseline.Baseline, error) {
	keep := func(kw float64) bool { return kw > cfg.MinPowerThreshold }
	return baseline.Estimate(ref, c.IsAfterHours, keep, cfg.BaselinePercentile, minCompleteness)
}

// Detect merges after-hours readings above baselineKW into waste events.
// Readings under the noise floor never count and split events.
func Detect(s series.Series, c calendar.Classifier, baselineKW float64, cfg config.AfterHours, maxGap int) []finding.WasteEvent {
	flagged := func(i int) bool {
		p := s.Points[i]
		return c.IsAfterHours(p.TS) && p.KW >= cfg.MinPowerThreshold && p.KW > baselineKW
	}
	hours := s.IntervalHours()
	var events []finding.WasteEvent
	for _, run := range series.Runs(s.Points, flagged, s.Interval, maxGap) {
		ev := finding.WasteEvent{
			ChannelID:  s.ChannelID,
			Span:       run.Span(s.Points, s.Interval),
			Intervals:  run.Len(),
			BaselineKW: baselineKW,
		}
		var sum float64
		for _, p := range s.Points[run.First : run.Last+1] {
			sum += p.KW
			if p.KW > ev.PeakKW {
				ev.PeakKW = p.KW
			}
			ev.ExcessKWh += (p.KW - baselineKW) * hours
		}
		ev.AvgKW = sum / float64(run.Len())
		if ev.ExcessKWh < cfg.MinExcessKwh {
			continue
		}
		events = append(events, ev)
	}
	return events
}

// Package anomaly flags sustained excursions above the reference
// distribution using an IQR fence or a z-score test.
package anomaly

import (
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/baseline"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/calendar"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/finding"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/series"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/stats"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/config"
)

// Level buckets a severity ratio.
func Level(severity float64) finding.Severity {
	switch {
	case severity >= 4:
		return finding.SeverityCritical
	case severity >= 2:
		return finding.SeverityHigh
	case severity >= 1.5:
		return finding.SeverityMedium
	default:
		return finding.SeverityLow
	}
}

// Threshold is the IQR fence of a distribution.
func Threshold(d stats.Distribution, k float64) float64 {
	return d.Median + k*d.IQR
}

// Anomalous applies the union of the IQR fence and the z-score test.
func Anomalous(kw float64, d stats.Distribution, cfg config.Anomaly) bool {
	return kw > Threshold(d, cfg.IQRMultiplier) || stats.ZScore(kw, d.Mean, d.Std) > cfg.ZScoreThreshold
}

// Detect reports runs of at least cfg.MinConsecutiveIntervals anomalous
// readings. Readings whose context has no reference are never anomalous.
func Detect(s series.Series, profile baseline.Profile[stats.Distribution], c calendar.Classifier, cfg config.Anomaly, maxGap int) []finding.Anomaly {
	flagged := func(i int) bool {
		d, ok := profile.At(s.Points[i].TS)
		return ok && Anomalous(s.Points[i].KW, d, cfg)
	}
	hours := s.IntervalHours()
	var out []finding.Anomaly
	for _, run := range series.Runs(s.Points, flagged, s.Interval, maxGap) {
		if run.Len() < cfg.MinConsecutiveIntervals {
			continue
		}
		a := finding.Anomaly{
			ChannelID: s.ChannelID,
			Span:      run.Span(s.Points, s.Interval),
			Intervals: run.Len(),
		}
		var peak stats.Distribution
		for _, p := range s.Points[run.First : run.Last+1] {
			d, _ := profile.At(p.TS)
			if excess := p.KW - d.Median; excess > 0 {
				a.ExcessKWh += excess * hours
			}
			if p.KW > a.PeakKW || a.PeakKW == 0 {
				a.PeakKW = p.KW
				a.Context = c.Classify(p.TS)
				peak = d
			}
		}
		if a.ExcessKWh < cfg.MinExcessKwh {
			continue
		}
		a.MedianKW = peak.Median
		a.ThresholdKW = Threshold(peak, cfg.IQRMultiplier)
		a.PeakZScore = stats.ZScore(a.PeakKW, peak.Mean, peak.Std)
		if fence := a.ThresholdKW - a.MedianKW; fence > 0 {
			a.Severity = (a.PeakKW - a.MedianKW) / fence
		} else if cfg.ZScoreThreshold > 0 {
			a.Severity = a.PeakZScore / cfg.ZScoreThreshold
		}
		a.Level = Level(a.Severity)
		out = append(out, a)
	}
	return out
}

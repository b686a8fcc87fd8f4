// Package spike flags short bursts above a high-percentile ceiling.
package spike

import (
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/baseline"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/finding"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/series"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/config"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/domain"
)

// Floor is the absolute power a spike must exceed for a channel of the given role.
func Floor(role domain.ChannelRole, cfg config.Spike) float64 {
	if role == domain.RoleSiteTotal {
		return cfg.SiteMinKw
	}
	return cfg.SubmeterMinKw
}

// Detect merges candidates above both ceiling×multiplier and the role floor.
// Spans shorter than cfg.MinDuration intervals are dropped.
func Detect(s series.Series, ceiling baseline.Profile[float64], role domain.ChannelRole, cfg config.Spike, maxGap int) []finding.Spike {
	floor := Floor(role, cfg)
	flagged := func(i int) bool {
		p := s.Points[i]
		ref, ok := ceiling.At(p.TS)
		return ok && p.KW > ref*cfg.Multiplier && p.KW > floor
	}
	hours := s.IntervalHours()
	var out []finding.Spike
	for _, run := range series.Runs(s.Points, flagged, s.Interval, maxGap) {
		if run.Len() < cfg.MinDuration {
			continue
		}
		sp := finding.Spike{
			ChannelID: s.ChannelID,
			Span:      run.Span(s.Points, s.Interval),
			Intervals: run.Len(),
		}
		for _, p := range s.Points[run.First : run.Last+1] {
			ref, _ := ceiling.At(p.TS)
			if p.KW > sp.PeakKW {
				sp.PeakKW = p.KW
				sp.ThresholdKW = ref * cfg.Multiplier
			}
			if excess := p.KW - ref; excess > 0 {
				sp.ExcessKWh += excess * hours
			}
		}
		out = append(out, sp)
	}
	return out
}

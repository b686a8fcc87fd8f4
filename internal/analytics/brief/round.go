package brief

import (
	"github.com/shopspring/decimal"

	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/finding"
)

type rounder int32

func (p rounder) f(v float64) float64 {
	return decimal.NewFromFloat(v).Round(int32(p)).InexactFloat64()
}

// round applies the output precision to every reported quantity. Detection
// has already run on full-precision values.
func round(r *Report, precision int32) {
	p := rounder(precision)
	r.DataQuality.AvgCompleteness = p.f(r.DataQuality.AvgCompleteness)
	r.Summary.WasteKWh = p.f(r.Summary.WasteKWh)
	r.Summary.AnomalyKWh = p.f(r.Summary.AnomalyKWh)
	r.Summary.Savings.WeeklyKWh = p.f(r.Summary.Savings.WeeklyKWh)
	for i := range r.QuickWins {
		r.QuickWins[i].Impact.WeeklyKWh = p.f(r.QuickWins[i].Impact.WeeklyKWh)
	}
	for i := range r.Channels {
		roundSection(&r.Channels[i], p)
	}
	if r.Charts != nil {
		for i := range r.Charts.AfterHoursRanking {
			r.Charts.AfterHoursRanking[i].ExcessKWh = p.f(r.Charts.AfterHoursRanking[i].ExcessKWh)
		}
		for i := range r.Charts.AnomalyTimeline {
			roundAnomaly(&r.Charts.AnomalyTimeline[i], p)
		}
		for i := range r.Charts.SpikeEvents {
			roundSpike(&r.Charts.SpikeEvents[i], p)
		}
	}
}

func roundSection(s *ChannelSection, p rounder) {
	s.Completeness = p.f(s.Completeness)
	s.TotalKWh = p.f(s.TotalKWh)
	s.AfterHoursKWh = p.f(s.AfterHoursKWh)
	for i := range s.Omissions {
		s.Omissions[i].Completeness = p.f(s.Omissions[i].Completeness)
	}
	if b := s.AfterHoursBaseline; b != nil {
		b.Value = p.f(b.Value)
		b.Completeness = p.f(b.Completeness)
	}
	for i := range s.SensorIssues {
		is := &s.SensorIssues[i]
		is.MeanKW = p.f(is.MeanKW)
		is.Variance = p.f(is.Variance)
		is.Completeness = p.f(is.Completeness)
	}
	for i := range s.Waste {
		w := &s.Waste[i]
		w.BaselineKW = p.f(w.BaselineKW)
		w.PeakKW = p.f(w.PeakKW)
		w.AvgKW = p.f(w.AvgKW)
		w.ExcessKWh = p.f(w.ExcessKWh)
	}
	for i := range s.Anomalies {
		roundAnomaly(&s.Anomalies[i], p)
	}
	for i := range s.Spikes {
		roundSpike(&s.Spikes[i], p)
	}
	for i := range s.Raw {
		s.Raw[i].KW = p.f(s.Raw[i].KW)
	}
}

func roundAnomaly(a *finding.Anomaly, p rounder) {
	a.PeakKW = p.f(a.PeakKW)
	a.MedianKW = p.f(a.MedianKW)
	a.ThresholdKW = p.f(a.ThresholdKW)
	a.PeakZScore = p.f(a.PeakZScore)
	a.ExcessKWh = p.f(a.ExcessKWh)
	a.Severity = p.f(a.Severity)
}

func roundSpike(s *finding.Spike, p rounder) {
	s.PeakKW = p.f(s.PeakKW)
	s.ThresholdKW = p.f(s.ThresholdKW)
	s.ExcessKWh = p.f(s.ExcessKWh)
}

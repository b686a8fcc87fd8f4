// Package quickwins turns findings into a bounded, impact-ranked list of
// recommendations plus unranked data-quality advisories.
package quickwins

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/calendar"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/finding"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/config"
)

const weeksPerYear = 52

type Impact struct {
	WeeklyKWh  float64          `json:"weekly_kwh"`
	WeeklyCost *decimal.Decimal `json:"weekly_cost,omitempty"`
	AnnualCost *decimal.Decimal `json:"annual_cost,omitempty"`
	Note       string           `json:"note,omitempty"`
}

type Recommendation struct {
	Title       string           `json:"title"`
	Category    finding.Category `json:"category"`
	ChannelID   int64            `json:"channel_id"`
	Span        calendar.Range   `json:"span"`
	Priority    finding.Severity `json:"priority"`
	Description string           `json:"description"`
	Actions     []string         `json:"actions"`
	Owner       string           `json:"owner"`
	Effort      string           `json:"effort"`
	Impact      Impact           `json:"impact"`
}

// Advisory surfaces a sensor issue that has no quantifiable energy cost.
type Advisory struct {
	Title       string            `json:"title"`
	ChannelID   int64             `json:"channel_id"`
	Kind        finding.IssueKind `json:"kind"`
	Severity    finding.Severity  `json:"severity"`
	Span        calendar.Range    `json:"span"`
	Description string            `json:"description"`
	Actions     []string          `json:"actions"`
}

// Names resolves a channel id to a display name.
type Names func(channelID int64) string

// Rank converts waste, anomaly and spike findings into recommendations,
// orders them by weekly impact (ties by earliest start), keeps at most
// cfg.MaxCount and drops those under cfg.MinWeeklyImpact. Sensor issues come
// back as advisories, most severe first.
func Rank(findings []finding.Finding, names Names, cfg config.QuickWins, tariff config.Tariff) ([]Recommendation, []Advisory) {
	if names == nil {
		names = func(id int64) string { return fmt.Sprintf("channel %d", id) }
	}
	var recs []Recommendation
	var advisories []Advisory
	for _, f := range findings {
		switch v := f.(type) {
		case finding.WasteEvent:
			recs = append(recs, fromWaste(v, names(v.ChannelID)))
		case finding.Anomaly:
			recs = append(recs, fromAnomaly(v, names(v.ChannelID)))
		case finding.Spike:
			recs = append(recs, fromSpike(v, names(v.ChannelID), tariff))
		case finding.SensorIssue:
			advisories = append(advisories, fromSensorIssue(v, names(v.ChannelID)))
		}
	}

	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Impact.WeeklyKWh != recs[j].Impact.WeeklyKWh {
			return recs[i].Impact.WeeklyKWh > recs[j].Impact.WeeklyKWh
		}
		return recs[i].Span.Start.Before(recs[j].Span.Start)
	})
	if len(recs) > cfg.MaxCount {
		recs = recs[:cfg.MaxCount]
	}
	kept := recs[:0]
	for _, r := range recs {
		if r.Impact.WeeklyKWh >= cfg.MinWeeklyImpact {
			kept = append(kept, r)
		}
	}
	for i := range kept {
		price(&kept[i].Impact, tariff)
	}

	sort.SliceStable(advisories, func(i, j int) bool {
		ri, rj := severityRank(advisories[i].Severity), severityRank(advisories[j].Severity)
		if ri != rj {
			return ri < rj
		}
		return advisories[i].Span.Start.Before(advisories[j].Span.Start)
	})
	return kept, advisories
}

func price(impact *Impact, tariff config.Tariff) {
	rate, ok := tariff.Rate()
	if !ok {
		return
	}
	weekly := decimal.NewFromFloat(impact.WeeklyKWh).Mul(decimal.NewFromFloat(rate)).Round(2)
	annual := weekly.Mul(decimal.NewFromInt(weeksPerYear))
	impact.WeeklyCost = &weekly
	impact.AnnualCost = &annual
}

func severityRank(s finding.Severity) int {
	switch s {
	case finding.SeverityCritical:
		return 0
	case finding.SeverityHigh:
		return 1
	case finding.SeverityMedium:
		return 2
	default:
		return 3
	}
}

func fromWaste(w finding.WasteEvent, name string) Recommendation {
	priority := finding.SeverityMedium
	if w.ExcessKWh > 100 {
		priority = finding.SeverityHigh
	}
	return Recommendation{
		Title:     fmt.Sprintf("Reduce after-hours base load on %s", name),
		Category:  finding.CategoryWaste,
		ChannelID: w.ChannelID,
		Span:      w.Span,
		Priority:  priority,
		Description: fmt.Sprintf("%s averaged %.1f kW for %.1f hours after hours against a %.1f kW baseline, %.1f kWh above idle.",
			name, w.AvgKW, w.Span.Duration().Hours(), w.BaselineKW, w.ExcessKWh),
		Actions: []string{
			"Verify equipment schedules match actual occupancy",
			"Check for HVAC systems running outside business hours",
			"Look for computers or servers left on unnecessarily",
			"Consider occupancy sensors or time-based controls",
		},
		Owner:  "Facilities Manager",
		Effort: "Low to Medium",
		Impact: Impact{WeeklyKWh: w.ExcessKWh},
	}
}

func fromAnomaly(a finding.Anomaly, name string) Recommendation {
	priority := finding.SeverityMedium
	if a.ExcessKWh > 50 {
		priority = finding.SeverityHigh
	}
	return Recommendation{
		Title:     fmt.Sprintf("Investigate unusual load on %s", name),
		Category:  finding.CategoryAnomaly,
		ChannelID: a.ChannelID,
		Span:      a.Span,
		Priority:  priority,
		Description: fmt.Sprintf("%s ran %.1f kWh above its usual level over %d intervals, peaking at %.1f kW during %s.",
			name, a.ExcessKWh, a.Intervals, a.PeakKW, a.Context),
		Actions: []string{
			"Review equipment operation logs for this period",
			"Check whether equipment was added or settings changed",
			"Verify the load is appropriate for operational needs",
			"Consider load shifting if this falls in peak demand periods",
		},
		Owner:  "Operations / Energy Manager",
		Effort: "Medium",
		Impact: Impact{WeeklyKWh: a.ExcessKWh},
	}
}

func fromSpike(s finding.Spike, name string, tariff config.Tariff) Recommendation {
	note := "May also impact demand charges if applicable"
	if tariff.DemandCharge != nil {
		monthly := decimal.NewFromFloat(s.PeakKW).Mul(decimal.NewFromFloat(*tariff.DemandCharge)).Round(2)
		note = fmt.Sprintf("Plus potential demand charges: $%s/month", monthly.StringFixed(2))
	}
	return Recommendation{
		Title:     fmt.Sprintf("Reduce demand spikes on %s", name),
		Category:  finding.CategorySpike,
		ChannelID: s.ChannelID,
		Span:      s.Span,
		Priority:  finding.SeverityMedium,
		Description: fmt.Sprintf("%s spiked to %.1f kW against a %.1f kW ceiling. This may indicate short-cycling or simultaneous equipment starts.",
			name, s.PeakKW, s.ThresholdKW),
		Actions: []string{
			"Stagger start times for large equipment",
			"Check for short-cycling HVAC or refrigeration",
			"Consider soft-start controllers for motors",
			"Verify equipment is properly sized",
		},
		Owner:  "Facilities Manager",
		Effort: "Medium to High",
		Impact: Impact{WeeklyKWh: s.ExcessKWh, Note: note},
	}
}

func fromSensorIssue(s finding.SensorIssue, name string) Advisory {
	a := Advisory{
		ChannelID:   s.ChannelID,
		Kind:        s.Kind,
		Severity:    s.Severity,
		Span:        s.Span,
		Description: fmt.Sprintf("%s: %s", name, s.Description),
	}
	switch s.Kind {
	case finding.IssueFlatline:
		a.Title = fmt.Sprintf("Check stuck sensor on %s", name)
		a.Actions = []string{
			"Inspect the physical sensor for damage or disconnection",
			"Reset or recalibrate the meter",
			"Replace the sensor if recalibration fails",
		}
	default:
		a.Title = fmt.Sprintf("Fix data communication on %s", name)
		a.Actions = []string{
			"Check network connectivity and power to the meter",
			"Verify meter configuration and logging settings",
			"Contact the meter vendor if the issue persists",
		}
	}
	return a
}

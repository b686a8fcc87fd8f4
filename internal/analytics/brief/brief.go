// Package brief assembles the weekly exceptions and opportunities report for
// one site from per-channel readings and a report profile.
package brief

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/afterhours"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/anomaly"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/baseline"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/calendar"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/finding"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/quickwins"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/sensorhealth"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/series"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/spike"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/config"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/domain"
)

const Version = "1.0.0"

// Detector names used in omissions.
const (
	DetectorSensorHealth = "sensor_health"
	DetectorAfterHours   = "after_hours_waste"
	DetectorAnomaly      = "anomaly"
	DetectorSpike        = "spike"
)

// ChannelInput carries one channel's readings covering both the baseline
// window and the report week. LastReading is the newest reading stored for
// the channel, which may be later than the report week.
type ChannelInput struct {
	Channel     domain.Channel   `json:"channel"`
	Readings    []domain.Reading `json:"readings"`
	LastReading *time.Time       `json:"last_reading,omitempty"`
}

type Input struct {
	Site     domain.Site    `json:"site"`
	Period   calendar.Range `json:"period"`
	Channels []ChannelInput `json:"channels"`
}

// Omission records a detector skipped because its input could not be trusted.
type Omission struct {
	Detector     string  `json:"detector"`
	Reason       string  `json:"reason"`
	Completeness float64 `json:"completeness"`
}

type ChannelSection struct {
	ChannelID          int64                 `json:"channel_id"`
	Name               string                `json:"name"`
	Role               domain.ChannelRole    `json:"role"`
	IntervalSeconds    int                   `json:"interval_seconds"`
	Completeness       float64               `json:"completeness"`
	Dropped            int                   `json:"dropped_readings"`
	Unsupported        bool                  `json:"unsupported_interval,omitempty"`
	TotalKWh           float64               `json:"total_kwh"`
	AfterHoursKWh      float64               `json:"after_hours_kwh"`
	AfterHoursBaseline *baseline.Baseline    `json:"after_hours_baseline,omitempty"`
	SensorIssues       []finding.SensorIssue `json:"sensor_issues"`
	Waste              []finding.WasteEvent  `json:"after_hours_waste"`
	Anomalies          []finding.Anomaly     `json:"anomalies"`
	Spikes             []finding.Spike       `json:"spikes"`
	Omissions          []Omission            `json:"omissions,omitempty"`
	Raw                []series.Point        `json:"raw,omitempty"`
}

// Findings flattens the section's findings in category order.
func (c ChannelSection) Findings() []finding.Finding {
	out := make([]finding.Finding, 0, len(c.SensorIssues)+len(c.Waste)+len(c.Anomalies)+len(c.Spikes))
	for _, f := range c.SensorIssues {
		out = append(out, f)
	}
	for _, f := range c.Waste {
		out = append(out, f)
	}
	for _, f := range c.Anomalies {
		out = append(out, f)
	}
	for _, f := range c.Spikes {
		out = append(out, f)
	}
	return out
}

type Metadata struct {
	GeneratedAt       time.Time      `json:"generated_at"`
	Version           string         `json:"version"`
	Site              domain.Site    `json:"site"`
	Timezone          string         `json:"timezone"`
	Period            calendar.Range `json:"period"`
	Baseline          calendar.Range `json:"baseline"`
	WeeksCount        int            `json:"weeks_count"`
	ResolutionSeconds int            `json:"resolution_seconds"`
}

type Savings struct {
	WeeklyKWh  float64          `json:"weekly_kwh"`
	WeeklyCost *decimal.Decimal `json:"weekly_cost,omitempty"`
	AnnualCost *decimal.Decimal `json:"annual_cost,omitempty"`
}

type Summary struct {
	Headline         []string `json:"headline"`
	TopRisks         []string `json:"top_risks"`
	TopOpportunities []string `json:"top_opportunities"`
	Savings          Savings  `json:"total_potential_savings"`
	SensorIssues     int      `json:"sensor_issues"`
	HighSeverity     int      `json:"high_severity_issues"`
	WasteKWh         float64  `json:"after_hours_excess_kwh"`
	AnomalyEvents    int      `json:"anomaly_events"`
	AnomalyKWh       float64  `json:"anomaly_excess_kwh"`
	SpikeEvents      int      `json:"spike_events"`
}

type RankEntry struct {
	ChannelID int64   `json:"channel_id"`
	Name      string  `json:"name"`
	ExcessKWh float64 `json:"excess_kwh"`
}

type Charts struct {
	AfterHoursRanking []RankEntry       `json:"after_hours_ranking"`
	AnomalyTimeline   []finding.Anomaly `json:"anomaly_timeline"`
	SpikeEvents       []finding.Spike   `json:"spike_events"`
}

type DataQuality struct {
	ChannelsAnalyzed int     `json:"channels_analyzed"`
	AvgCompleteness  float64 `json:"avg_completeness"`
	DroppedReadings  int     `json:"dropped_readings"`
	Omissions        int     `json:"omissions"`
	// Unsupported counts channels sampled at no supported resolution.
	Unsupported int `json:"unsupported_interval_channels"`
}

type Report struct {
	ID          string                     `json:"report_id"`
	Metadata    Metadata                   `json:"metadata"`
	Summary     Summary                    `json:"summary"`
	Channels    []ChannelSection           `json:"channels"`
	QuickWins   []quickwins.Recommendation `json:"quick_wins"`
	Advisories  []quickwins.Advisory       `json:"advisories"`
	Charts      *Charts                    `json:"charts,omitempty"`
	DataQuality DataQuality                `json:"data_quality"`
}

// ReportID derives a stable id from the site, period and generation time so
// that regenerating the same report yields the same id.
func ReportID(siteID string, period calendar.Range, asOf time.Time) string {
	name := fmt.Sprintf("%s|%s|%s|%s", siteID, period.Start.UTC().Format(time.RFC3339), period.End.UTC().Format(time.RFC3339), asOf.UTC().Format(time.RFC3339Nano))
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

// Generate analyzes every channel, at most workers at a time, and assembles
// the report. Baselines come only from the weeks before in.Period. The only
// error is ctx cancellation; per-channel deficiencies become omissions.
func Generate(ctx context.Context, in Input, cfg config.Report, asOf time.Time, workers int) (Report, error) {
	window := calendar.BaselinePeriod(in.Period.Start, cfg.Baseline.WeeksCount)
	classifier := cfg.Classifier()

	sections := make([]ChannelSection, len(in.Channels))
	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, ch := range in.Channels {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sections[i] = analyzeChannel(ch, in.Period, window, asOf, classifier, cfg)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, fmt.Errorf("failed to analyze channels: %w", err)
	}

	names := make(map[int64]string, len(sections))
	var all []finding.Finding
	for _, s := range sections {
		names[s.ChannelID] = s.Name
		all = append(all, s.Findings()...)
	}
	wins, advisories := quickwins.Rank(all, func(id int64) string { return names[id] }, cfg.QuickWins, cfg.Tariff)

	r := Report{
		ID: ReportID(in.Site.ID, in.Period, asOf),
		Metadata: Metadata{
			GeneratedAt:       asOf,
			Version:           Version,
			Site:              in.Site,
			Timezone:          cfg.Timezone,
			Period:            in.Period,
			Baseline:          window,
			WeeksCount:        cfg.Baseline.WeeksCount,
			ResolutionSeconds: resolution(sections, cfg.IntervalPreferences),
		},
		Channels:    sections,
		QuickWins:   wins,
		Advisories:  advisories,
		DataQuality: dataQuality(sections),
	}
	r.Summary = summarize(sections, cfg.Tariff)
	if cfg.Output.IncludeCharts {
		r.Charts = charts(sections)
	}
	round(&r, int32(cfg.Output.Precision))
	return r, nil
}

func keyFor(kind string, c calendar.Classifier) baseline.KeyFunc {
	if kind == config.ContextHourOfWeek {
		return baseline.ByHourOfWeek(c)
	}
	return baseline.WholeWindow
}

func omit(detector string, completeness float64, err error) Omission {
	return Omission{Detector: detector, Reason: err.Error(), Completeness: completeness}
}

func analyzeChannel(in ChannelInput, period, window calendar.Range, asOf time.Time, c calendar.Classifier, cfg config.Report) ChannelSection {
	full := series.Build(in.Channel.ID, in.Readings, calendar.Range{Start: window.Start, End: period.End}, cfg.IntervalPreferences)
	rep := full.Between(period)
	ref := full.Between(window)
	gap := cfg.MergeGapIntervals

	sec := ChannelSection{
		ChannelID:       in.Channel.ID,
		Name:            in.Channel.Name,
		Role:            in.Channel.Role,
		IntervalSeconds: int(full.Interval.Seconds()),
		Dropped:         full.Dropped,
	}
	// Energy integrals and completeness are meaningless off the supported grid.
	if err := full.CheckInterval(); err != nil {
		sec.Unsupported = true
		for _, d := range []string{DetectorSensorHealth, DetectorAfterHours, DetectorAnomaly, DetectorSpike} {
			sec.Omissions = append(sec.Omissions, omit(d, 0, err))
		}
		return sec
	}
	var last time.Time
	if in.LastReading != nil {
		last = *in.LastReading
	}
	sec.Completeness = rep.Completeness()
	sec.SensorIssues = sensorhealth.Detect(rep, last, asOf, cfg.SensorHealth)
	hours := rep.IntervalHours()
	for _, p := range rep.Points {
		sec.TotalKWh += p.KW * hours
		if c.IsAfterHours(p.TS) {
			sec.AfterHoursKWh += p.KW * hours
		}
	}

	if b, err := afterhours.Baseline(ref, c, cfg.AfterHours, cfg.Baseline.MinCompleteness); err != nil {
		sec.Omissions = append(sec.Omissions, omit(DetectorAfterHours, b.Completeness, err))
	} else {
		sec.AfterHoursBaseline = &b
		sec.Waste = afterhours.Detect(rep, c, b.Value, cfg.AfterHours, gap)
	}

	if prof, err := baseline.DistributionProfile(ref, keyFor(cfg.Anomaly.Context, c), cfg.Baseline.MinCompleteness); err != nil {
		sec.Omissions = append(sec.Omissions, omit(DetectorAnomaly, prof.Completeness, err))
	} else {
		sec.Anomalies = anomaly.Detect(rep, prof, c, cfg.Anomaly, gap)
	}

	if prof, err := baseline.PercentileProfile(ref, keyFor(cfg.Spike.Context, c), cfg.Spike.BaselinePercentile, cfg.Baseline.MinCompleteness); err != nil {
		sec.Omissions = append(sec.Omissions, omit(DetectorSpike, prof.Completeness, err))
	} else {
		sec.Spikes = spike.Detect(rep, prof, in.Channel.Role, cfg.Spike, gap)
	}

	if cfg.Output.IncludeRawData {
		sec.Raw = rep.Points
	}
	return sec
}

// resolution is the most common interval among channels with report-week
// data, falling back to the first preference.
func resolution(sections []ChannelSection, prefs []int) int {
	counts := make(map[int]int)
	best, bestN := 0, 0
	for _, s := range sections {
		if s.Completeness == 0 {
			continue
		}
		counts[s.IntervalSeconds]++
		if n := counts[s.IntervalSeconds]; n > bestN || (n == bestN && s.IntervalSeconds < best) {
			best, bestN = s.IntervalSeconds, n
		}
	}
	if best == 0 && len(prefs) > 0 {
		return prefs[0]
	}
	return best
}

func dataQuality(sections []ChannelSection) DataQuality {
	q := DataQuality{ChannelsAnalyzed: len(sections)}
	for _, s := range sections {
		q.AvgCompleteness += s.Completeness
		q.DroppedReadings += s.Dropped
		q.Omissions += len(s.Omissions)
		if s.Unsupported {
			q.Unsupported++
		}
	}
	if len(sections) > 0 {
		q.AvgCompleteness /= float64(len(sections))
	}
	return q
}

func cost(kwh float64, tariff config.Tariff) (*decimal.Decimal, *decimal.Decimal) {
	rate, ok := tariff.Rate()
	if !ok {
		return nil, nil
	}
	weekly := decimal.NewFromFloat(kwh).Mul(decimal.NewFromFloat(rate)).Round(2)
	annual := weekly.Mul(decimal.NewFromInt(52))
	return &weekly, &annual
}

func summarize(sections []ChannelSection, tariff config.Tariff) Summary {
	var s Summary
	highChannels := 0
	for _, sec := range sections {
		high := false
		for _, issue := range sec.SensorIssues {
			s.SensorIssues++
			if issue.Severity == finding.SeverityHigh {
				s.HighSeverity++
				high = true
			}
		}
		if high {
			highChannels++
		}
		for _, w := range sec.Waste {
			s.WasteKWh += w.ExcessKWh
		}
		for _, a := range sec.Anomalies {
			s.AnomalyEvents++
			s.AnomalyKWh += a.ExcessKWh
		}
		s.SpikeEvents += len(sec.Spikes)
	}

	s.Savings.WeeklyKWh = s.WasteKWh + s.AnomalyKWh
	s.Savings.WeeklyCost, s.Savings.AnnualCost = cost(s.Savings.WeeklyKWh, tariff)
	wasteWeekly, wasteAnnual := cost(s.WasteKWh, tariff)

	if s.HighSeverity > 0 {
		s.Headline = append(s.Headline, fmt.Sprintf("%d high-severity data quality issue(s) detected", s.HighSeverity))
		s.TopRisks = append(s.TopRisks, fmt.Sprintf("Missing or unreliable data on %d channel(s)", highChannels))
	}
	if s.WasteKWh > 0 {
		if wasteWeekly != nil {
			s.Headline = append(s.Headline, fmt.Sprintf("$%s/week in after-hours waste identified", wasteWeekly.StringFixed(0)))
		} else {
			s.Headline = append(s.Headline, fmt.Sprintf("%.0f kWh/week in after-hours waste identified", s.WasteKWh))
		}
	}
	if s.AnomalyEvents > 5 {
		s.Headline = append(s.Headline, fmt.Sprintf("%d unusual consumption events detected", s.AnomalyEvents))
	}
	if len(s.Headline) == 0 {
		s.Headline = []string{"No significant issues detected this week"}
	}

	if s.AnomalyKWh > 100 {
		s.TopRisks = append(s.TopRisks, fmt.Sprintf("Significant unexpected consumption: %.0f kWh", s.AnomalyKWh))
	}
	if s.WasteKWh > 100 {
		s.TopRisks = append(s.TopRisks, fmt.Sprintf("High after-hours waste: %.0f kWh/week", s.WasteKWh))
	}
	if len(s.TopRisks) == 0 {
		s.TopRisks = []string{"No significant risks identified"}
	}

	if s.WasteKWh > 50 {
		if wasteAnnual != nil {
			s.TopOpportunities = append(s.TopOpportunities, fmt.Sprintf("After-hours optimization: $%s/year potential", wasteAnnual.StringFixed(0)))
		} else {
			s.TopOpportunities = append(s.TopOpportunities, fmt.Sprintf("After-hours optimization: %.0f kWh/year potential", s.WasteKWh*52))
		}
	}
	if s.SpikeEvents > 0 {
		s.TopOpportunities = append(s.TopOpportunities, fmt.Sprintf("Demand spike reduction: %d events to investigate", s.SpikeEvents))
	}
	if len(s.TopOpportunities) == 0 {
		s.TopOpportunities = []string{"Continue monitoring for optimization opportunities"}
	}
	return s
}

const topSpikes = 10

func charts(sections []ChannelSection) *Charts {
	c := &Charts{}
	for _, sec := range sections {
		var excess float64
		for _, w := range sec.Waste {
			excess += w.ExcessKWh
		}
		if excess > 0 {
			c.AfterHoursRanking = append(c.AfterHoursRanking, RankEntry{ChannelID: sec.ChannelID, Name: sec.Name, ExcessKWh: excess})
		}
		c.AnomalyTimeline = append(c.AnomalyTimeline, sec.Anomalies...)
		c.SpikeEvents = append(c.SpikeEvents, sec.Spikes...)
	}
	sort.SliceStable(c.AfterHoursRanking, func(i, j int) bool {
		return c.AfterHoursRanking[i].ExcessKWh > c.AfterHoursRanking[j].ExcessKWh
	})
	finding.SortByOnset(c.AnomalyTimeline)
	sort.SliceStable(c.SpikeEvents, func(i, j int) bool {
		return c.SpikeEvents[i].PeakKW > c.SpikeEvents[j].PeakKW
	})
	if len(c.SpikeEvents) > topSpikes {
		c.SpikeEvents = c.SpikeEvents[:topSpikes]
	}
	return c
}

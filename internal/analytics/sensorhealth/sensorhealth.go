// Package sensorhealth flags data gaps, stale meters, flatlined sensors and
// low completeness in a channel's report-week series.
package sensorhealth

import (
	"fmt"
	"math"
	"time"

	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/calendar"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/finding"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/series"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/stats"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/config"
)

// Detect runs gap detection first, then flatline detection over the
// gap-free residual segments, then the report-level stale and completeness
// checks. last is the newest reading stored for the channel, which may lie
// past the series window; zero means the newest point in s. Issues come back
// ordered by onset.
func Detect(s series.Series, last, asOf time.Time, cfg config.SensorHealth) []finding.SensorIssue {
	if len(s.Points) == 0 {
		return []finding.SensorIssue{{
			ChannelID:   s.ChannelID,
			Kind:        finding.IssueNoData,
			Severity:    finding.SeverityHigh,
			Span:        s.Window,
			Description: "No readings received during the report period",
		}}
	}

	issues, segments := Gaps(s, cfg.GapMultiplier)
	issues = append(issues, Flatlines(s.ChannelID, segments, s.Interval, cfg)...)
	if issue, ok := Stale(s, last, asOf, cfg.StaleHours); ok {
		issues = append(issues, issue)
	}
	if issue, ok := LowCompleteness(s, cfg.MissingThresholdPct); ok {
		issues = append(issues, issue)
	}
	finding.SortByOnset(issues)
	return issues
}

// Gaps flags every spacing of at least multiplier intervals and returns the
// contiguous segments left between gaps.
func Gaps(s series.Series, multiplier float64) ([]finding.SensorIssue, [][]series.Point) {
	var issues []finding.SensorIssue
	var segments [][]series.Point
	threshold := time.Duration(multiplier * float64(s.Interval))
	start := 0
	for i := 1; i < len(s.Points); i++ {
		prev, cur := s.Points[i-1].TS, s.Points[i].TS
		delta := cur.Sub(prev)
		if delta < threshold {
			continue
		}
		missing := int(math.Round(float64(delta)/float64(s.Interval))) - 1
		severity := finding.SeverityMedium
		if missing > 10 {
			severity = finding.SeverityHigh
		}
		span := calendar.Range{Start: prev.Add(s.Interval), End: cur}
		issues = append(issues, finding.SensorIssue{
			ChannelID:        s.ChannelID,
			Kind:             finding.IssueGap,
			Severity:         severity,
			Span:             span,
			MissingIntervals: missing,
			Description:      fmt.Sprintf("Missing %d intervals (%.1fh gap)", missing, span.Duration().Hours()),
		})
		segments = append(segments, s.Points[start:i])
		start = i
	}
	segments = append(segments, s.Points[start:])
	return issues, segments
}

// Flatlines slides a window of cfg.FlatlineHours over each segment and
// reports windows whose sample variance stays under the threshold while the
// mean stays above the minimum. Overlapping windows merge.
func Flatlines(channelID int64, segments [][]series.Point, interval time.Duration, cfg config.SensorHealth) []finding.SensorIssue {
	if interval <= 0 {
		return nil
	}
	size := int(math.Round(cfg.FlatlineHours * float64(time.Hour) / float64(interval)))
	if size < 2 {
		size = 2
	}
	var issues []finding.SensorIssue
	for _, seg := range segments {
		if len(seg) < size {
			continue
		}
		values := make([]float64, len(seg))
		for i, p := range seg {
			values[i] = p.KW
		}
		first, last := -1, -1
		flush := func() {
			if first < 0 {
				return
			}
			union := values[first : last+1]
			mean, _ := stats.MeanStd(union)
			span := calendar.Range{Start: seg[first].TS, End: seg[last].TS.Add(interval)}
			issues = append(issues, finding.SensorIssue{
				ChannelID:   channelID,
				Kind:        finding.IssueFlatline,
				Severity:    finding.SeverityMedium,
				Span:        span,
				MeanKW:      mean,
				Variance:    stats.Variance(union),
				Description: fmt.Sprintf("Flatlined at %.2f kW for %.1f hours (possible stuck sensor)", mean, span.Duration().Hours()),
			})
			first, last = -1, -1
		}
		for i := 0; i+size <= len(values); i++ {
			window := values[i : i+size]
			mean, _ := stats.MeanStd(window)
			if stats.Variance(window) >= cfg.FlatlineVarianceThreshold || mean <= cfg.FlatlineMinMeanKw {
				continue
			}
			if first >= 0 && i > last {
				flush()
			}
			if first < 0 {
				first = i
			}
			last = i + size - 1
		}
		flush()
	}
	return issues
}

// Stale reports when the newest reading, the later of last and the final
// point in s, is more than staleHours older than asOf.
func Stale(s series.Series, last, asOf time.Time, staleHours float64) (finding.SensorIssue, bool) {
	if n := len(s.Points); n > 0 && s.Points[n-1].TS.After(last) {
		last = s.Points[n-1].TS
	}
	if last.IsZero() {
		return finding.SensorIssue{}, false
	}
	since := asOf.Sub(last).Hours()
	if since <= staleHours {
		return finding.SensorIssue{}, false
	}
	severity := finding.SeverityLow
	if since > 24 {
		severity = finding.SeverityHigh
	}
	start := last.Add(s.Interval)
	if start.After(asOf) {
		start = last
	}
	return finding.SensorIssue{
		ChannelID:   s.ChannelID,
		Kind:        finding.IssueStale,
		Severity:    severity,
		Span:        calendar.Range{Start: start, End: asOf},
		Description: fmt.Sprintf("No data for %.1f hours (last: %s)", since, last.Format("2006-01-02 15:04:05")),
	}, true
}

// LowCompleteness reports when fewer than 100-missingPct percent of the
// expected intervals are present.
func LowCompleteness(s series.Series, missingPct float64) (finding.SensorIssue, bool) {
	completeness := s.Completeness()
	if completeness >= 100-missingPct {
		return finding.SensorIssue{}, false
	}
	severity := finding.SeverityMedium
	if completeness < 50 {
		severity = finding.SeverityHigh
	}
	missing := s.Expected() - len(s.Points)
	return finding.SensorIssue{
		ChannelID:        s.ChannelID,
		Kind:             finding.IssueLowCompleteness,
		Severity:         severity,
		Span:             s.Window,
		MissingIntervals: missing,
		Completeness:     completeness,
		Description:      fmt.Sprintf("Only %.1f%% data completeness (missing %d intervals)", completeness, missing),
	}, true
}

// Package finding defines the immutable results the detectors emit.
package finding

import (
	"sort"

	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/calendar"
)

type Category string

const (
	CategorySensor  Category = "sensor_issue"
	CategoryWaste   Category = "after_hours_waste"
	CategoryAnomaly Category = "anomaly"
	CategorySpike   Category = "spike"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Finding is one of SensorIssue, WasteEvent, Anomaly or Spike.
type Finding interface {
	Category() Category
	Channel() int64
	Range() calendar.Range
}

type IssueKind string

const (
	IssueGap             IssueKind = "gap"
	IssueStale           IssueKind = "stale"
	IssueFlatline        IssueKind = "flatline"
	IssueLowCompleteness IssueKind = "low_completeness"
	IssueNoData          IssueKind = "no_data"
)

type SensorIssue struct {
	ChannelID        int64          `json:"channel_id"`
	Kind             IssueKind      `json:"kind"`
	Severity         Severity       `json:"severity"`
	Span             calendar.Range `json:"span"`
	MissingIntervals int            `json:"missing_intervals,omitempty"`
	MeanKW           float64        `json:"mean_kw,omitempty"`
	Variance         float64        `json:"variance,omitempty"`
	Completeness     float64        `json:"completeness,omitempty"`
	Description      string         `json:"description"`
}

func (s SensorIssue) Category() Category    { return CategorySensor }
func (s SensorIssue) Channel() int64        { return s.ChannelID }
func (s SensorIssue) Range() calendar.Range { return s.Span }

type WasteEvent struct {
	ChannelID  int64          `json:"channel_id"`
	Span       calendar.Range `json:"span"`
	Intervals  int            `json:"intervals"`
	BaselineKW float64        `json:"baseline_kw"`
	PeakKW     float64        `json:"peak_kw"`
	AvgKW      float64        `json:"avg_kw"`
	ExcessKWh  float64        `json:"excess_kwh"`
}

func (w WasteEvent) Category() Category    { return CategoryWaste }
func (w WasteEvent) Channel() int64        { return w.ChannelID }
func (w WasteEvent) Range() calendar.Range { return w.Span }

type Anomaly struct {
	ChannelID   int64           `json:"channel_id"`
	Span        calendar.Range  `json:"span"`
	Intervals   int             `json:"intervals"`
	PeakKW      float64         `json:"peak_kw"`
	MedianKW    float64         `json:"median_kw"`
	ThresholdKW float64         `json:"threshold_kw"`
	PeakZScore  float64         `json:"peak_z_score"`
	ExcessKWh   float64         `json:"excess_kwh"`
	Severity    float64         `json:"severity"`
	Level       Severity        `json:"level"`
	Context     calendar.Period `json:"context"`
}

func (a Anomaly) Category() Category    { return CategoryAnomaly }
func (a Anomaly) Channel() int64        { return a.ChannelID }
func (a Anomaly) Range() calendar.Range { return a.Span }

type Spike struct {
	ChannelID   int64          `json:"channel_id"`
	Span        calendar.Range `json:"span"`
	Intervals   int            `json:"intervals"`
	PeakKW      float64        `json:"peak_kw"`
	ThresholdKW float64        `json:"threshold_kw"`
	ExcessKWh   float64        `json:"excess_kwh"`
}

func (s Spike) Category() Category    { return CategorySpike }
func (s Spike) Channel() int64        { return s.ChannelID }
func (s Spike) Range() calendar.Range { return s.Span }

// SortByOnset orders findings chronologically, stable for equal onsets.
func SortByOnset[T Finding](items []T) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Range().Start.Before(items[j].Range().Start)
	})
}

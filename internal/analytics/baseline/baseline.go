// Package baseline derives reference load levels from the closed historical
// window that precedes a report week.
package baseline

import (
	"errors"
	"fmt"
	"time"

	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/calendar"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/series"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/stats"
)

// ErrInsufficientData means the reference window is too incomplete to trust.
var ErrInsufficientData = errors.New("insufficient data")

// Baseline is a percentile of a reference population.
type Baseline struct {
	Window       calendar.Range `json:"window"`
	Percentile   float64        `json:"percentile"`
	Value        float64        `json:"value_kw"`
	Population   int            `json:"population"`
	Completeness float64        `json:"completeness"`
}

// Selector picks which interval slots belong to the context, e.g. after-hours only.
type Selector func(ts time.Time) bool

// KeyFunc buckets readings into contexts, e.g. hour of week.
type KeyFunc func(ts time.Time) int

// WholeWindow puts every reading into one context.
func WholeWindow(time.Time) int { return 0 }

// ByHourOfWeek buckets by hour of week in the classifier's timezone.
func ByHourOfWeek(c calendar.Classifier) KeyFunc { return c.HourOfWeek }

func insufficient(completeness, min float64) error {
	return fmt.Errorf("%w: completeness %.1f%% below %.1f%%", ErrInsufficientData, completeness, min)
}

// Estimate computes the pct-th percentile of the reference readings matching
// sel whose power passes keep. Completeness is judged over the slots matching
// sel; keep only shapes the population.
func Estimate(ref series.Series, sel Selector, keep func(kw float64) bool, pct, minCompleteness float64) (Baseline, error) {
	b := Baseline{Window: ref.Window, Percentile: pct}
	if sel == nil {
		sel = func(time.Time) bool { return true }
	}
	present := 0
	var population []float64
	for _, p := range ref.Points {
		if !sel(p.TS) {
			continue
		}
		present++
		if keep == nil || keep(p.KW) {
			population = append(population, p.KW)
		}
	}
	b.Completeness = series.Completeness(present, series.ExpectedIntervals(ref.Window, ref.Interval, sel))
	if b.Completeness < minCompleteness {
		return b, insufficient(b.Completeness, minCompleteness)
	}
	if len(population) == 0 {
		return b, fmt.Errorf("%w: empty reference population", ErrInsufficientData)
	}
	b.Population = len(population)
	b.Value = stats.Percentile(population, pct)
	return b, nil
}

// Profile holds one value per context key over a reference window.
type Profile[T any] struct {
	Window       calendar.Range `json:"window"`
	Completeness float64        `json:"completeness"`
	Contexts     int            `json:"contexts"`
	key          KeyFunc
	values       map[int]T
}

// At returns the value of ts's context, if the window held any reading for it.
func (p Profile[T]) At(ts time.Time) (T, bool) {
	v, ok := p.values[p.key(ts)]
	return v, ok
}

func group(ref series.Series, key KeyFunc, minCompleteness float64) (map[int][]float64, float64, error) {
	completeness := ref.Completeness()
	if completeness < minCompleteness {
		return nil, completeness, insufficient(completeness, minCompleteness)
	}
	groups := make(map[int][]float64)
	for _, p := range ref.Points {
		k := key(p.TS)
		groups[k] = append(groups[k], p.KW)
	}
	if len(groups) == 0 {
		return nil, completeness, fmt.Errorf("%w: empty reference population", ErrInsufficientData)
	}
	return groups, completeness, nil
}

// PercentileProfile computes the pct-th percentile per context.
func PercentileProfile(ref series.Series, key KeyFunc, pct, minCompleteness float64) (Profile[float64], error) {
	p := Profile[float64]{Window: ref.Window, key: key}
	groups, completeness, err := group(ref, key, minCompleteness)
	p.Completeness = completeness
	if err != nil {
		return p, err
	}
	p.values = make(map[int]float64, len(groups))
	for k, vals := range groups {
		p.values[k] = stats.Percentile(vals, pct)
	}
	p.Contexts = len(p.values)
	return p, nil
}

// DistributionProfile describes each context's population.
func DistributionProfile(ref series.Series, key KeyFunc, minCompleteness float64) (Profile[stats.Distribution], error) {
	p := Profile[stats.Distribution]{Window: ref.Window, key: key}
	groups, completeness, err := group(ref, key, minCompleteness)
	p.Completeness = completeness
	if err != nil {
		return p, err
	}
	p.values = make(map[int]stats.Distribution, len(groups))
	for k, vals := range groups {
		p.values[k] = stats.Describe(vals)
	}
	p.Contexts = len(p.values)
	return p, nil
}

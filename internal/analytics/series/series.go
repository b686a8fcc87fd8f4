// Package series turns raw readings into the validated, strictly increasing
// interval series that every detector reads.
package series

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/calendar"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/domain"
)

var (
	// ErrMalformedReading marks a reading excluded from a series.
	ErrMalformedReading = errors.New("malformed reading")
	// ErrUnsupportedInterval marks a series whose sampling does not match any
	// supported resolution.
	ErrUnsupportedInterval = errors.New("unsupported interval")
)

// spacingTolerance is the largest relative difference between the median
// reading spacing and the resolved interval.
const spacingTolerance = 0.1

type Point struct {
	TS time.Time `json:"ts"`
	KW float64   `json:"kw"`
}

type Series struct {
	ChannelID int64          `json:"channel_id"`
	Interval  time.Duration  `json:"interval"`
	Window    calendar.Range `json:"window"`
	Points    []Point        `json:"points"`
	// Spacing is the median spacing between readings, zero with fewer than two.
	Spacing time.Duration `json:"spacing"`
	// Dropped counts malformed readings that were excluded.
	Dropped int `json:"dropped"`
}

// Build sanitizes readings inside window. Readings are put in time order
// first, so a reading that arrives late only costs itself. A repeated
// timestamp is malformed, as is a reading with no usable power or energy
// value.
func Build(channelID int64, readings []domain.Reading, window calendar.Range, prefs []int) Series {
	in := make([]domain.Reading, 0, len(readings))
	for _, r := range readings {
		if window.Contains(r.Timestamp) {
			in = append(in, r)
		}
	}
	sort.SliceStable(in, func(i, j int) bool { return in[i].Timestamp.Before(in[j].Timestamp) })
	stamps := make([]time.Time, len(in))
	for i, r := range in {
		stamps[i] = r.Timestamp
	}
	s := Series{
		ChannelID: channelID,
		Interval:  ResolveInterval(stamps, prefs),
		Window:    window,
		Points:    make([]Point, 0, len(in)),
		Spacing:   MedianSpacing(stamps),
	}
	for _, r := range in {
		kw, err := s.power(r)
		if err != nil || (len(s.Points) > 0 && !r.Timestamp.After(s.Points[len(s.Points)-1].TS)) {
			s.Dropped++
			continue
		}
		s.Points = append(s.Points, Point{TS: r.Timestamp, KW: kw})
	}
	return s
}

// CheckInterval reports ErrUnsupportedInterval when the median spacing is
// not within tolerance of the resolved interval.
func (s Series) CheckInterval() error {
	if s.Spacing <= 0 || s.Interval <= 0 {
		return nil
	}
	diff := math.Abs(float64(s.Spacing - s.Interval))
	if diff > spacingTolerance*float64(s.Interval) {
		return fmt.Errorf("%w: median spacing %s, nearest supported %s", ErrUnsupportedInterval, s.Spacing, s.Interval)
	}
	return nil
}

func (s Series) power(r domain.Reading) (float64, error) {
	if r.PowerKW != nil {
		if !finite(*r.PowerKW) {
			return 0, ErrMalformedReading
		}
		return *r.PowerKW, nil
	}
	if r.EnergyKWh != nil && finite(*r.EnergyKWh) && s.Interval > 0 {
		return *r.EnergyKWh / s.IntervalHours(), nil
	}
	return 0, ErrMalformedReading
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// ResolveInterval picks the supported resolution closest to the median
// spacing of stamps. With fewer than two stamps the first preference wins.
func ResolveInterval(stamps []time.Time, prefs []int) time.Duration {
	if len(prefs) == 0 {
		prefs = []int{900}
	}
	spacing := MedianSpacing(stamps)
	if spacing <= 0 {
		return time.Duration(prefs[0]) * time.Second
	}
	median := spacing.Seconds()
	best := prefs[0]
	for _, p := range prefs[1:] {
		dp, db := math.Abs(float64(p)-median), math.Abs(float64(best)-median)
		if dp < db || (dp == db && p < best) {
			best = p
		}
	}
	return time.Duration(best) * time.Second
}

// MedianSpacing is the median of the positive differences between
// consecutive stamps, zero when there are none.
func MedianSpacing(stamps []time.Time) time.Duration {
	deltas := make([]float64, 0, len(stamps))
	for i := 1; i < len(stamps); i++ {
		if d := stamps[i].Sub(stamps[i-1]).Seconds(); d > 0 {
			deltas = append(deltas, d)
		}
	}
	if len(deltas) == 0 {
		return 0
	}
	sort.Float64s(deltas)
	median := deltas[len(deltas)/2]
	if len(deltas)%2 == 0 {
		median = (deltas[len(deltas)/2-1] + deltas[len(deltas)/2]) / 2
	}
	return time.Duration(median * float64(time.Second))
}

func (s Series) IntervalHours() float64 { return s.Interval.Hours() }

// Expected is the number of intervals the window should hold.
func (s Series) Expected() int {
	return ExpectedIntervals(s.Window, s.Interval, nil)
}

// Completeness is present/expected in percent, capped at 100.
func (s Series) Completeness() float64 {
	return Completeness(len(s.Points), s.Expected())
}

// Between returns the points inside r as a series over r.
func (s Series) Between(r calendar.Range) Series {
	out := Series{ChannelID: s.ChannelID, Interval: s.Interval, Window: r}
	for _, p := range s.Points {
		if r.Contains(p.TS) {
			out.Points = append(out.Points, p)
		}
	}
	return out
}

func (s Series) Filter(keep func(Point) bool) []Point {
	var out []Point
	for _, p := range s.Points {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

// ExpectedIntervals counts interval slots in r, optionally restricted to
// slots whose start satisfies match.
func ExpectedIntervals(r calendar.Range, interval time.Duration, match func(time.Time) bool) int {
	if interval <= 0 || !r.End.After(r.Start) {
		return 0
	}
	if match == nil {
		return int((r.Duration() + interval - 1) / interval)
	}
	n := 0
	for ts := r.Start; ts.Before(r.End); ts = ts.Add(interval) {
		if match(ts) {
			n++
		}
	}
	return n
}

func Completeness(present, expected int) float64 {
	if expected <= 0 {
		return 0
	}
	pct := float64(present) / float64(expected) * 100
	if pct > 100 {
		return 100
	}
	return pct
}

// Run is a maximal stretch of flagged points, as indices into a point slice.
type Run struct {
	First int
	Last  int
}

func (r Run) Len() int { return r.Last - r.First + 1 }

// Span is the interval range the run covers, end exclusive.
func (r Run) Span(points []Point, interval time.Duration) calendar.Range {
	return calendar.Range{Start: points[r.First].TS, End: points[r.Last].TS.Add(interval)}
}

// Runs merges flagged points. Two flagged points share a run only when they
// are neighbours in points and at most maxGap intervals apart, so an
// unflagged reading always breaks a run.
func Runs(points []Point, flagged func(i int) bool, interval time.Duration, maxGap int) []Run {
	if maxGap < 1 {
		maxGap = 1
	}
	limit := time.Duration(maxGap) * interval
	var runs []Run
	open := false
	var cur Run
	for i := range points {
		if !flagged(i) {
			if open {
				runs = append(runs, cur)
				open = false
			}
			continue
		}
		if open && points[i].TS.Sub(points[cur.Last].TS) <= limit {
			cur.Last = i
			continue
		}
		if open {
			runs = append(runs, cur)
		}
		cur = Run{First: i, Last: i}
		open = true
	}
	if open {
		runs = append(runs, cur)
	}
	return runs
}

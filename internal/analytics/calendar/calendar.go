// Package calendar labels timestamps as business hours or after hours and
// derives the report and baseline periods.
package calendar

import "time"

type Period string

const (
	BusinessHours Period = "business_hours"
	AfterHours    Period = "after_hours"
)

// Window is an hour range, Start inclusive, End exclusive, 0..24.
type Window struct {
	Start int
	End   int
}

// Schedule is indexed by time.Weekday. A nil entry means the day is after-hours.
type Schedule [7]*Window

// Empty reports whether no day has a business window.
func (s Schedule) Empty() bool {
	for _, w := range s {
		if w != nil {
			return false
		}
	}
	return true
}

type Classifier struct {
	schedule Schedule
	loc      *time.Location
}

func NewClassifier(schedule Schedule, loc *time.Location) Classifier {
	if loc == nil {
		loc = time.UTC
	}
	return Classifier{schedule: schedule, loc: loc}
}

func (c Classifier) Location() *time.Location { return c.loc }

// Classify resolves weekday and hour in the classifier's timezone.
func (c Classifier) Classify(ts time.Time) Period {
	local := ts.In(c.loc)
	w := c.schedule[local.Weekday()]
	if w == nil {
		return AfterHours
	}
	if h := local.Hour(); h >= w.Start && h < w.End {
		return BusinessHours
	}
	return AfterHours
}

func (c Classifier) IsAfterHours(ts time.Time) bool {
	return c.Classify(ts) == AfterHours
}

// HourOfWeek maps ts to 0..167 with Monday 00:00 as 0, in the classifier's timezone.
func (c Classifier) HourOfWeek(ts time.Time) int {
	return HourOfWeek(ts.In(c.loc))
}

// HourOfWeek maps ts to 0..167 with Monday 00:00 as 0, in ts's own location.
func HourOfWeek(ts time.Time) int {
	day := (int(ts.Weekday()) + 6) % 7
	return day*24 + ts.Hour()
}

// Range is a half-open time range [Start, End).
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (r Range) Contains(ts time.Time) bool {
	return !ts.Before(r.Start) && ts.Before(r.End)
}

func (r Range) Duration() time.Duration { return r.End.Sub(r.Start) }

// LastCompleteWeek returns the most recent Monday-to-Monday week that ended
// at or before ref, in loc.
func LastCompleteWeek(ref time.Time, loc *time.Location) Range {
	local := ref.In(loc)
	sinceMonday := (int(local.Weekday()) + 6) % 7
	thisMonday := time.Date(local.Year(), local.Month(), local.Day()-sinceMonday, 0, 0, 0, 0, loc)
	return Range{Start: thisMonday.AddDate(0, 0, -7), End: thisMonday}
}

// BaselinePeriod returns the weeks whole weeks immediately preceding reportStart.
func BaselinePeriod(reportStart time.Time, weeks int) Range {
	return Range{Start: reportStart.AddDate(0, 0, -7*weeks), End: reportStart}
}

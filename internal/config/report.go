package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/calendar"
)

// ErrInvalidConfiguration is returned when a report profile fails validation.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Context selectors for reference populations.
const (
	ContextSeries     = "series"
	ContextHourOfWeek = "hour_of_week"
)

// Report is the immutable parameter set of one report run.
type Report struct {
	Timezone            string        `yaml:"timezone" validate:"required"`
	BusinessHours       BusinessHours `yaml:"businessHours"`
	IntervalPreferences []int         `yaml:"intervalPreferences" validate:"required,min=1,dive,oneof=900 1800 3600"`
	// MergeGapIntervals is how many intervals may separate two flagged
	// readings that still belong to the same event. 1 means strictly adjacent.
	MergeGapIntervals int          `yaml:"mergeGapIntervals" validate:"gte=1,lte=8"`
	Baseline          Baseline     `yaml:"baseline"`
	SensorHealth      SensorHealth `yaml:"sensorHealth"`
	AfterHours        AfterHours   `yaml:"afterHours"`
	Anomaly           Anomaly      `yaml:"anomaly"`
	Spike             Spike        `yaml:"spike"`
	QuickWins         QuickWins    `yaml:"quickWins"`
	Tariff            Tariff       `yaml:"tariff"`
	Output            Output       `yaml:"output"`
}

// HourWindow is a business-hours window, start inclusive and end exclusive.
type HourWindow struct {
	Start int `yaml:"start" validate:"gte=0,lte=23"`
	End   int `yaml:"end" validate:"gte=1,lte=24,gtfield=Start"`
}

// BusinessHours holds one optional window per weekday. A nil day is after-hours all day.
type BusinessHours struct {
	Monday    *HourWindow `yaml:"monday"`
	Tuesday   *HourWindow `yaml:"tuesday"`
	Wednesday *HourWindow `yaml:"wednesday"`
	Thursday  *HourWindow `yaml:"thursday"`
	Friday    *HourWindow `yaml:"friday"`
	Saturday  *HourWindow `yaml:"saturday"`
	Sunday    *HourWindow `yaml:"sunday"`
}

type Baseline struct {
	WeeksCount      int     `yaml:"weeksCount" validate:"gte=1,lte=52"`
	MinCompleteness float64 `yaml:"minCompleteness" validate:"gte=0,lte=100"`
}

type SensorHealth struct {
	GapMultiplier             float64 `yaml:"gapMultiplier" validate:"gt=1"`
	StaleHours                float64 `yaml:"staleHours" validate:"gt=0"`
	MissingThresholdPct       float64 `yaml:"missingThresholdPct" validate:"gte=0,lte=100"`
	FlatlineHours             float64 `yaml:"flatlineHours" validate:"gt=0"`
	FlatlineVarianceThreshold float64 `yaml:"flatlineVarianceThreshold" validate:"gte=0"`
	FlatlineMinMeanKw         float64 `yaml:"flatlineMinMeanKw" validate:"gte=0"`
}

type AfterHours struct {
	BaselinePercentile float64 `yaml:"baselinePercentile" validate:"gte=0,lte=100"`
	MinPowerThreshold  float64 `yaml:"minPowerThreshold" validate:"gte=0"`
	MinExcessKwh       float64 `yaml:"minExcessKwh" validate:"gte=0"`
}

type Anomaly struct {
	IQRMultiplier           float64 `yaml:"iqrMultiplier" validate:"gt=0"`
	ZScoreThreshold         float64 `yaml:"zScoreThreshold" validate:"gt=0"`
	MinConsecutiveIntervals int     `yaml:"minConsecutiveIntervals" validate:"gte=1"`
	MinExcessKwh            float64 `yaml:"minExcessKwh" validate:"gte=0"`
	Context                 string  `yaml:"context" validate:"oneof=series hour_of_week"`
}

type Spike struct {
	BaselinePercentile float64 `yaml:"baselinePercentile" validate:"gte=0,lte=100"`
	Multiplier         float64 `yaml:"multiplier" validate:"gt=0"`
	SubmeterMinKw      float64 `yaml:"submeterMinKw" validate:"gte=0"`
	SiteMinKw          float64 `yaml:"siteMinKw" validate:"gte=0"`
	MinDuration        int     `yaml:"minDuration" validate:"gte=1"`
	Context            string  `yaml:"context" validate:"oneof=series hour_of_week"`
}

type QuickWins struct {
	MaxCount        int     `yaml:"maxCount" validate:"gte=1,lte=100"`
	MinWeeklyImpact float64 `yaml:"minWeeklyImpact" validate:"gte=0"`
}

// Tariff converts kWh into money. Both rates are optional.
type Tariff struct {
	DefaultRate  *float64 `yaml:"defaultRate" validate:"omitempty,gte=0"`
	DemandCharge *float64 `yaml:"demandCharge" validate:"omitempty,gte=0"`
}

type Output struct {
	IncludeCharts  bool `yaml:"includeCharts"`
	IncludeRawData bool `yaml:"includeRawData"`
	Precision      int  `yaml:"precision" validate:"gte=0,lte=6"`
}

// DefaultReport returns the documented defaults.
func DefaultReport() Report {
	workday := func() *HourWindow { return &HourWindow{Start: 7, End: 18} }
	rate := 0.12
	return Report{
		Timezone: "America/New_York",
		BusinessHours: BusinessHours{
			Monday:    workday(),
			Tuesday:   workday(),
			Wednesday: workday(),
			Thursday:  workday(),
			Friday:    workday(),
		},
		IntervalPreferences: []int{900, 1800, 3600},
		MergeGapIntervals:   1,
		Baseline: Baseline{
			WeeksCount:      4,
			MinCompleteness: 70,
		},
		SensorHealth: SensorHealth{
			GapMultiplier:             2,
			StaleHours:                2,
			MissingThresholdPct:       10,
			FlatlineHours:             6,
			FlatlineVarianceThreshold: 0.01,
			FlatlineMinMeanKw:         0.1,
		},
		AfterHours: AfterHours{
			BaselinePercentile: 5,
			MinPowerThreshold:  0.1,
			MinExcessKwh:       10,
		},
		Anomaly: Anomaly{
			IQRMultiplier:           3,
			ZScoreThreshold:         3,
			MinConsecutiveIntervals: 3,
			MinExcessKwh:            5,
			Context:                 ContextSeries,
		},
		Spike: Spike{
			BaselinePercentile: 95,
			Multiplier:         1.5,
			SubmeterMinKw:      5,
			SiteMinKw:          20,
			MinDuration:        1,
			Context:            ContextHourOfWeek,
		},
		QuickWins: QuickWins{
			MaxCount:        10,
			MinWeeklyImpact: 10,
		},
		Tariff: Tariff{
			DefaultRate: &rate,
		},
		Output: Output{
			IncludeCharts: true,
			Precision:     2,
		},
	}
}

// LoadReport reads a YAML profile over the defaults. An empty path yields the
// defaults. A non-empty timezone overrides the profile's.
func LoadReport(path, timezone string) (Report, error) {
	cfg := DefaultReport()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Report{}, fmt.Errorf("failed to read report config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Report{}, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
		}
	}
	if timezone != "" {
		cfg.Timezone = timezone
	}
	if err := cfg.Validate(); err != nil {
		return Report{}, err
	}
	return cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate rejects out-of-range thresholds before any series is processed.
func (r Report) Validate() error {
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfiguration, strings.Join(fields, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	if _, err := time.LoadLocation(r.Timezone); err != nil {
		return fmt.Errorf("%w: unknown timezone %q", ErrInvalidConfiguration, r.Timezone)
	}
	if r.BusinessHours.Schedule().Empty() {
		return fmt.Errorf("%w: business hours schedule has no open day", ErrInvalidConfiguration)
	}
	return nil
}

// Location resolves the configured timezone. Validate has already proven it loads.
func (r Report) Location() *time.Location {
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Classifier builds the calendar classifier for this profile.
func (r Report) Classifier() calendar.Classifier {
	return calendar.NewClassifier(r.BusinessHours.Schedule(), r.Location())
}

// Schedule converts the per-day windows into a calendar schedule.
func (b BusinessHours) Schedule() calendar.Schedule {
	conv := func(w *HourWindow) *calendar.Window {
		if w == nil {
			return nil
		}
		return &calendar.Window{Start: w.Start, End: w.End}
	}
	var s calendar.Schedule
	s[time.Sunday] = conv(b.Sunday)
	s[time.Monday] = conv(b.Monday)
	s[time.Tuesday] = conv(b.Tuesday)
	s[time.Wednesday] = conv(b.Wednesday)
	s[time.Thursday] = conv(b.Thursday)
	s[time.Friday] = conv(b.Friday)
	s[time.Saturday] = conv(b.Saturday)
	return s
}

// Rate returns the default tariff rate, if configured.
func (t Tariff) Rate() (float64, bool) {
	if t.DefaultRate == nil {
		return 0, false
	}
	return *t.DefaultRate, true
}

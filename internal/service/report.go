package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/brief"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/calendar"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/finding"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/cloud"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/config"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/domain"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/metrics"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/repository"
)

var (
	// ErrAsyncUnavailable is returned by Queue and Remote when no invoker is configured.
	ErrAsyncUnavailable = errors.New("report function not configured")
	// ErrIndexUnavailable is returned by History when no summary index is configured.
	ErrIndexUnavailable = errors.New("report index not configured")
)

type ObjectStore interface {
	UploadReport(ctx context.Context, key string, data []byte, contentType string) (string, error)
	DownloadReport(ctx context.Context, key string) ([]byte, error)
}

type SummaryIndex interface {
	PutReportSummary(ctx context.Context, s cloud.ReportSummary) error
	ListReportSummaries(ctx context.Context, siteID string, limit int32) ([]cloud.ReportSummary, error)
}

type Notifier interface {
	SendReportAlert(ctx context.Context, a cloud.ReportAlert) error
}

type Invoker interface {
	InvokeReport(ctx context.Context, req cloud.ReportRequest) (cloud.ReportResponse, error)
	InvokeReportAsync(ctx context.Context, req cloud.ReportRequest) error
}

type Option func(*ReportService)

func WithObjectStore(o ObjectStore) Option { return func(s *ReportService) { s.objects = o } }
func WithSummaryIndex(i SummaryIndex) Option { return func(s *ReportService) { s.index = i } }
func WithNotifier(n Notifier) Option { return func(s *ReportService) { s.notifier = n } }
func WithInvoker(i Invoker) Option { return func(s *ReportService) { s.invoker = i } }
func WithClock(now func() time.Time) Option { return func(s *ReportService) { s.now = now } }

type ReportService struct {
	store    Store
	profile  config.Report
	workers  int
	now      func() time.Time
	objects  ObjectStore
	index    SummaryIndex
	notifier Notifier
	invoker  Invoker
}

func NewReportService(store Store, profile config.Report, workers int, opts ...Option) *ReportService {
	s := &ReportService{store: store, profile: profile, workers: workers, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result is a generated brief plus where it was published.
type Result struct {
	Report brief.Report `json:"report"`
	URL    string       `json:"url,omitempty"`
}

// profileFor applies the site's own timezone when it has a valid one.
func (s *ReportService) profileFor(site domain.Site) config.Report {
	cfg := s.profile
	if site.Timezone != "" {
		if _, err := time.LoadLocation(site.Timezone); err == nil {
			cfg.Timezone = site.Timezone
		} else {
			log.Warn().Str("site", site.ID).Str("timezone", site.Timezone).Msg("ignoring invalid site timezone")
		}
	}
	return cfg
}

// Generate builds, stores and publishes the brief for siteID. A nil period
// means the last complete week in the site's timezone.
func (s *ReportService) Generate(ctx context.Context, siteID string, period *calendar.Range) (Result, error) {
	start := time.Now()
	res, err := s.generate(ctx, siteID, period)
	metrics.ReportDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ReportsGenerated.WithLabelValues("error").Inc()
		return res, err
	}
	metrics.ReportsGenerated.WithLabelValues("ok").Inc()
	return res, nil
}

func (s *ReportService) generate(ctx context.Context, siteID string, period *calendar.Range) (Result, error) {
	site, err := s.store.GetSite(ctx, siteID)
	if err != nil {
		return Result{}, err
	}
	cfg := s.profileFor(site)
	asOf := s.now()
	week := calendar.LastCompleteWeek(asOf, cfg.Location())
	if period != nil {
		week = *period
	}
	window := calendar.BaselinePeriod(week.Start, cfg.Baseline.WeeksCount)

	channels, err := s.store.ListChannels(ctx, siteID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to list channels: %w", err)
	}
	in := brief.Input{Site: site, Period: week, Channels: make([]brief.ChannelInput, 0, len(channels))}
	span := calendar.Range{Start: window.Start, End: week.End}
	for _, ch := range channels {
		readings, err := s.store.FetchReadings(ctx, ch.ID, span)
		if err != nil {
			return Result{}, fmt.Errorf("failed to fetch readings for channel %d: %w", ch.ID, err)
		}
		ci := brief.ChannelInput{Channel: ch, Readings: readings}
		last, err := s.store.LastReadingTime(ctx, ch.ID)
		switch {
		case err == nil:
			ci.LastReading = &last
		case !errors.Is(err, repository.ErrNotFound):
			return Result{}, fmt.Errorf("failed to find last reading for channel %d: %w", ch.ID, err)
		}
		in.Channels = append(in.Channels, ci)
	}

	logger := log.With().Str("site", siteID).Time("period_start", week.Start).Logger()
	rep, err := brief.Generate(ctx, in, cfg, asOf, s.workers)
	if err != nil {
		return Result{}, err
	}
	observe(rep)
	for _, sec := range rep.Channels {
		for _, o := range sec.Omissions {
			logger.Warn().Int64("channel", sec.ChannelID).Str("detector", o.Detector).Str("reason", o.Reason).Msg("detector omitted")
		}
	}

	body, err := json.Marshal(rep)
	if err != nil {
		return Result{}, fmt.Errorf("failed to encode report: %w", err)
	}
	if err := s.store.SaveReport(ctx, domain.StoredReport{
		ID:          rep.ID,
		SiteID:      siteID,
		PeriodStart: week.Start,
		PeriodEnd:   week.End,
		GeneratedAt: asOf,
		Body:        string(body),
	}); err != nil {
		return Result{}, fmt.Errorf("failed to save report: %w", err)
	}
	logger.Info().Str("report_id", rep.ID).Int("quick_wins", len(rep.QuickWins)).Int("advisories", len(rep.Advisories)).Msg("report generated")

	res := Result{Report: rep}
	res.URL = s.publish(ctx, rep, body)
	return res, nil
}

// publish pushes the report to the optional cloud collaborators. Failures
// are logged; the stored report is authoritative.
func (s *ReportService) publish(ctx context.Context, rep brief.Report, body []byte) string {
	logger := log.With().Str("site", rep.Metadata.Site.ID).Str("report_id", rep.ID).Logger()
	var url, key string
	if s.objects != nil {
		key = cloud.ReportKey(rep.Metadata.Site.ID, rep.Metadata.Period.Start, rep.ID)
		u, err := s.objects.UploadReport(ctx, key, body, "application/json")
		if err != nil {
			logger.Error().Err(err).Msg("failed to upload report")
			key = ""
		} else {
			url = u
		}
	}
	if s.index != nil {
		if err := s.index.PutReportSummary(ctx, Summarize(rep, key)); err != nil {
			logger.Error().Err(err).Msg("failed to index report")
		}
	}
	if s.notifier != nil {
		if alert, ok := Alert(rep, url); ok {
			if err := s.notifier.SendReportAlert(ctx, alert); err != nil {
				logger.Error().Err(err).Msg("failed to send report alert")
			}
		}
	}
	return url
}

// Analyze runs the engine over caller-supplied readings without storing anything.
func (s *ReportService) Analyze(ctx context.Context, in brief.Input) (brief.Report, error) {
	cfg := s.profileFor(in.Site)
	asOf := s.now()
	if in.Period.End.IsZero() {
		in.Period = calendar.LastCompleteWeek(asOf, cfg.Location())
	}
	rep, err := brief.Generate(ctx, in, cfg, asOf, s.workers)
	if err != nil {
		return rep, err
	}
	observe(rep)
	return rep, nil
}

// Latest returns the newest stored report. When the database has none, for
// example because the report function ran against another instance, the
// newest archived copy is fetched through the summary index.
func (s *ReportService) Latest(ctx context.Context, siteID string) (domain.StoredReport, error) {
	rep, err := s.store.LatestReport(ctx, siteID)
	if !errors.Is(err, repository.ErrNotFound) || s.index == nil || s.objects == nil {
		return rep, err
	}
	items, lerr := s.index.ListReportSummaries(ctx, siteID, 10)
	if lerr != nil {
		log.Warn().Err(lerr).Str("site", siteID).Msg("failed to list archived reports")
		return rep, err
	}
	for _, it := range items {
		if it.S3Key == "" {
			continue
		}
		body, derr := s.objects.DownloadReport(ctx, it.S3Key)
		if derr != nil {
			return rep, fmt.Errorf("failed to fetch archived report %s: %w", it.ReportID, derr)
		}
		return archived(it, body), nil
	}
	return rep, err
}

func archived(it cloud.ReportSummary, body []byte) domain.StoredReport {
	rep := domain.StoredReport{
		ID:          it.ReportID,
		SiteID:      it.SiteID,
		GeneratedAt: time.Unix(it.GeneratedAt, 0).UTC(),
		Body:        string(body),
	}
	rep.PeriodStart, _ = time.Parse(time.RFC3339, it.PeriodStart)
	rep.PeriodEnd, _ = time.Parse(time.RFC3339, it.PeriodEnd)
	return rep
}

// History lists the site's indexed reports, newest first.
func (s *ReportService) History(ctx context.Context, siteID string, limit int32) ([]cloud.ReportSummary, error) {
	if s.index == nil {
		return nil, ErrIndexUnavailable
	}
	items, err := s.index.ListReportSummaries(ctx, siteID, limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []cloud.ReportSummary{}
	}
	return items, nil
}

func request(siteID string, period *calendar.Range) cloud.ReportRequest {
	req := cloud.ReportRequest{SiteID: siteID}
	if period != nil {
		req.Start = period.Start.Format(time.RFC3339)
		req.End = period.End.Format(time.RFC3339)
	}
	return req
}

// Queue hands report generation to the background function.
func (s *ReportService) Queue(ctx context.Context, siteID string, period *calendar.Range) error {
	if s.invoker == nil {
		return ErrAsyncUnavailable
	}
	return s.invoker.InvokeReportAsync(ctx, request(siteID, period))
}

// Remote runs report generation in the background function and waits for it.
func (s *ReportService) Remote(ctx context.Context, siteID string, period *calendar.Range) (cloud.ReportResponse, error) {
	if s.invoker == nil {
		return cloud.ReportResponse{}, ErrAsyncUnavailable
	}
	return s.invoker.InvokeReport(ctx, request(siteID, period))
}

func observe(rep brief.Report) {
	for _, sec := range rep.Channels {
		metrics.Findings.WithLabelValues(string(finding.CategorySensor)).Add(float64(len(sec.SensorIssues)))
		metrics.Findings.WithLabelValues(string(finding.CategoryWaste)).Add(float64(len(sec.Waste)))
		metrics.Findings.WithLabelValues(string(finding.CategoryAnomaly)).Add(float64(len(sec.Anomalies)))
		metrics.Findings.WithLabelValues(string(finding.CategorySpike)).Add(float64(len(sec.Spikes)))
		for _, o := range sec.Omissions {
			metrics.Omissions.WithLabelValues(o.Detector).Inc()
		}
	}
}

// Summarize builds the index entry for a report.
func Summarize(rep brief.Report, key string) cloud.ReportSummary {
	s := cloud.ReportSummary{
		SiteID:       rep.Metadata.Site.ID,
		GeneratedAt:  rep.Metadata.GeneratedAt.Unix(),
		ReportID:     rep.ID,
		PeriodStart:  rep.Metadata.Period.Start.Format(time.RFC3339),
		PeriodEnd:    rep.Metadata.Period.End.Format(time.RFC3339),
		QuickWins:    len(rep.QuickWins),
		SensorIssues: rep.Summary.SensorIssues,
		WeeklyKWh:    rep.Summary.Savings.WeeklyKWh,
		S3Key:        key,
	}
	if len(rep.Summary.Headline) > 0 {
		s.Headline = rep.Summary.Headline[0]
	}
	return s
}

// Alert decides whether a report warrants a notification: any high-priority
// quick win or high-severity advisory.
func Alert(rep brief.Report, url string) (cloud.ReportAlert, bool) {
	var items []string
	for _, w := range rep.QuickWins {
		if w.Priority == finding.SeverityHigh || w.Priority == finding.SeverityCritical {
			items = append(items, w.Title)
		}
	}
	for _, a := range rep.Advisories {
		if a.Severity == finding.SeverityHigh || a.Severity == finding.SeverityCritical {
			items = append(items, a.Title)
		}
	}
	if len(items) == 0 {
		return cloud.ReportAlert{}, false
	}
	name := rep.Metadata.Site.Name
	if name == "" {
		name = rep.Metadata.Site.ID
	}
	return cloud.ReportAlert{
		SiteName: name,
		Period:   fmt.Sprintf("%s to %s", rep.Metadata.Period.Start.Format("2006-01-02"), rep.Metadata.Period.End.Format("2006-01-02")),
		Headline: rep.Summary.Headline,
		Items:    items,
		URL:      url,
	}, true
}

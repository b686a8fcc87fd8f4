package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/brief"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/calendar"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/cloud"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/domain"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/repository"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/service"
)

type fakeSites struct{}

func (fakeSites) ListSites(context.Context) ([]domain.Site, error) {
	return []domain.Site{{ID: "hq", Name: "HQ"}}, nil
}

func (fakeSites) ListChannels(_ context.Context, id string) ([]domain.Channel, error) {
	if id != "hq" {
		return nil, errors.New("boom")
	}
	return []domain.Channel{{ID: 1, SiteID: "hq", Name: "Main", Role: domain.RoleSiteTotal}}, nil
}

type fakeReports struct {
	period   *calendar.Range
	queued   bool
	queueErr error
	analyzed brief.Input
	limit    int32
	histErr  error
}

func (f *fakeReports) History(_ context.Context, siteID string, limit int32) ([]cloud.ReportSummary, error) {
	if f.histErr != nil {
		return nil, f.histErr
	}
	f.limit = limit
	return []cloud.ReportSummary{{SiteID: siteID, ReportID: "r1"}}, nil
}

func (f *fakeReports) Generate(_ context.Context, siteID string, p *calendar.Range) (service.Result, error) {
	if siteID != "hq" {
		return service.Result{}, repository.ErrNotFound
	}
	f.period = p
	return service.Result{Report: brief.Report{ID: "r1"}, URL: "https://x"}, nil
}

func (f *fakeReports) Analyze(_ context.Context, in brief.Input) (brief.Report, error) {
	f.analyzed = in
	return brief.Report{ID: "adhoc"}, nil
}

func (f *fakeReports) Latest(_ context.Context, siteID string) (domain.StoredReport, error) {
	if siteID != "hq" {
		return domain.StoredReport{}, repository.ErrNotFound
	}
	return domain.StoredReport{ID: "r1", Body: `{"report_id":"r1"}`}, nil
}

func (f *fakeReports) Queue(context.Context, string, *calendar.Range) error {
	if f.queueErr != nil {
		return f.queueErr
	}
	f.queued = true
	return nil
}

func newApp(reports *fakeReports) *fiber.App {
	app := fiber.New()
	Register(app, fakeSites{}, reports)
	return app
}

func do(t *testing.T, app *fiber.App, method, target, body string) (int, string) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}

func TestHealthAndMetrics(t *testing.T) {
	app := newApp(&fakeReports{})
	status, body := do(t, app, "GET", "/health", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ok", body)

	status, body = do(t, app, "GET", "/metrics", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, "go_goroutines")
}

func TestSites(t *testing.T) {
	app := newApp(&fakeReports{})
	status, body := do(t, app, "GET", "/sites", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `[{"site_id":"hq","name":"HQ","timezone":""}]`, body)

	status, _ = do(t, app, "GET", "/sites/hq/channels", "")
	assert.Equal(t, fiber.StatusOK, status)

	status, body = do(t, app, "GET", "/sites/annex/channels", "")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.JSONEq(t, `{"error":"boom"}`, body)
}

func TestGenerateReport(t *testing.T) {
	reports := &fakeReports{}
	app := newApp(reports)

	status, body := do(t, app, "POST", "/sites/hq/reports?start=2024-01-01T00:00:00Z&end=2024-01-08T00:00:00Z", "")
	require.Equal(t, fiber.StatusCreated, status)
	var res service.Result
	require.NoError(t, json.Unmarshal([]byte(body), &res))
	assert.Equal(t, "r1", res.Report.ID)
	assert.Equal(t, "https://x", res.URL)
	require.NotNil(t, reports.period)
	assert.Equal(t, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), reports.period.End.UTC())

	status, _ = do(t, app, "POST", "/sites/hq/reports", "")
	assert.Equal(t, fiber.StatusCreated, status)
	assert.Nil(t, reports.period)

	status, _ = do(t, app, "POST", "/sites/annex/reports", "")
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestGenerateReportRejectsBadPeriod(t *testing.T) {
	app := newApp(&fakeReports{})
	for _, q := range []string{
		"start=2024-01-01T00:00:00Z",
		"start=yesterday&end=2024-01-08T00:00:00Z",
		"start=2024-01-08T00:00:00Z&end=2024-01-01T00:00:00Z",
	} {
		status, _ := do(t, app, "POST", "/sites/hq/reports?"+q, "")
		assert.Equal(t, fiber.StatusBadRequest, status, q)
	}
}

func TestQueueReport(t *testing.T) {
	reports := &fakeReports{}
	app := newApp(reports)
	status, body := do(t, app, "POST", "/sites/hq/reports?async=true", "")
	assert.Equal(t, fiber.StatusAccepted, status)
	assert.JSONEq(t, `{"status":"queued"}`, body)
	assert.True(t, reports.queued)

	app = newApp(&fakeReports{queueErr: service.ErrAsyncUnavailable})
	status, _ = do(t, app, "POST", "/sites/hq/reports?async=true", "")
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
}

func TestLatestReport(t *testing.T) {
	app := newApp(&fakeReports{})
	status, body := do(t, app, "GET", "/sites/hq/reports/latest", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"report_id":"r1"}`, body)

	status, _ = do(t, app, "GET", "/sites/annex/reports/latest", "")
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestAnalyze(t *testing.T) {
	reports := &fakeReports{}
	app := newApp(reports)

	status, body := do(t, app, "POST", "/analyze", `{"site":{"site_id":"hq"},"channels":[{"channel":{"channel_id":1,"name":"Main"},"readings":[{"ts":"2024-01-08T00:00:00Z","power_kw":3}]}]}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, `"report_id":"adhoc"`)
	require.Len(t, reports.analyzed.Channels, 1)
	require.Len(t, reports.analyzed.Channels[0].Readings, 1)
	assert.Equal(t, 3.0, *reports.analyzed.Channels[0].Readings[0].PowerKW)

	status, _ = do(t, app, "POST", "/analyze", `{"site":{"site_id":"hq"},"channels":[]}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = do(t, app, "POST", "/analyze", `not json`)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestReportHistory(t *testing.T) {
	reports := &fakeReports{}
	app := newApp(reports)

	status, body := do(t, app, "GET", "/sites/hq/reports", "")
	assert.Equal(t, 200, status)
	assert.Contains(t, body, `"report_id":"r1"`)
	assert.Equal(t, int32(20), reports.limit)

	status, _ = do(t, app, "GET", "/sites/hq/reports?limit=5", "")
	assert.Equal(t, 200, status)
	assert.Equal(t, int32(5), reports.limit)

	status, _ = do(t, app, "GET", "/sites/hq/reports?limit=0", "")
	assert.Equal(t, 400, status)

	app = newApp(&fakeReports{histErr: service.ErrIndexUnavailable})
	status, body = do(t, app, "GET", "/sites/hq/reports", "")
	assert.Equal(t, 503, status)
	assert.Contains(t, body, "report index not configured")
}

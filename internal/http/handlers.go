package http

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/brief"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/calendar"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/cloud"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/domain"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/repository"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/service"
)

type Sites interface {
	ListSites(ctx context.Context) ([]domain.Site, error)
	ListChannels(ctx context.Context, siteID string) ([]domain.Channel, error)
}

type Reports interface {
	Generate(ctx context.Context, siteID string, period *calendar.Range) (service.Result, error)
	Analyze(ctx context.Context, in brief.Input) (brief.Report, error)
	Latest(ctx context.Context, siteID string) (domain.StoredReport, error)
	Queue(ctx context.Context, siteID string, period *calendar.Range) error
	History(ctx context.Context, siteID string, limit int32) ([]cloud.ReportSummary, error)
}

func fail(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, repository.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, service.ErrAsyncUnavailable), errors.Is(err, service.ErrIndexUnavailable):
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// period reads optional RFC3339 start and end query parameters.
func period(c *fiber.Ctx) (*calendar.Range, error) {
	start, end := c.Query("start"), c.Query("end")
	if start == "" && end == "" {
		return nil, nil
	}
	if start == "" || end == "" {
		return nil, errors.New("start and end must be given together")
	}
	s, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return nil, errors.New("start must be RFC3339")
	}
	e, err := time.Parse(time.RFC3339, end)
	if err != nil {
		return nil, errors.New("end must be RFC3339")
	}
	if !e.After(s) {
		return nil, errors.New("end must be after start")
	}
	return &calendar.Range{Start: s, End: e}, nil
}

func Register(app *fiber.App, sites Sites, reports Reports) {
	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	g := app.Group("/")
	g.Get("sites", func(c *fiber.Ctx) error {
		items, err := sites.ListSites(c.UserContext())
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(items)
	})
	g.Get("sites/:id/channels", func(c *fiber.Ctx) error {
		items, err := sites.ListChannels(c.UserContext(), c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(items)
	})
	g.Post("sites/:id/reports", func(c *fiber.Ctx) error {
		p, err := period(c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		if c.QueryBool("async") {
			if err := reports.Queue(c.UserContext(), c.Params("id"), p); err != nil {
				return fail(c, err)
			}
			return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "queued"})
		}
		res, err := reports.Generate(c.UserContext(), c.Params("id"), p)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	})
	g.Get("sites/:id/reports", func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", 20)
		if limit < 1 || limit > 100 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "limit must be between 1 and 100"})
		}
		items, err := reports.History(c.UserContext(), c.Params("id"), int32(limit))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(items)
	})
	g.Get("sites/:id/reports/latest", func(c *fiber.Ctx) error {
		rep, err := reports.Latest(c.UserContext(), c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.SendString(rep.Body)
	})
	g.Post("analyze", func(c *fiber.Ctx) error {
		var in brief.Input
		if err := c.BodyParser(&in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body: " + err.Error()})
		}
		if len(in.Channels) == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "at least one channel is required"})
		}
		rep, err := reports.Analyze(c.UserContext(), in)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(rep)
	})
}

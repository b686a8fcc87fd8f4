package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/calendar"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/cloud"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/config"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/database"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/logging"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/service"
)

type handler struct {
	reports *service.ReportService
}

func (h handler) Handle(ctx context.Context, req cloud.ReportRequest) (cloud.ReportResponse, error) {
	if req.SiteID == "" {
		return cloud.ReportResponse{}, errors.New("site_id is required")
	}
	var period *calendar.Range
	if req.Start != "" || req.End != "" {
		start, err := time.Parse(time.RFC3339, req.Start)
		if err != nil {
			return cloud.ReportResponse{}, fmt.Errorf("invalid start: %w", err)
		}
		end, err := time.Parse(time.RFC3339, req.End)
		if err != nil {
			return cloud.ReportResponse{}, fmt.Errorf("invalid end: %w", err)
		}
		period = &calendar.Range{Start: start, End: end}
	}
	res, err := h.reports.Generate(ctx, req.SiteID, period)
	if err != nil {
		log.Error().Err(err).Str("site", req.SiteID).Msg("report generation failed")
		return cloud.ReportResponse{}, err
	}
	return cloud.ReportResponse{ReportID: res.Report.ID, URL: res.URL}, nil
}

func main() {
	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	logging.Setup(config.LogLevel(), config.LogFormat())

	profile, err := config.ReportProfile()
	if err != nil {
		log.Fatal().Err(err).Msg("report profile invalid")
	}
	db, err := database.Connect(config.DBDriver(), config.DBDSN())
	if err != nil {
		log.Fatal().Err(err).Msg("db connect failed")
	}
	defer db.Close()

	opts, err := service.CloudOptions(context.Background(), false)
	if err != nil {
		log.Fatal().Err(err).Msg("cloud setup failed")
	}
	svcs := service.New(db, profile, config.ReportWorkers(), opts...)
	lambda.Start(handler{reports: svcs.Reports}.Handle)
}

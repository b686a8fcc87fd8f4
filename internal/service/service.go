package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/calendar"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/config"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/domain"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/repository"
)

// Store is the persistence the services need; *repository.Repos satisfies it.
type Store interface {
	ListSites(ctx context.Context) ([]domain.Site, error)
	GetSite(ctx context.Context, id string) (domain.Site, error)
	ListChannels(ctx context.Context, siteID string) ([]domain.Channel, error)
	FetchReadings(ctx context.Context, channelID int64, rng calendar.Range) ([]domain.Reading, error)
	LastReadingTime(ctx context.Context, channelID int64) (time.Time, error)
	InsertReading(ctx context.Context, rd *domain.Reading) error
	SaveReport(ctx context.Context, rep domain.StoredReport) error
	LatestReport(ctx context.Context, siteID string) (domain.StoredReport, error)
}

type Services struct {
	Repos    *repository.Repos
	Readings *ReadingService
	Reports  *ReportService
}

func New(db *sqlx.DB, profile config.Report, workers int, opts ...Option) *Services {
	repos := repository.New(db)
	return &Services{
		Repos:    repos,
		Readings: NewReadingService(repos),
		Reports:  NewReportService(repos, profile, workers, opts...),
	}
}

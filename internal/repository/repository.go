package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/calendar"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/domain"
)

var ErrNotFound = errors.New("not found")

type Repos struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Repos { return &Repos{db: db} }

func (r *Repos) UpsertSite(ctx context.Context, s domain.Site) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`INSERT INTO sites(site_id, name, timezone) VALUES (?,?,?)
		ON CONFLICT (site_id) DO UPDATE SET name = excluded.name, timezone = excluded.timezone`),
		s.ID, s.Name, s.Timezone)
	return err
}

func (r *Repos) ListSites(ctx context.Context) ([]domain.Site, error) {
	var out []domain.Site
	err := r.db.SelectContext(ctx, &out, `SELECT site_id, name, timezone FROM sites ORDER BY site_id`)
	return out, err
}

func (r *Repos) GetSite(ctx context.Context, id string) (domain.Site, error) {
	var s domain.Site
	err := r.db.GetContext(ctx, &s, r.db.Rebind(`SELECT site_id, name, timezone FROM sites WHERE site_id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return s, fmt.Errorf("site %s: %w", id, ErrNotFound)
	}
	return s, err
}

func (r *Repos) UpsertChannel(ctx context.Context, c domain.Channel) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`INSERT INTO channels(channel_id, site_id, name, role) VALUES (?,?,?,?)
		ON CONFLICT (channel_id) DO UPDATE SET site_id = excluded.site_id, name = excluded.name, role = excluded.role`),
		c.ID, c.SiteID, c.Name, c.Role)
	return err
}

func (r *Repos) ListChannels(ctx context.Context, siteID string) ([]domain.Channel, error) {
	var out []domain.Channel
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`SELECT channel_id, site_id, name, role FROM channels WHERE site_id = ? ORDER BY channel_id`), siteID)
	return out, err
}

// InsertReading ignores a reading already stored for the same channel and timestamp.
func (r *Repos) InsertReading(ctx context.Context, rd *domain.Reading) error {
	_, err := r.db.ExecContext(ctx, insertReading(r.db), rd.ChannelID, rd.Timestamp.UTC(), rd.PowerKW, rd.EnergyKWh)
	return err
}

// InsertReadings stores a batch in one transaction.
func (r *Repos) InsertReadings(ctx context.Context, readings []domain.Reading) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	stmt, err := tx.PreparexContext(ctx, insertReading(r.db))
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, rd := range readings {
		if _, err := stmt.ExecContext(ctx, rd.ChannelID, rd.Timestamp.UTC(), rd.PowerKW, rd.EnergyKWh); err != nil {
			return fmt.Errorf("failed to insert reading for channel %d: %w", rd.ChannelID, err)
		}
	}
	return tx.Commit()
}

func insertReading(db *sqlx.DB) string {
	return db.Rebind(`INSERT INTO readings(channel_id, ts, power_kw, energy_kwh) VALUES (?,?,?,?)
		ON CONFLICT (channel_id, ts) DO NOTHING`)
}

// FetchReadings returns the channel's readings in [rng.Start, rng.End), oldest first.
func (r *Repos) FetchReadings(ctx context.Context, channelID int64, rng calendar.Range) ([]domain.Reading, error) {
	var out []domain.Reading
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`SELECT channel_id, ts, power_kw, energy_kwh FROM readings
		WHERE channel_id = ? AND ts >= ? AND ts < ? ORDER BY ts`), channelID, rng.Start.UTC(), rng.End.UTC())
	for i := range out {
		out[i].Timestamp = out[i].Timestamp.UTC()
	}
	return out, err
}

// LastReadingTime returns the timestamp of the channel's newest stored reading.
func (r *Repos) LastReadingTime(ctx context.Context, channelID int64) (time.Time, error) {
	var ts time.Time
	err := r.db.GetContext(ctx, &ts, r.db.Rebind(`SELECT ts FROM readings WHERE channel_id = ? ORDER BY ts DESC LIMIT 1`), channelID)
	if errors.Is(err, sql.ErrNoRows) {
		return ts, fmt.Errorf("readings for channel %d: %w", channelID, ErrNotFound)
	}
	return ts.UTC(), err
}

func (r *Repos) SaveReport(ctx context.Context, rep domain.StoredReport) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`INSERT INTO reports(report_id, site_id, period_start, period_end, generated_at, body) VALUES (?,?,?,?,?,?)
		ON CONFLICT (report_id) DO UPDATE SET body = excluded.body`),
		rep.ID, rep.SiteID, rep.PeriodStart.UTC(), rep.PeriodEnd.UTC(), rep.GeneratedAt.UTC(), rep.Body)
	return err
}

func (r *Repos) LatestReport(ctx context.Context, siteID string) (domain.StoredReport, error) {
	var rep domain.StoredReport
	err := r.db.GetContext(ctx, &rep, r.db.Rebind(`SELECT report_id, site_id, period_start, period_end, generated_at, body
		FROM reports WHERE site_id = ? ORDER BY generated_at DESC LIMIT 1`), siteID)
	if errors.Is(err, sql.ErrNoRows) {
		return rep, fmt.Errorf("report for site %s: %w", siteID, ErrNotFound)
	}
	rep.PeriodStart, rep.PeriodEnd, rep.GeneratedAt = rep.PeriodStart.UTC(), rep.PeriodEnd.UTC(), rep.GeneratedAt.UTC()
	return rep, err
}

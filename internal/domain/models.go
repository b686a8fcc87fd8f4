package domain

import "time"

type Site struct {
	ID       string `db:"site_id" json:"site_id"`
	Name     string `db:"name" json:"name"`
	Timezone string `db:"timezone" json:"timezone"`
}

// ChannelRole separates the site-total meter from submeters; spike floors differ.
type ChannelRole string

const (
	RoleSubmeter  ChannelRole = "submeter"
	RoleSiteTotal ChannelRole = "site_total"
)

type Channel struct {
	ID     int64       `db:"channel_id" json:"channel_id"`
	SiteID string      `db:"site_id" json:"site_id"`
	Name   string      `db:"name" json:"name"`
	Role   ChannelRole `db:"role" json:"role"`
}

// Reading is one interval sample. Either field may be missing; a reading with
// neither is malformed.
type Reading struct {
	ChannelID int64     `db:"channel_id" json:"channel_id"`
	Timestamp time.Time `db:"ts" json:"ts"`
	PowerKW   *float64  `db:"power_kw" json:"power_kw,omitempty"`
	EnergyKWh *float64  `db:"energy_kwh" json:"energy_kwh,omitempty"`
}

// StoredReport is a generated brief as kept in the reports table.
type StoredReport struct {
	ID          string    `db:"report_id" json:"report_id"`
	SiteID      string    `db:"site_id" json:"site_id"`
	PeriodStart time.Time `db:"period_start" json:"period_start"`
	PeriodEnd   time.Time `db:"period_end" json:"period_end"`
	GeneratedAt time.Time `db:"generated_at" json:"generated_at"`
	Body        string    `db:"body" json:"-"`
}

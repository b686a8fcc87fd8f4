// Package simulate produces synthetic interval readings with a business-hours
// load shape, an after-hours idle floor and optional injected faults.
package simulate

import (
	"math/rand/v2"
	"time"

	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/calendar"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/domain"
)

// Profile shapes one channel's load.
type Profile struct {
	IdleKW     float64
	BusinessKW float64
	NoiseKW    float64
	// Waste adds WasteKW to after-hours load inside these ranges.
	Waste   []calendar.Range
	WasteKW float64
	// Spikes multiply load by SpikeFactor inside these ranges.
	Spikes      []calendar.Range
	SpikeFactor float64
	// Outages drop readings inside these ranges.
	Outages []calendar.Range
}

func in(ranges []calendar.Range, ts time.Time) bool {
	for _, r := range ranges {
		if r.Contains(ts) {
			return true
		}
	}
	return false
}

// Readings generates one reading per interval across rng. The seed makes the
// noise reproducible.
func Readings(channelID int64, rng calendar.Range, interval time.Duration, c calendar.Classifier, p Profile, seed uint64) []domain.Reading {
	r := rand.New(rand.NewPCG(seed, uint64(channelID)))
	var out []domain.Reading
	for ts := rng.Start; ts.Before(rng.End); ts = ts.Add(interval) {
		if in(p.Outages, ts) {
			continue
		}
		kw := p.IdleKW
		if c.Classify(ts) == calendar.BusinessHours {
			kw = p.BusinessKW
		} else if in(p.Waste, ts) {
			kw += p.WasteKW
		}
		if in(p.Spikes, ts) && p.SpikeFactor > 0 {
			kw *= p.SpikeFactor
		}
		if p.NoiseKW > 0 {
			kw += (r.Float64()*2 - 1) * p.NoiseKW
		}
		if kw < 0 {
			kw = 0
		}
		v := kw
		out = append(out, domain.Reading{ChannelID: channelID, Timestamp: ts.UTC(), PowerKW: &v})
	}
	return out
}

// Site returns a demo site with a site-total meter and two submeters.
func Site(id string, tz string) (domain.Site, []domain.Channel) {
	site := domain.Site{ID: id, Name: "Demo Site " + id, Timezone: tz}
	return site, []domain.Channel{
		{ID: 1, SiteID: id, Name: "Main Meter", Role: domain.RoleSiteTotal},
		{ID: 2, SiteID: id, Name: "HVAC", Role: domain.RoleSubmeter},
		{ID: 3, SiteID: id, Name: "Lighting", Role: domain.RoleSubmeter},
	}
}

// DemoProfiles gives the demo channels distinct loads. Faults land in the
// report week: HVAC runs overnight, lighting spikes and the main meter drops out.
func DemoProfiles(week calendar.Range) map[int64]Profile {
	night := calendar.Range{Start: week.Start.Add(24*time.Hour + 20*time.Hour), End: week.Start.Add(48*time.Hour + 4*time.Hour)}
	spike := calendar.Range{Start: week.Start.Add(2*24*time.Hour + 10*time.Hour), End: week.Start.Add(2*24*time.Hour + 11*time.Hour)}
	outage := calendar.Range{Start: week.Start.Add(4*24*time.Hour + 2*time.Hour), End: week.Start.Add(4*24*time.Hour + 6*time.Hour)}
	return map[int64]Profile{
		1: {IdleKW: 40, BusinessKW: 120, NoiseKW: 4, Outages: []calendar.Range{outage}},
		2: {IdleKW: 8, BusinessKW: 45, NoiseKW: 2, Waste: []calendar.Range{night}, WasteKW: 25},
		3: {IdleKW: 2, BusinessKW: 18, NoiseKW: 1, Spikes: []calendar.Range{spike}, SpikeFactor: 3},
	}
}

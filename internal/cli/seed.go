package cli

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/calendar"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/config"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/repository"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/simulate"
)

func newSeedCmd() *cobra.Command {
	var siteID string
	var readings bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create a demo site with synthetic readings for the baseline and last week",
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := config.ReportProfile()
			if err != nil {
				return err
			}
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()
			repos := repository.New(db)
			ctx := cmd.Context()

			site, channels := simulate.Site(siteID, profile.Timezone)
			if err := repos.UpsertSite(ctx, site); err != nil {
				return fmt.Errorf("failed to store site: %w", err)
			}
			for _, ch := range channels {
				if err := repos.UpsertChannel(ctx, ch); err != nil {
					return fmt.Errorf("failed to store channel %d: %w", ch.ID, err)
				}
			}
			if !readings {
				fmt.Fprintf(cmd.OutOrStdout(), "seeded site %s with %d channels\n", site.ID, len(channels))
				return nil
			}

			week := calendar.LastCompleteWeek(time.Now(), profile.Location())
			history := calendar.BaselinePeriod(week.Start, profile.Baseline.WeeksCount)
			span := calendar.Range{Start: history.Start, End: week.End}
			profiles := simulate.DemoProfiles(week)
			total := 0
			for _, ch := range channels {
				rs := simulate.Readings(ch.ID, span, 15*time.Minute, profile.Classifier(), profiles[ch.ID], uint64(week.Start.Unix()))
				if err := repos.InsertReadings(ctx, rs); err != nil {
					return err
				}
				total += len(rs)
			}
			log.Info().Str("site", site.ID).Int("readings", total).Time("week_start", week.Start).Msg("seeded demo data")
			fmt.Fprintf(cmd.OutOrStdout(), "seeded site %s with %d channels and %d readings\n", site.ID, len(channels), total)
			return nil
		},
	}
	cmd.Flags().StringVar(&siteID, "site", "demo", "site id")
	cmd.Flags().BoolVar(&readings, "readings", true, "also insert synthetic readings")
	return cmd
}

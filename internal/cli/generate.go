package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/calendar"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/config"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/database"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/service"
)

func openDB() (*sqlx.DB, error) {
	db, err := database.Connect(config.DBDriver(), config.DBDSN())
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func parsePeriod(start, end string) (*calendar.Range, error) {
	if start == "" && end == "" {
		return nil, nil
	}
	s, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return nil, fmt.Errorf("invalid --start: %w", err)
	}
	e, err := time.Parse(time.RFC3339, end)
	if err != nil {
		return nil, fmt.Errorf("invalid --end: %w", err)
	}
	if !e.After(s) {
		return nil, fmt.Errorf("--end must be after --start")
	}
	return &calendar.Range{Start: s, End: e}, nil
}

func newGenerateCmd() *cobra.Command {
	var siteID, start, end string
	var remote bool
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate, store and publish the brief for a site",
		RunE: func(cmd *cobra.Command, args []string) error {
			period, err := parsePeriod(start, end)
			if err != nil {
				return err
			}
			profile, err := config.ReportProfile()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if remote {
				opts, err := service.CloudOptions(ctx, true)
				if err != nil {
					return err
				}
				resp, err := service.NewReportService(nil, profile, config.ReportWorkers(), opts...).Remote(ctx, siteID, period)
				if err != nil {
					return err
				}
				return printOutput(cmd, resp)
			}

			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()
			opts, err := service.CloudOptions(ctx, false)
			if err != nil {
				return err
			}
			svcs := service.New(db, profile, config.ReportWorkers(), opts...)
			res, err := svcs.Reports.Generate(ctx, siteID, period)
			if err != nil {
				return err
			}
			if res.URL != "" {
				log.Info().Str("url", res.URL).Msg("report uploaded")
			}
			return printOutput(cmd, res.Report)
		},
	}
	cmd.Flags().StringVar(&siteID, "site", "", "site id")
	cmd.Flags().StringVar(&start, "start", "", "report period start, RFC3339 (default: last complete week)")
	cmd.Flags().StringVar(&end, "end", "", "report period end, RFC3339")
	cmd.Flags().BoolVar(&remote, "remote", false, "run in the report function and wait for its result")
	_ = cmd.MarkFlagRequired("site")
	cmd.MarkFlagsRequiredTogether("start", "end")
	return cmd
}

package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/config"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/logging"
)

var (
	outputFormat string
	outputFile   string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "brief",
		Short: "Weekly energy exceptions and opportunities brief",
		Long: `brief turns interval meter readings into a weekly report of sensor
issues, after-hours waste, anomalies, demand spikes and ranked quick wins.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Load(); err != nil {
				return err
			}
			logging.Setup(config.LogLevel(), config.LogFormat())
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "report profile YAML (overrides REPORT_CONFIG)")
	flags.String("timezone", "", "report timezone (overrides the profile)")
	flags.Int("workers", 4, "channels analyzed in parallel")
	flags.StringVarP(&outputFormat, "output", "o", "json", "output format: json, yaml")
	flags.StringVar(&outputFile, "out", "", "write output to this file instead of stdout")

	_ = viper.BindPFlag("REPORT_CONFIG", flags.Lookup("config"))
	_ = viper.BindPFlag("REPORT_TIMEZONE", flags.Lookup("timezone"))
	_ = viper.BindPFlag("REPORT_WORKERS", flags.Lookup("workers"))

	root.AddCommand(newGenerateCmd())
	root.AddCommand(newAnalyzeCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newSeedCmd())
	return root
}

func Execute() error {
	return newRootCmd().Execute()
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/analytics/brief"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/config"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/service"
)

func readInput(r io.Reader) (brief.Input, error) {
	var in brief.Input
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return in, fmt.Errorf("failed to decode input: %w", err)
	}
	if len(in.Channels) == 0 {
		return in, fmt.Errorf("input has no channels")
	}
	return in, nil
}

func newAnalyzeCmd() *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the engine over readings from a JSON file without storing anything",
		Example: `  brief analyze --input week.json -o yaml
  cat week.json | brief analyze --input -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := config.ReportProfile()
			if err != nil {
				return err
			}
			r := cmd.InOrStdin()
			if input != "-" {
				f, err := os.Open(input)
				if err != nil {
					return fmt.Errorf("failed to open input: %w", err)
				}
				defer f.Close()
				r = f
			}
			in, err := readInput(r)
			if err != nil {
				return err
			}
			rep, err := service.NewReportService(nil, profile, config.ReportWorkers()).Analyze(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printOutput(cmd, rep)
		},
	}
	cmd.Flags().StringVar(&input, "input", "-", "input JSON file, - for stdin")
	return cmd
}

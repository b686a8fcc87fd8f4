package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the report profile",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective profile after defaults and overrides",
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := config.ReportProfile()
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(profile)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check the profile and exit non-zero if it is invalid",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.ReportProfile(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "profile is valid")
			return nil
		},
	})
	return cmd
}

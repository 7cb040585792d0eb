package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/mockserver/pkg/cli/internal/output"
	"github.com/getmockd/mockserver/pkg/config"
)

func newConfigCommand() *cobra.Command {
	f := &serverFlags{}
	var (
		outPath    string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Print the configuration serve would use: defaults, then the configuration
file, then flags. With --output the result is written to a file instead,
as YAML or JSON depending on its extension.`,
		Example: `  # Show what "serve --https --auto-cert" resolves to
  mockserver config --https --auto-cert

  # Write a starter configuration file
  mockserver config --port 8080 --cors --output mockserver.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd, f)
			if err != nil {
				return err
			}

			if outPath != "" {
				if err := config.SaveToFile(outPath, cfg); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", outPath)
				return nil
			}

			if jsonOutput {
				return output.JSON(cmd.OutOrStdout(), cfg)
			}
			return output.YAML(cmd.OutOrStdout(), cfg)
		},
	}

	addServerFlags(cmd, f)
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Write the configuration to this file")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON instead of YAML")
	return cmd
}

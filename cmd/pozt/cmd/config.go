package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lilseedabe/pozt/internal/config"
)

func (a *app) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init [file]",
		Short: "Write the default configuration as YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := config.ConfigFileName + ".yaml"
			if len(args) == 1 {
				file = args[0]
			}
			if err := config.WriteDefaultConfig(file); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", file)
			return err
		},
	})

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := reportFormat(cmd)
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), format, &configReport{
				Config:     a.cfg,
				File:       a.v.ConfigFileUsed(),
				SearchPath: config.SearchPaths(),
			})
		},
	}
	show.Flags().String("format", formatYAML, "report format (text, json, yaml)")
	cmd.AddCommand(show)
	return cmd
}

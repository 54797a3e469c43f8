package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sipforge/internal/series"
)

func newSeriesCommand(ctx *commandContext) *cobra.Command {
	seriesCmd := &cobra.Command{
		Use:   "series",
		Short: "Browse the archival series registry",
	}

	seriesCmd.AddCommand(newSeriesListCommand(ctx))

	return seriesCmd
}

func newSeriesListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List published series accepting transfers",
		Long: "List the archival series the registry currently publishes. Only a\n" +
			"published series can be bound with `sipforge sip set-series`.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			client := series.NewClient(cfg)
			list, err := client.List(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, list)
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No published series")
				return nil
			}

			rows := make([][]string, 0, len(list))
			for _, s := range list {
				rows = append(rows, []string{s.ID, s.Name, s.ValidFrom, s.ValidUntil})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Name", "Valid from", "Valid until"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

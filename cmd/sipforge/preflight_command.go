package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sipforge/internal/preflight"
)

func newPreflightCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "preflight",
		Short: "Check directories, free space, and remote endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			results := preflight.RunAll(cmd.Context(), cfg)

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)
			for _, line := range renderSectionHeader("Preflight", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, result := range results {
				kind := statusOK
				if !result.Passed {
					kind = statusError
				}
				fmt.Fprintln(stdout, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}

			if !preflight.AllPassed(results) {
				return fmt.Errorf("preflight failed")
			}
			fmt.Fprintln(stdout)
			fmt.Fprintln(stdout, "All preflight checks passed")
			return nil
		},
	}
}

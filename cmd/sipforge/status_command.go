package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"sipforge/internal/sipstore"
	"sipforge/internal/workspace"
)

var statusOrder = []sipstore.Status{
	sipstore.StatusInProgress,
	sipstore.StatusCreated,
	sipstore.StatusUploading,
	sipstore.StatusUploaded,
	sipstore.StatusAccepted,
	sipstore.StatusRejected,
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show workspace and SIP status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withWorkspace(func(ws *workspace.Workspace) error {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				stats, err := ws.Store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				failed, err := ws.Store.ListSIPs(cmd.Context())
				if err != nil {
					return err
				}

				if asJSON {
					counts := make(map[string]int, len(stats))
					for status, count := range stats {
						counts[string(status)] = count
					}
					attention := make([]map[string]string, 0)
					for _, sip := range failed {
						if sip.ErrorMessage == "" {
							continue
						}
						attention = append(attention, map[string]string{
							"id":    sip.ID,
							"name":  sip.Name,
							"error": sip.ErrorMessage,
						})
					}
					return writeJSON(cmd, struct {
						Database  string              `json:"database"`
						Counts    map[string]int      `json:"counts"`
						Attention []map[string]string `json:"attention"`
					}{ws.Store.Path(), counts, attention})
				}

				stdout := cmd.OutOrStdout()
				colorize := shouldColorize(stdout)

				for _, line := range renderSectionHeader("Workspace", colorize) {
					fmt.Fprintln(stdout, line)
				}
				fmt.Fprintln(stdout, renderStatusLine("Database", statusInfo, ws.Store.Path(), colorize))
				fmt.Fprintln(stdout, renderStatusLine("Output directory", statusInfo, cfg.Paths.SIPOutputDir, colorize))
				if cfg.EDepot.SkipUpload {
					fmt.Fprintln(stdout, renderStatusLine("E-depot", statusWarn, "uploads disabled", colorize))
				} else {
					fmt.Fprintln(stdout, renderStatusLine("E-depot", statusInfo, fmt.Sprintf("%s:%d", cfg.EDepot.Host, cfg.EDepot.Port), colorize))
				}
				fmt.Fprintln(stdout)

				for _, line := range renderSectionHeader("SIP Status", colorize) {
					fmt.Fprintln(stdout, line)
				}
				rows := buildStatusRows(stats)
				if len(rows) == 0 {
					fmt.Fprintln(stdout, "No SIPs yet")
				} else {
					fmt.Fprintln(stdout, renderTable(
						[]string{"Status", "Count"},
						rows,
						[]columnAlignment{alignLeft, alignRight},
					))
				}

				attention := false
				for _, sip := range failed {
					if sip.ErrorMessage == "" {
						continue
					}
					if !attention {
						fmt.Fprintln(stdout)
						for _, line := range renderSectionHeader("Needs Attention", colorize) {
							fmt.Fprintln(stdout, line)
						}
						attention = true
					}
					fmt.Fprintln(stdout, renderStatusLine(sip.Name, statusKindForSIP(sip.Status), sip.ErrorMessage, colorize))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of formatted output")
	return cmd
}

func buildStatusRows(stats map[sipstore.Status]int) [][]string {
	var rows [][]string
	total := 0
	for _, status := range statusOrder {
		count, ok := stats[status]
		if !ok {
			continue
		}
		rows = append(rows, []string{string(status), strconv.Itoa(count)})
		total += count
	}
	if len(rows) > 0 {
		rows = append(rows, []string{"total", strconv.Itoa(total)})
	}
	return rows
}

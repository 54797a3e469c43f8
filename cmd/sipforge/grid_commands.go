package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"sipforge/internal/fileutil"
	"sipforge/internal/grid"
	"sipforge/internal/importer"
	"sipforge/internal/scan"
	"sipforge/internal/workspace"
)

func newGridCommand(ctx *commandContext) *cobra.Command {
	gridCmd := &cobra.Command{
		Use:   "grid",
		Short: "Build, edit, and validate a SIP's grid",
	}

	gridCmd.AddCommand(newGridBuildCommand(ctx))
	gridCmd.AddCommand(newGridImportCommand(ctx))
	gridCmd.AddCommand(newGridShowCommand(ctx))
	gridCmd.AddCommand(newGridSetCommand(ctx))
	gridCmd.AddCommand(newGridCheckCommand(ctx))

	return gridCmd
}

func newGridBuildCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "build <sip>",
		Short: "Build the grid from the SIP's dossier folders",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withWorkspace(func(ws *workspace.Workspace) error {
				sip, err := resolveSIP(cmd.Context(), ws.Store, args[0])
				if err != nil {
					return err
				}
				dossiers, err := ws.Store.SIPDossiers(cmd.Context(), sip.ID)
				if err != nil {
					return err
				}

				records, err := scan.Build(dossiers)
				if err != nil {
					return err
				}
				if err := ws.Store.ReplaceGrid(cmd.Context(), sip.ID, records); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Built grid for SIP %s: %d rows\n", sip.Name, len(records))
				return nil
			})
		},
	}
}

func newGridImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <sip> <transfer-list.xlsx>",
		Short: "Build the grid from a transfer-list spreadsheet",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.withWorkspace(func(ws *workspace.Workspace) error {
				sip, err := resolveSIP(cmd.Context(), ws.Store, args[0])
				if err != nil {
					return err
				}

				list, err := importer.ImportTransferList(args[1])
				if err != nil {
					return err
				}
				records, err := importer.ToRecords(list)
				if err != nil {
					return err
				}

				if err := ws.Store.ReplaceGrid(cmd.Context(), sip.ID, records); err != nil {
					return err
				}

				// Keep a copy of the transfer list with the workspace, so
				// the imported grid can be traced back after the original
				// moves or changes.
				archiveDir := filepath.Join(cfg.Paths.WorkspaceDir, "imports")
				if err := os.MkdirAll(archiveDir, 0o755); err != nil {
					return fmt.Errorf("create import archive: %w", err)
				}
				archived := filepath.Join(archiveDir, sip.ID+filepath.Ext(list.Source))
				if err := fileutil.CopyFile(list.Source, archived); err != nil {
					return fmt.Errorf("archive transfer list: %w", err)
				}
				if err := ws.Store.SetImportedFrom(cmd.Context(), sip.ID, list.Source); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d rows into SIP %s from %s\n", len(records), sip.Name, list.Source)
				return nil
			})
		},
	}
}

func newGridShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <sip>",
		Short: "Show the grid with its validation annotations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withWorkspace(func(ws *workspace.Workspace) error {
				sip, err := resolveSIP(cmd.Context(), ws.Store, args[0])
				if err != nil {
					return err
				}
				set, _, err := loadGridSession(cmd.Context(), ws.Store, sip)
				if err != nil {
					return err
				}

				if asJSON {
					return writeJSON(cmd, struct {
						Records     []*grid.Record             `json:"records"`
						Annotations map[string]grid.Annotation `json:"annotations"`
					}{set.Records(), annotationKeys(set)})
				}

				rows := make([][]string, 0, set.Len())
				for _, rec := range set.Records() {
					rows = append(rows, []string{
						fmt.Sprintf("%d", rec.ID),
						string(rec.Type),
						rec.DossierRef,
						rec.PathInPackage,
						rec.Name,
						rec.Opening,
						rec.Closing,
						annotationSummary(set, rec),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Row", "Type", "Dossier", "Path", "Name", "Opening", "Closing", "Problems"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newGridSetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set <sip> <row> <column> <value>",
		Short: "Edit one grid cell and persist the result",
		Long: "Edit one grid cell. Editable columns: " + editableColumns() + ".\n" +
			"Invalid values are stored and annotated rather than rejected, so every\n" +
			"problem stays visible in `grid show`.",
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withWorkspace(func(ws *workspace.Workspace) error {
				sip, err := resolveSIP(cmd.Context(), ws.Store, args[0])
				if err != nil {
					return err
				}
				rowID, err := strconv.ParseInt(args[1], 10, 64)
				if err != nil {
					return fmt.Errorf("row must be a numeric row id: %w", err)
				}
				col, err := parseColumn(args[2])
				if err != nil {
					return err
				}

				set, validator, err := loadGridSession(cmd.Context(), ws.Store, sip)
				if err != nil {
					return err
				}
				switch col {
				case grid.ColDescription, grid.ColComments:
					err = set.SetDescriptive(rowID, col, args[3])
				default:
					err = validator.SetCell(rowID, col, args[3])
				}
				if err != nil {
					return err
				}
				if err := ws.Store.SaveGrid(cmd.Context(), sip.ID, set.Records()); err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if ann, ok := set.Annotation(rowID, col); ok {
					fmt.Fprintf(out, "Saved; cell now flagged: %s\n", ann.Message)
				} else {
					fmt.Fprintln(out, "Saved")
				}
				for ref, ann := range set.Annotations() {
					if ref.RecordID == rowID && ref.Column == col {
						continue
					}
					if ann.Severity == grid.SeverityError {
						fmt.Fprintf(out, "Also flagged: row %d %s: %s\n", ref.RecordID, ref.Column, ann.Message)
					}
				}
				return nil
			})
		},
	}
}

func newGridCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check <sip>",
		Short: "Validate the whole grid and mark it ready for packaging",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withWorkspace(func(ws *workspace.Workspace) error {
				sip, err := resolveSIP(cmd.Context(), ws.Store, args[0])
				if err != nil {
					return err
				}
				set, _, err := loadGridSession(cmd.Context(), ws.Store, sip)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				problems := annotationRows(set)
				if len(problems) > 0 {
					fmt.Fprintln(out, renderTable(
						[]string{"Row", "Column", "Severity", "Message"},
						problems,
						[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
					))
				}

				if !set.IsValid() {
					return fmt.Errorf("grid of SIP %s has %d rows with errors", sip.Name, len(set.ErrorRows()))
				}

				// Propagation may have tightened dossier dates; persist the
				// checked state so packaging can proceed.
				if err := ws.Store.SaveGrid(cmd.Context(), sip.ID, set.Records()); err != nil {
					return err
				}
				fmt.Fprintf(out, "Grid of SIP %s is valid and ready for packaging\n", sip.Name)
				return nil
			})
		},
	}
}

var settableColumns = append(append([]grid.Column{}, grid.ValidatedColumns...), grid.ColDescription, grid.ColComments)

func parseColumn(name string) (grid.Column, error) {
	col := grid.Column(strings.ToLower(strings.TrimSpace(name)))
	for _, c := range settableColumns {
		if c == col {
			return col, nil
		}
	}
	return "", fmt.Errorf("unknown column %q (editable: %s)", name, editableColumns())
}

func editableColumns() string {
	names := make([]string, 0, len(settableColumns))
	for _, c := range settableColumns {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}

func annotationSummary(set *grid.RecordSet, rec *grid.Record) string {
	var parts []string
	for _, col := range grid.AllColumns {
		if ann, ok := set.Annotation(rec.ID, col); ok {
			parts = append(parts, fmt.Sprintf("%s: %s", col, ann.Message))
		}
	}
	return strings.Join(parts, "; ")
}

func annotationRows(set *grid.RecordSet) [][]string {
	var rows [][]string
	for _, rec := range set.Records() {
		for _, col := range grid.AllColumns {
			ann, ok := set.Annotation(rec.ID, col)
			if !ok {
				continue
			}
			severity := "warning"
			if ann.Severity == grid.SeverityError {
				severity = "error"
			}
			rows = append(rows, []string{
				fmt.Sprintf("%d", rec.ID),
				string(col),
				severity,
				ann.Message,
			})
		}
	}
	return rows
}

func annotationKeys(set *grid.RecordSet) map[string]grid.Annotation {
	out := make(map[string]grid.Annotation, len(set.Annotations()))
	for ref, ann := range set.Annotations() {
		out[fmt.Sprintf("%d/%s", ref.RecordID, ref.Column)] = ann
	}
	return out
}

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"sipforge/internal/config"
	"sipforge/internal/sipstore"
	"sipforge/internal/workspace"
)

func newDossierCommand(ctx *commandContext) *cobra.Command {
	dossierCmd := &cobra.Command{
		Use:   "dossier",
		Short: "Manage the dossier folders available for SIPs",
	}

	dossierCmd.AddCommand(newDossierAddCommand(ctx))
	dossierCmd.AddCommand(newDossierListCommand(ctx))
	dossierCmd.AddCommand(newDossierRemoveCommand(ctx))

	return dossierCmd
}

func newDossierAddCommand(ctx *commandContext) *cobra.Command {
	var label string

	cmd := &cobra.Command{
		Use:   "add <folder>...",
		Short: "Register dossier folders by path",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if label != "" && len(args) > 1 {
				return fmt.Errorf("--label can only be combined with a single folder")
			}
			return ctx.withWorkspace(func(ws *workspace.Workspace) error {
				for _, arg := range args {
					path, err := config.ExpandPath(arg)
					if err != nil {
						return err
					}
					info, err := os.Stat(path)
					if err != nil {
						return fmt.Errorf("dossier folder: %w", err)
					}
					if !info.IsDir() {
						return fmt.Errorf("dossier %s is not a folder", path)
					}

					dossierLabel := strings.TrimSpace(label)
					if dossierLabel == "" {
						dossierLabel = filepath.Base(path)
					}

					d, err := ws.Store.AddDossier(cmd.Context(), dossierLabel, path)
					if errors.Is(err, sipstore.ErrDossierExists) {
						return fmt.Errorf("dossier label %q is already registered; labels must be unique", dossierLabel)
					}
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Registered dossier %s (%s)\n", d.Label, d.Path)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&label, "label", "", "Dossier label (defaults to the folder name)")
	return cmd
}

func newDossierListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var includeDisabled bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered dossiers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withWorkspace(func(ws *workspace.Workspace) error {
				dossiers, err := ws.Store.ListDossiers(cmd.Context(), includeDisabled)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, dossiers)
				}
				if len(dossiers) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No dossiers registered")
					return nil
				}

				rows := make([][]string, 0, len(dossiers))
				for _, d := range dossiers {
					rows = append(rows, []string{
						fmt.Sprintf("%d", d.ID),
						d.Label,
						d.Path,
						yesNo(d.Disabled),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Label", "Path", "Disabled"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	cmd.Flags().BoolVar(&includeDisabled, "all", false, "Include disabled dossiers")
	return cmd
}

func newDossierRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <label>",
		Short: "Remove a dossier (disables it when SIPs still reference it)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withWorkspace(func(ws *workspace.Workspace) error {
				removed, err := ws.Store.RemoveDossier(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if removed {
					fmt.Fprintf(cmd.OutOrStdout(), "Removed dossier %s\n", args[0])
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Dossier %s is referenced by existing SIPs; disabled instead\n", args[0])
				}
				return nil
			})
		},
	}
}

package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"sipforge/internal/series"
	"sipforge/internal/sippkg"
	"sipforge/internal/sipstore"
	"sipforge/internal/uploader"
	"sipforge/internal/workspace"
)

func newSIPCommand(ctx *commandContext) *cobra.Command {
	sipCmd := &cobra.Command{
		Use:   "sip",
		Short: "Manage submission packages",
	}

	sipCmd.AddCommand(newSIPCreateCommand(ctx))
	sipCmd.AddCommand(newSIPListCommand(ctx))
	sipCmd.AddCommand(newSIPShowCommand(ctx))
	sipCmd.AddCommand(newSIPRemoveCommand(ctx))
	sipCmd.AddCommand(newSIPSetSeriesCommand(ctx))
	sipCmd.AddCommand(newSIPPackageCommand(ctx))
	sipCmd.AddCommand(newSIPUploadCommand(ctx))
	sipCmd.AddCommand(newSIPMarkCommand(ctx))

	return sipCmd
}

func newSIPCreateCommand(ctx *commandContext) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "create <dossier-label>...",
		Short: "Create a SIP over registered dossiers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withWorkspace(func(ws *workspace.Workspace) error {
				var ids []int64
				for _, label := range args {
					d, err := ws.Store.GetDossier(cmd.Context(), label)
					if err != nil {
						return err
					}
					if d == nil {
						return fmt.Errorf("dossier %q is not registered; run `sipforge dossier add` first", label)
					}
					if d.Disabled {
						return fmt.Errorf("dossier %q is disabled", label)
					}
					ids = append(ids, d.ID)
				}

				sip, err := ws.Store.CreateSIP(cmd.Context(), strings.TrimSpace(name), ids)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created SIP %s (%s)\n", sip.Name, sip.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "SIP name (defaults to a sequential name)")
	return cmd
}

func newSIPListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var statusFilters []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List SIPs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withWorkspace(func(ws *workspace.Workspace) error {
				var statuses []sipstore.Status
				for _, s := range statusFilters {
					statuses = append(statuses, sipstore.Status(s))
				}

				sips, err := ws.Store.ListSIPs(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, sips)
				}
				if len(sips) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No SIPs")
					return nil
				}

				rows := make([][]string, 0, len(sips))
				for _, sip := range sips {
					rows = append(rows, []string{
						sip.ID,
						sip.Name,
						string(sip.Status),
						sip.SeriesName,
						sip.ErrorMessage,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Name", "Status", "Series", "Error"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	cmd.Flags().StringSliceVar(&statusFilters, "status", nil, "Filter by status (repeatable)")
	return cmd
}

func newSIPShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <sip>",
		Short: "Show one SIP with its dossiers",
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
				if asJSON {
					return writeJSON(cmd, struct {
						SIP      *sipstore.SIP       `json:"sip"`
						Dossiers []*sipstore.Dossier `json:"dossiers"`
					}{sip, dossiers})
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "SIP:      %s (%s)\n", sip.Name, sip.ID)
				fmt.Fprintf(out, "Status:   %s\n", sip.Status)
				if sip.HasSeries() {
					fmt.Fprintf(out, "Series:   %s (%s, %s .. %s)\n", sip.SeriesName, sip.SeriesID, sip.SeriesStart, sip.SeriesEnd)
					fmt.Fprintf(out, "Package:  %s\n", sip.PackageFileName())
				} else {
					fmt.Fprintln(out, "Series:   (none)")
				}
				if sip.ErrorMessage != "" {
					fmt.Fprintf(out, "Error:    %s\n", sip.ErrorMessage)
				}
				fmt.Fprintln(out, "Dossiers:")
				for _, d := range dossiers {
					fmt.Fprintf(out, "  %s (%s)\n", d.Label, d.Path)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of text")
	return cmd
}

func newSIPRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <sip>",
		Short: "Remove a SIP and its grid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withWorkspace(func(ws *workspace.Workspace) error {
				sip, err := resolveSIP(cmd.Context(), ws.Store, args[0])
				if err != nil {
					return err
				}
				if _, err := ws.Store.RemoveSIP(cmd.Context(), sip.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed SIP %s\n", sip.Name)
				return nil
			})
		},
	}
}

func newSIPSetSeriesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set-series <sip> <series-id>",
		Short: "Bind a SIP to a published archival series",
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

				client := series.NewClient(cfg)
				s, err := client.Get(cmd.Context(), args[1])
				if err != nil {
					return err
				}
				if s.Status != series.StatusPublished {
					return fmt.Errorf("series %s is %s; only %s series accept transfers", s.ID, s.Status, series.StatusPublished)
				}
				if _, err := s.Bounds(); err != nil {
					return err
				}

				if err := ws.Store.SetSeries(cmd.Context(), sip.ID, s.ID, s.Name, s.ValidFrom, s.ValidUntil); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "SIP %s bound to series %s (%s)\n", sip.Name, s.Name, s.ID)
				return nil
			})
		},
	}
}

func newSIPPackageCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "package <sip>",
		Short: "Assemble the SIP package and checksum sidecar",
		Args:  cobra.ExactArgs(1),
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
				if sip.Status != sipstore.StatusInProgress && sip.Status != sipstore.StatusCreated {
					return fmt.Errorf("SIP %s is %s and can no longer be packaged", sip.Name, sip.Status)
				}

				saved, err := ws.Store.GridSaved(cmd.Context(), sip.ID)
				if err != nil {
					return err
				}
				if !saved {
					return fmt.Errorf("the grid of SIP %s has not been checked since its last rebuild; run `sipforge grid check %s` first", sip.Name, sip.Name)
				}

				set, _, err := loadGridSession(cmd.Context(), ws.Store, sip)
				if err != nil {
					return err
				}

				result, err := sippkg.Build(cmd.Context(), sip, set, cfg.Paths.SIPOutputDir)
				if err != nil {
					return err
				}
				if err := ws.Store.SetStatus(cmd.Context(), sip.ID, sipstore.StatusCreated); err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Package:  %s (%d files)\n", result.PackagePath, result.FileCount)
				fmt.Fprintf(out, "Sidecar:  %s\n", result.SidecarPath)
				fmt.Fprintf(out, "Checksum: %s:%s\n", sippkg.ChecksumAlgorithm, result.Checksum)
				return nil
			})
		},
	}
}

func newSIPUploadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <sip>",
		Short: "Upload the built package to the e-depot over FTPS",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.withWorkspace(func(ws *workspace.Workspace) error {
				if reset, err := ws.Store.ResetStuckUploading(cmd.Context()); err != nil {
					return err
				} else if reset > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "Reset %d SIP(s) stuck in uploading\n", reset)
				}

				sip, err := resolveSIP(cmd.Context(), ws.Store, args[0])
				if err != nil {
					return err
				}

				up := uploader.New(cfg, ws.Store, ctx.ensureLogger())
				packagePath := filepath.Join(cfg.Paths.SIPOutputDir, sip.PackageFileName())
				sidecarPath := filepath.Join(cfg.Paths.SIPOutputDir, sip.SidecarFileName())
				if err := up.Upload(cmd.Context(), sip, packagePath, sidecarPath); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Uploaded SIP %s\n", sip.Name)
				return nil
			})
		},
	}
}

func newSIPMarkCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "mark <sip> <accepted|rejected>",
		Short: "Record the e-depot verdict for an uploaded SIP",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			verdict := sipstore.Status(args[1])
			if verdict != sipstore.StatusAccepted && verdict != sipstore.StatusRejected {
				return fmt.Errorf("verdict must be %s or %s", sipstore.StatusAccepted, sipstore.StatusRejected)
			}
			return ctx.withWorkspace(func(ws *workspace.Workspace) error {
				sip, err := resolveSIP(cmd.Context(), ws.Store, args[0])
				if err != nil {
					return err
				}
				if sip.Status != sipstore.StatusUploaded {
					return fmt.Errorf("SIP %s is %s; only uploaded SIPs receive a verdict", sip.Name, sip.Status)
				}
				if err := ws.Store.SetStatus(cmd.Context(), sip.ID, verdict); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "SIP %s marked %s\n", sip.Name, verdict)
				return nil
			})
		},
	}
}

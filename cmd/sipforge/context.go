package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"sipforge/internal/config"
	"sipforge/internal/grid"
	"sipforge/internal/logging"
	"sipforge/internal/sipstore"
	"sipforge/internal/workspace"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		c.logger = logger
	})
	return c.logger
}

// withWorkspace opens the locked workspace for the duration of fn.
func (c *commandContext) withWorkspace(fn func(ws *workspace.Workspace) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	ws, err := workspace.Open(cfg)
	if err != nil {
		return err
	}
	defer ws.Close()
	return fn(ws)
}

// resolveSIP finds a SIP by id or name.
func resolveSIP(ctx context.Context, store *sipstore.Store, ref string) (*sipstore.SIP, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("a SIP id or name is required")
	}
	sip, err := store.GetSIP(ctx, ref)
	if err != nil {
		return nil, err
	}
	if sip == nil {
		sip, err = store.FindSIPByName(ctx, ref)
		if err != nil {
			return nil, err
		}
	}
	if sip == nil {
		return nil, fmt.Errorf("no SIP with id or name %q", ref)
	}
	return sip, nil
}

// loadGridSession loads a SIP's grid and runs a full validation pass with
// the SIP's series bounds and the empty-row scan applied.
func loadGridSession(ctx context.Context, store *sipstore.Store, sip *sipstore.SIP) (*grid.RecordSet, *grid.Validator, error) {
	records, err := store.LoadGrid(ctx, sip.ID)
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("SIP %s has no grid; run `sipforge grid build` or `sipforge grid import` first", sip.Name)
	}

	set, err := grid.NewRecordSet(records)
	if err != nil {
		return nil, nil, err
	}

	bounds, err := sipBounds(sip)
	if err != nil {
		return nil, nil, err
	}
	validator := grid.NewValidator(set, bounds)
	if err := validator.ScanEmptyRows(grid.OSProbe{}); err != nil {
		return nil, nil, err
	}
	validator.Revalidate()
	set.ClearDirty()
	return set, validator, nil
}

func sipBounds(sip *sipstore.SIP) (grid.Bounds, error) {
	var bounds grid.Bounds
	if sip.SeriesStart != "" {
		start, err := grid.ParseDate(sip.SeriesStart)
		if err != nil {
			return bounds, fmt.Errorf("stored series start: %w", err)
		}
		bounds.Start = &start
	}
	if sip.SeriesEnd != "" {
		end, err := grid.ParseDate(sip.SeriesEnd)
		if err != nil {
			return bounds, fmt.Errorf("stored series end: %w", err)
		}
		bounds.End = &end
	}
	return bounds, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

package preflight

import (
	"context"

	"sipforge/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is configured.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// Workspace and output directories (always checked)
	results = append(results, CheckDirectoryAccess("Workspace directory", cfg.Paths.WorkspaceDir))
	results = append(results, CheckDirectoryAccess("SIP output directory", cfg.Paths.SIPOutputDir))
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}

	// Free space where packages are assembled
	results = append(results, CheckFreeSpace("Output free space", cfg.Paths.SIPOutputDir, cfg.Packaging.MinFreeGiB))

	// Series registry
	if cfg.Series.BaseURL != "" {
		results = append(results, CheckSeriesRegistry(ctx, cfg.Series.BaseURL, cfg.Series.APIToken))
	}

	// E-depot endpoint, unless uploads are disabled
	if !cfg.EDepot.SkipUpload {
		results = append(results, CheckEDepot(cfg.EDepot.Host, cfg.EDepot.Port))
	}

	return results
}

// AllPassed reports whether every check in a run succeeded.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}

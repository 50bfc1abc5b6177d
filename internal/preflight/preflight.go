package preflight

import (
	"context"
	"path/filepath"

	"spinefetch/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Advisory bool
	Detail   string
}

// RunAll executes the directory checks for cfg.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Resource directory", cfg.Paths.ResourceDir),
		CheckDirectoryAccess("Save directory", cfg.Paths.SaveDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	if ledgerDir := filepath.Dir(cfg.Paths.LedgerPath); ledgerDir != filepath.Clean(cfg.Paths.LogDir) {
		results = append(results, CheckDirectoryAccess("Ledger directory", ledgerDir))
	}
	return results
}

// Failed returns the non-advisory checks that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed && !r.Advisory {
			out = append(out, r)
		}
	}
	return out
}

package preflight

import (
	"context"

	"storyboard/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every preflight check applicable to cfg. Checks for optional
// features run only when the feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Run root", cfg.Paths.RunRoot),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	if cfg.Caption.Enabled && cfg.Caption.FontFile != "" {
		results = append(results, CheckReadableFile("Caption font", cfg.Caption.FontFile))
	}
	if cfg.Paraphrase.Enabled {
		results = append(results, CheckLLM(ctx, "Paraphrase LLM", cfg.GetLLM()))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

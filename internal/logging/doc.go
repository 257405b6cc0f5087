// Package logging assembles structured slog loggers and formatting helpers used
// across storyboard.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so stage code automatically tags
// log lines with run IDs, stages, and line indices. A tee helper lets the CLI
// mirror console output into a per-run JSON log file, and a progress sampler
// keeps long stages from flooding the console.
package logging

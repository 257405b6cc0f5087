// Package prune deletes the on-disk artifacts of finished runs.
package prune

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"storyboard/internal/artifacts"
	"storyboard/internal/history"
	"storyboard/internal/logging"
	"storyboard/internal/runlock"
)

// Result contains the outcome of a prune operation.
type Result struct {
	Runs    []string
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// Paths lists every file and directory owned by runID. Images share a
// directory across runs and are matched by their run ID prefix.
func Paths(layout artifacts.Layout, runID string) []string {
	paths := []string{
		layout.AudioDir(runID),
		layout.VideoDir(runID),
		layout.FinalDir(runID),
		layout.Record(runID),
	}
	images, _ := filepath.Glob(filepath.Join(layout.ImageDir(), globEscape(runID)+"_image_*"))
	return append(paths, images...)
}

// Stale picks the finished runs that started before now minus maxAge.
// Runs still marked running are never selected.
func Stale(records []history.Record, maxAge time.Duration, now time.Time) []string {
	cutoff := now.Add(-maxAge)
	var ids []string
	for _, r := range records {
		if r.Status == history.StatusRunning {
			continue
		}
		if r.StartedAt.Before(cutoff) {
			ids = append(ids, r.RunID)
		}
	}
	return ids
}

// Remove deletes the artifacts of each run. A run whose lock is held by a
// live process is skipped and reported as an error.
func Remove(ctx context.Context, layout artifacts.Layout, runIDs []string, logger *slog.Logger) Result {
	result := Result{}
	if logger == nil {
		logger = logging.NewNop()
	}
	for _, runID := range runIDs {
		if ctx.Err() != nil {
			result.Errors = append(result.Errors, CleanupError{Path: layout.Root, Error: ctx.Err()})
			return result
		}
		lock, err := runlock.Acquire(layout.Lock(runID), runID)
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: layout.Lock(runID), Error: err})
			continue
		}
		failed := false
		for _, path := range Paths(layout, runID) {
			if err := os.RemoveAll(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				failed = true
				result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
				logging.WarnWithContext(logger, "failed to remove run artifact", "prune_failed",
					logging.String(logging.FieldRunID, runID),
					logging.String("path", path),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check run_root permissions"),
					logging.String(logging.FieldImpact, "disk space not reclaimed"))
				continue
			}
			result.Removed = append(result.Removed, path)
		}
		_ = lock.Release()
		if !failed {
			result.Runs = append(result.Runs, runID)
			logger.Info("run pruned",
				logging.String(logging.FieldRunID, runID),
				logging.String(logging.FieldEventType, "run_pruned"))
		}
	}
	return result
}

func globEscape(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch r {
		case '*', '?', '[', '\\':
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}

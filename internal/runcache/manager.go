// Package runcache persists run records and answers the cache hit/miss
// question for individual artifacts.
//
// The JSON record is a convenience snapshot used to resume a run's lines and
// prompt. Whether a stage may skip a line is decided by Exists alone.
package runcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"storyboard/internal/artifacts"
	"storyboard/internal/fileutil"
	"storyboard/internal/logging"
	"storyboard/internal/services"
	"storyboard/internal/story"
)

// Manager loads and saves run records under a Layout.
type Manager struct {
	layout artifacts.Layout
	logger *slog.Logger
	now    func() time.Time
}

// Option customizes a Manager.
type Option func(*Manager)

// WithClock overrides the timestamp source used for LastUpdated.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// New constructs a Manager.
func New(layout artifacts.Layout, logger *slog.Logger, opts ...Option) *Manager {
	m := &Manager{
		layout: layout,
		logger: logging.NewComponentLogger(logger, "runcache"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Layout exposes the artifact layout backing this manager.
func (m *Manager) Layout() artifacts.Layout {
	return m.layout
}

// Load reads the persisted record for runID. A missing record is ErrNotFound;
// an unreadable or corrupt one is ErrPersistence.
func (m *Manager) Load(runID string) (*story.Run, error) {
	path := m.layout.Record(runID)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "cache", "load", "no record for run "+runID, err)
		}
		return nil, services.Wrap(services.ErrPersistence, "cache", "load", "read "+path, err)
	}
	var run story.Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, services.Wrap(services.ErrPersistence, "cache", "load", "decode "+path, err)
	}
	if run.ID == "" {
		run.ID = runID
	}
	if err := run.Validate(); err != nil {
		return nil, services.Wrap(services.ErrPersistence, "cache", "load", "invalid record "+path, err)
	}
	run.Cached = true
	m.logger.Debug("run record loaded",
		logging.String(logging.FieldRunID, run.ID),
		logging.Int("line_count", len(run.Lines)),
		logging.String("path", path))
	return &run, nil
}

// Save replaces the persisted record with the full in-memory run. On failure
// the run is marked uncached and an ErrPersistence error is returned; the
// in-memory lines are untouched.
func (m *Manager) Save(run *story.Run) error {
	if run == nil {
		return services.Wrap(services.ErrPersistence, "cache", "save", "nil run", nil)
	}
	previous := run.LastUpdated
	run.LastUpdated = m.now().UTC()

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		run.LastUpdated = previous
		run.Cached = false
		return services.Wrap(services.ErrPersistence, "cache", "save", "encode record", err)
	}
	path := m.layout.Record(run.ID)
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		run.LastUpdated = previous
		run.Cached = false
		return services.Wrap(services.ErrPersistence, "cache", "save", fmt.Sprintf("write %s", path), err)
	}
	run.Cached = true
	return nil
}

// Exists reports whether path holds a finished artifact: a regular, non-empty
// file. This is the authoritative cache hit test.
func (m *Manager) Exists(path string) bool {
	return fileutil.NonEmptyRegular(path)
}

package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"

	"storyboard/internal/history"
	"storyboard/internal/stage"
	"storyboard/internal/story"
)

// RunConfig is resolved by the caller before a run starts and never changes
// during it.
type RunConfig struct {
	RunID       string
	SourcePath  string
	Prompt      story.PromptTemplate
	IgnoreCache bool
}

// NewRunID returns a fresh random run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Report summarizes a run.
type Report struct {
	RunID      string
	SourcePath string
	State      State
	Resumed    bool
	LineCount  int
	Stages     []stage.Report
	FinalVideo string
	Elapsed    time.Duration
}

// Failures flattens per-line failures across stages.
func (r Report) Failures() []stage.LineFailure {
	var out []stage.LineFailure
	for _, s := range r.Stages {
		out = append(out, s.Failures...)
	}
	return out
}

// StageBuilder returns the audio, image and video producers for run, in
// pipeline order. It is called after the run's prompt is known.
type StageBuilder func(run *story.Run) ([]stage.Producer, error)

// Finalizer concatenates a run's clips.
type Finalizer interface {
	Finalize(ctx context.Context, run *story.Run) (string, error)
}

// History indexes run outcomes.
type History interface {
	Start(ctx context.Context, runID, sourcePath string, startedAt time.Time) error
	Finish(ctx context.Context, runID string, finishedAt time.Time, out history.Outcome) error
}

package stage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"storyboard/internal/artifacts"
	"storyboard/internal/logging"
	"storyboard/internal/services"
	"storyboard/internal/story"
)

// Cache is the persistence surface the runner needs.
type Cache interface {
	Save(run *story.Run) error
	Exists(path string) bool
}

// Runner executes per-line stages against a run.
type Runner struct {
	cache      Cache
	layout     artifacts.Layout
	logger     *slog.Logger
	checkpoint bool
	now        func() time.Time
}

// Option customizes a Runner.
type Option func(*Runner)

// WithCheckpointEachLine saves the run record after every line whose state
// changed, in addition to the end-of-stage save.
func WithCheckpointEachLine(enabled bool) Option {
	return func(r *Runner) {
		r.checkpoint = enabled
	}
}

// WithLogger sets the runner logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner constructs a Runner.
func NewRunner(cache Cache, layout artifacts.Layout, opts ...Option) *Runner {
	r := &Runner{
		cache:  cache,
		layout: layout,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.NewComponentLogger(r.logger, "stage")
	return r
}

// Run processes every line of run for producer's stage. Per-line failures are
// collected in the Report. The only error returned is context cancellation,
// after the progress made so far has been saved.
func (r *Runner) Run(ctx context.Context, run *story.Run, producer Producer) (Report, error) {
	kind := producer.Kind()
	report := Report{Kind: kind}
	start := r.now()

	stageCtx := services.WithStage(services.WithRunID(ctx, run.ID), string(kind))
	logger := logging.WithContext(stageCtx, r.logger)
	sampler := logging.NewProgressSampler(25)

	logger.Info(Label(kind)+" stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.Int("line_count", len(run.Lines)),
		logging.Bool("ignore_cache", run.IgnoreCache))

	for i := range run.Lines {
		if err := ctx.Err(); err != nil {
			return r.interrupted(logger, run, report, start, err)
		}

		line := &run.Lines[i]
		lineCtx := services.WithLineIndex(stageCtx, line.Index)
		expected := r.layout.Path(kind, run.ID, line.Index)
		changed := true

		switch {
		case !run.IgnoreCache && r.cache.Exists(expected):
			changed = line.Ref(kind) != expected
			line.SetRef(kind, expected)
			report.Reused++
			logger.Debug("artifact reused",
				logging.Int(logging.FieldLineIndex, line.Index),
				logging.String("path", expected))
		default:
			ref, err := r.produce(lineCtx, producer, *line, expected)
			if err != nil {
				line.SetRef(kind, "")
				removePartial(expected)
				if ctx.Err() != nil {
					return r.interrupted(logger, run, report, start, ctx.Err())
				}
				report.Failures = append(report.Failures, LineFailure{Kind: kind, Index: line.Index, Err: err})
				logging.WarnWithContext(logging.WithContext(lineCtx, r.logger), "line failed", "line_failed",
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "rerun to retry; finished lines are reused"),
					logging.String(logging.FieldImpact, "line is left out of the final video"))
				break
			}
			line.SetRef(kind, ref)
			report.Produced++
		}

		if changed && r.checkpoint {
			r.save(logger, run, &report)
		}
		if sampler.ShouldLogLines(i+1, len(run.Lines), string(kind)) {
			logger.Info(Label(kind)+" progress",
				logging.String(logging.FieldEventType, "stage_progress"),
				logging.Int("done", i+1),
				logging.Int("total", len(run.Lines)))
		}
	}

	r.save(logger, run, &report)
	report.Elapsed = r.now().Sub(start)

	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Int("produced", report.Produced),
		logging.Int("reused", report.Reused),
		logging.Int("failed", len(report.Failures)),
		logging.Duration("elapsed", report.Elapsed),
	}
	if report.Failed() {
		attrs = append(attrs, logging.Any("failed_lines", report.FailedIndices()))
	}
	logger.Info(Label(kind)+" stage completed", logging.Args(attrs...)...)
	return report, nil
}

func (r *Runner) produce(ctx context.Context, producer Producer, line story.Line, expected string) (ref string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("producer panic: %v", rec)
		}
		if err != nil && !errors.Is(err, services.ErrProduction) {
			err = services.Wrap(services.ErrProduction, string(producer.Kind()), "produce",
				fmt.Sprintf("line %d", line.Index), err)
		}
	}()
	if err := os.MkdirAll(filepath.Dir(expected), 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	ref, err = producer.Produce(ctx, line, expected)
	if err != nil {
		return "", err
	}
	if ref == "" {
		ref = expected
	}
	if !r.cache.Exists(ref) {
		return "", fmt.Errorf("producer reported success but %s is missing or empty", ref)
	}
	return ref, nil
}

func (r *Runner) save(logger *slog.Logger, run *story.Run, report *Report) {
	if err := r.cache.Save(run); err != nil {
		if report.PersistErr == nil {
			report.PersistErr = err
		}
		logging.WarnWithContext(logger, "run record not saved", "persist_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check free space and permissions on the cache directory"),
			logging.String(logging.FieldImpact, "an interrupted run may redo finished lines"))
	}
}

func (r *Runner) interrupted(logger *slog.Logger, run *story.Run, report Report, start time.Time, cause error) (Report, error) {
	r.save(logger, run, &report)
	report.Elapsed = r.now().Sub(start)
	logger.Warn(Label(report.Kind)+" stage interrupted",
		logging.String(logging.FieldEventType, "stage_interrupted"),
		logging.Int("produced", report.Produced),
		logging.Int("reused", report.Reused))
	return report, cause
}

// removePartial deletes whatever a failed producer left at path so a
// truncated file is never mistaken for a finished artifact.
func removePartial(path string) {
	if path == "" {
		return
	}
	_ = os.Remove(path)
}

package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"storyboard/internal/artifacts"
	"storyboard/internal/fileutil"
	"storyboard/internal/history"
	"storyboard/internal/logging"
	"storyboard/internal/prune"
	"storyboard/internal/runcache"
	"storyboard/internal/runlock"
	"storyboard/internal/services"
	"storyboard/internal/stage"
	"storyboard/internal/story"
)

// Orchestrator runs the pipeline for one run at a time.
type Orchestrator struct {
	cache       *runcache.Manager
	runner      *stage.Runner
	build       StageBuilder
	finalizer   Finalizer
	paraphraser story.Paraphraser
	history     History
	ingest      story.IngestOptions
	logger      *slog.Logger
	now         func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithParaphraser rewrites lines after ingestion.
func WithParaphraser(p story.Paraphraser) Option {
	return func(o *Orchestrator) {
		o.paraphraser = p
	}
}

// WithHistory records run outcomes in an index.
func WithHistory(h History) Option {
	return func(o *Orchestrator) {
		o.history = h
	}
}

// WithIngestOptions overrides the line filter.
func WithIngestOptions(opts story.IngestOptions) Option {
	return func(o *Orchestrator) {
		o.ingest = opts
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// NewOrchestrator constructs an Orchestrator.
func NewOrchestrator(cache *runcache.Manager, runner *stage.Runner, build StageBuilder, finalizer Finalizer, logger *slog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cache:     cache,
		runner:    runner,
		build:     build,
		finalizer: finalizer,
		ingest:    story.DefaultIngestOptions(),
		logger:    logging.NewComponentLogger(logger, "workflow"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) layout() artifacts.Layout {
	return o.cache.Layout()
}

// Execute runs the pipeline described by rc. Per-line failures are reported,
// not returned; the error is non-nil only when the run could not reach Done.
func (o *Orchestrator) Execute(ctx context.Context, rc RunConfig) (Report, error) {
	start := o.now()
	report := Report{RunID: rc.RunID, SourcePath: rc.SourcePath, State: StateInit}
	if strings.TrimSpace(rc.RunID) == "" {
		return report, services.Wrap(services.ErrConfiguration, "init", "run", "run id required", nil)
	}
	// Each invocation gets its own correlation ID; resumed runs keep the run ID.
	runCtx := services.WithRequestID(services.WithRunID(ctx, rc.RunID), uuid.NewString())
	logger := logging.WithContext(runCtx, o.logger)

	raw, err := story.ReadSource(rc.SourcePath)
	if err != nil {
		return report, err
	}

	lock, err := runlock.Acquire(o.layout().Lock(rc.RunID), rc.RunID)
	if err != nil {
		return report, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("run lock not released", logging.Error(err))
		}
	}()

	if err := o.ensureDirs(rc.RunID); err != nil {
		return report, err
	}

	o.historyStart(runCtx, logger, rc, start)
	logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("source", rc.SourcePath),
		logging.Bool("ignore_cache", rc.IgnoreCache))

	run, resumed, err := o.prepare(runCtx, logger, rc, raw)
	if err != nil {
		return o.fail(runCtx, logger, report, start, err)
	}
	run.IgnoreCache = rc.IgnoreCache
	report.Resumed = resumed
	report.LineCount = len(run.Lines)
	report.State = StateTextExtracted

	producers, err := o.build(run)
	if err != nil {
		return o.fail(runCtx, logger, report, start, services.Wrap(services.ErrConfiguration, "init", "stages", "build producers", err))
	}
	if len(producers) != len(story.MediaKinds) {
		return o.fail(runCtx, logger, report, start, services.Wrap(services.ErrConfiguration, "init", "stages",
			fmt.Sprintf("expected %d producers, got %d", len(story.MediaKinds), len(producers)), nil))
	}

	for i, producer := range producers {
		if producer.Kind() != story.MediaKinds[i] {
			return o.fail(runCtx, logger, report, start, services.Wrap(services.ErrConfiguration, "init", "stages",
				fmt.Sprintf("producer %d is %s, expected %s", i, producer.Kind(), story.MediaKinds[i]), nil))
		}
		stageReport, err := o.runner.Run(runCtx, run, producer)
		report.Stages = append(report.Stages, stageReport)
		if err != nil {
			return o.fail(runCtx, logger, report, start, err)
		}
		report.State++
	}

	o.dropStaleFinal(logger, run, report.Stages[len(report.Stages)-1])
	final, err := o.finalizer.Finalize(runCtx, run)
	if err != nil {
		return o.fail(runCtx, logger, report, start, err)
	}
	report.FinalVideo = final
	report.State = StateConcatenated
	run.FinalVideo = final
	if err := o.cache.Save(run); err != nil {
		logging.WarnWithContext(logger, "run record not saved after concatenation", "persist_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "the next run will re-check the final video on disk"))
	}

	report.State = StateDone
	report.Elapsed = o.now().Sub(start)
	failures := len(report.Failures())
	o.historyFinish(runCtx, logger, rc.RunID, history.Outcome{
		Status:     history.StatusDone,
		Elapsed:    report.Elapsed,
		LineCount:  report.LineCount,
		Failures:   failures,
		FinalVideo: final,
	})
	logger.Info("run completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Int("line_count", report.LineCount),
		logging.Int("failed_lines", failures),
		logging.String("final_video", final),
		logging.Duration("elapsed", report.Elapsed))
	return report, nil
}

// prepare resumes the cached record when the source is unchanged, otherwise
// discards old artifacts, ingests (and paraphrases) the text and saves a
// fresh record.
func (o *Orchestrator) prepare(ctx context.Context, logger *slog.Logger, rc RunConfig, raw string) (*story.Run, bool, error) {
	digest := fileutil.SHA256Bytes([]byte(raw))

	cached, err := o.cache.Load(rc.RunID)
	switch {
	case err == nil && cached.SourceDigest == digest:
		if rc.Prompt != (story.PromptTemplate{}) {
			cached.Prompt = rc.Prompt
		}
		logger.Info("resuming cached run",
			logging.String(logging.FieldEventType, "run_resumed"),
			logging.Int("line_count", len(cached.Lines)),
			logging.Int("audio_done", cached.Completed(story.KindAudio)),
			logging.Int("image_done", cached.Completed(story.KindImage)),
			logging.Int("video_done", cached.Completed(story.KindVideo)))
		return cached, true, nil
	case err == nil:
		logger.Info("source changed since last run; ingesting again",
			logging.String(logging.FieldEventType, "source_changed"))
	case errors.Is(err, services.ErrNotFound):
	default:
		logging.WarnWithContext(logger, "cached run record unusable; ingesting again", "record_corrupt",
			logging.Error(err),
			logging.String(logging.FieldImpact, "line text is rebuilt and existing artifacts are discarded"))
	}
	if err := o.discardArtifacts(logger, rc.RunID); err != nil {
		return nil, false, err
	}

	lines := story.Ingest(raw, o.ingest)
	if len(lines) == 0 {
		return nil, false, services.Wrap(services.ErrConfiguration, "ingest", "lines", "no narrative lines in "+rc.SourcePath, nil)
	}
	if err := story.Paraphrase(ctx, lines, o.paraphraser, o.logger); err != nil {
		return nil, false, err
	}
	run := story.NewRun(rc.RunID, rc.SourcePath, digest, lines, rc.Prompt)
	if err := o.cache.Save(run); err != nil {
		logging.WarnWithContext(logger, "run record not saved after ingestion", "persist_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "an interrupted run will ingest again"))
	}
	logger.Info("text extracted",
		logging.String(logging.FieldEventType, "text_extracted"),
		logging.Int("line_count", len(lines)))
	return run, false, nil
}

// discardArtifacts removes the per-line artifacts and final video of runID.
// Artifacts are keyed by line index alone, so they are only valid for the
// source text recorded alongside them.
func (o *Orchestrator) discardArtifacts(logger *slog.Logger, runID string) error {
	record := o.layout().Record(runID)
	removed := 0
	for _, path := range prune.Paths(o.layout(), runID) {
		if path == record {
			continue
		}
		if _, err := os.Lstat(path); err != nil {
			continue
		}
		if entries, err := os.ReadDir(path); err == nil && len(entries) == 0 {
			continue
		}
		if err := os.RemoveAll(path); err != nil {
			return services.Wrap(services.ErrPersistence, "ingest", "discard", path, err)
		}
		removed++
	}
	if removed > 0 {
		logger.Info("artifacts from previous source discarded",
			logging.String(logging.FieldEventType, "artifacts_discarded"),
			logging.Int("paths", removed))
	}
	return o.ensureDirs(runID)
}

func (o *Orchestrator) ensureDirs(runID string) error {
	for _, dir := range o.layout().StageDirs(runID) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return services.Wrap(services.ErrConfiguration, "init", "directories", dir, err)
		}
	}
	return nil
}

// dropStaleFinal removes a final video that predates clips produced in this
// run, so concatenation picks them up.
func (o *Orchestrator) dropStaleFinal(logger *slog.Logger, run *story.Run, video stage.Report) {
	if video.Produced == 0 || run.IgnoreCache {
		return
	}
	path := o.layout().FinalVideo(run.ID)
	if !fileutil.NonEmptyRegular(path) {
		return
	}
	if err := os.Remove(path); err != nil {
		logger.Warn("stale final video not removed", logging.Error(err), logging.String("path", path))
		return
	}
	run.FinalVideo = ""
	logger.Info("final video outdated by new clips",
		logging.String(logging.FieldEventType, "final_outdated"),
		logging.Int("new_clips", video.Produced))
}

func (o *Orchestrator) fail(ctx context.Context, logger *slog.Logger, report Report, start time.Time, err error) (Report, error) {
	report.Elapsed = o.now().Sub(start)
	status := history.StatusFailed
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		status = history.StatusInterrupted
		logger.Warn("run interrupted",
			logging.String(logging.FieldEventType, "run_interrupted"),
			logging.String("state", report.State.String()))
	} else {
		details := services.Details(err)
		logging.ErrorWithContext(logger, "run failed", "run_failed",
			logging.String("state", report.State.String()),
			logging.String("error_kind", details.Kind),
			logging.Error(err))
	}
	// The index write must survive an interrupt.
	o.historyFinish(context.WithoutCancel(ctx), logger, report.RunID, history.Outcome{
		Status:    status,
		Elapsed:   report.Elapsed,
		LineCount: report.LineCount,
		Failures:  len(report.Failures()),
		Err:       err,
	})
	return report, err
}

func (o *Orchestrator) historyStart(ctx context.Context, logger *slog.Logger, rc RunConfig, start time.Time) {
	if o.history == nil {
		return
	}
	if err := o.history.Start(ctx, rc.RunID, rc.SourcePath, start); err != nil {
		logger.Warn("run history not updated", logging.Error(err))
	}
}

func (o *Orchestrator) historyFinish(ctx context.Context, logger *slog.Logger, runID string, out history.Outcome) {
	if o.history == nil {
		return
	}
	if err := o.history.Finish(ctx, runID, o.now(), out); err != nil {
		logger.Warn("run history not updated", logging.Error(err))
	}
}

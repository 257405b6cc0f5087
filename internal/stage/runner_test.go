package stage_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"storyboard/internal/artifacts"
	"storyboard/internal/logging"
	"storyboard/internal/runcache"
	"storyboard/internal/services"
	"storyboard/internal/stage"
	"storyboard/internal/story"
	"storyboard/internal/testsupport"
)

type fakeProducer struct {
	kind   story.Kind
	calls  []int
	fail   map[int]error
	cancel func()
	// cancelAt triggers cancel when this line is produced.
	cancelAt int
	// partial writes a file before failing.
	partial bool
}

func (f *fakeProducer) Kind() story.Kind { return f.kind }

func (f *fakeProducer) Produce(_ context.Context, line story.Line, output string) (string, error) {
	f.calls = append(f.calls, line.Index)
	if f.cancel != nil && line.Index == f.cancelAt {
		f.cancel()
		return "", context.Canceled
	}
	if err, ok := f.fail[line.Index]; ok {
		if f.partial {
			_ = os.WriteFile(output, []byte("trunc"), 0o644)
		}
		return "", err
	}
	if err := os.WriteFile(output, []byte("artifact "+line.Text), 0o644); err != nil {
		return "", err
	}
	return output, nil
}

func newHarness(t *testing.T, opts ...stage.Option) (*stage.Runner, *runcache.Manager, artifacts.Layout) {
	t.Helper()
	layout := artifacts.NewLayout(t.TempDir())
	cache := runcache.New(layout, logging.NewNop())
	opts = append([]stage.Option{stage.WithLogger(logging.NewNop())}, opts...)
	return stage.NewRunner(cache, layout, opts...), cache, layout
}

func newRun(texts ...string) *story.Run {
	lines := make([]story.Line, len(texts))
	for i, text := range texts {
		lines[i] = story.Line{Index: i, Text: text, Source: text}
	}
	return story.NewRun("run-1", "story.txt", "", lines, story.PromptTemplate{})
}

func TestRunProducesEveryLine(t *testing.T) {
	runner, cache, layout := newHarness(t)
	run := newRun("one", "two", "three")
	producer := &fakeProducer{kind: story.KindAudio}

	report, err := runner.Run(context.Background(), run, producer)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Produced != 3 || report.Reused != 0 || report.Failed() {
		t.Fatalf("unexpected report %+v", report)
	}
	for i, line := range run.Lines {
		want := layout.Path(story.KindAudio, run.ID, i)
		if line.Audio != want {
			t.Fatalf("line %d audio = %q, want %q", i, line.Audio, want)
		}
	}
	loaded, err := cache.Load(run.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Completed(story.KindAudio) != 3 {
		t.Fatalf("persisted record missing audio refs: %+v", loaded.Lines)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	runner, _, _ := newHarness(t)
	run := newRun("one", "two")
	producer := &fakeProducer{kind: story.KindImage}

	if _, err := runner.Run(context.Background(), run, producer); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	producer.calls = nil
	report, err := runner.Run(context.Background(), run, producer)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if len(producer.calls) != 0 {
		t.Fatalf("expected no producer calls on rerun, got %v", producer.calls)
	}
	if report.Reused != 2 || report.Produced != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestRunIsolatesFailures(t *testing.T) {
	runner, _, layout := newHarness(t)
	run := newRun("one", "two", "three")
	boom := errors.New("synth crashed")
	producer := &fakeProducer{kind: story.KindAudio, fail: map[int]error{1: boom}, partial: true}

	report, err := runner.Run(context.Background(), run, producer)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Produced != 2 || len(report.Failures) != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	failure := report.Failures[0]
	if failure.Index != 1 || !errors.Is(failure.Err, boom) || !errors.Is(failure.Err, services.ErrProduction) {
		t.Fatalf("unexpected failure %+v", failure)
	}
	if run.Lines[1].Audio != "" {
		t.Fatalf("failed line kept a reference: %q", run.Lines[1].Audio)
	}
	if _, err := os.Stat(layout.Path(story.KindAudio, run.ID, 1)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected partial artifact removed, stat err = %v", err)
	}
	if run.Lines[2].Audio == "" {
		t.Fatal("line after the failure was not produced")
	}
}

func TestRunResumesOnlyMissingLines(t *testing.T) {
	runner, _, layout := newHarness(t)
	run := newRun("one", "two", "three")
	testsupport.WriteFile(t, layout.Path(story.KindVideo, run.ID, 0), 16)
	testsupport.WriteFile(t, layout.Path(story.KindVideo, run.ID, 2), 16)
	producer := &fakeProducer{kind: story.KindVideo}

	report, err := runner.Run(context.Background(), run, producer)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(producer.calls) != 1 || producer.calls[0] != 1 {
		t.Fatalf("expected only line 1 produced, got %v", producer.calls)
	}
	if report.Reused != 2 || report.Produced != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestRunTreatsEmptyFileAsMiss(t *testing.T) {
	runner, _, layout := newHarness(t)
	run := newRun("one")
	path := layout.Path(story.KindAudio, run.ID, 0)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	producer := &fakeProducer{kind: story.KindAudio}

	if _, err := runner.Run(context.Background(), run, producer); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(producer.calls) != 1 {
		t.Fatalf("expected empty file to be regenerated, calls=%v", producer.calls)
	}
}

func TestRunIgnoresRecordedRefWithoutFile(t *testing.T) {
	runner, _, _ := newHarness(t)
	run := newRun("one")
	run.Lines[0].Image = "/nowhere/stale.png"
	producer := &fakeProducer{kind: story.KindImage}

	if _, err := runner.Run(context.Background(), run, producer); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(producer.calls) != 1 {
		t.Fatalf("expected stale reference to be regenerated, calls=%v", producer.calls)
	}
}

func TestRunIgnoreCacheRegenerates(t *testing.T) {
	runner, _, layout := newHarness(t)
	run := newRun("one", "two")
	for i := range run.Lines {
		testsupport.WriteFile(t, layout.Path(story.KindAudio, run.ID, i), 4)
	}
	run.IgnoreCache = true
	producer := &fakeProducer{kind: story.KindAudio}

	report, err := runner.Run(context.Background(), run, producer)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Produced != 2 || report.Reused != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
	got := testsupport.ReadFile(t, layout.Path(story.KindAudio, run.ID, 0))
	if got != "artifact one" {
		t.Fatalf("artifact not overwritten: %q", got)
	}
}

func TestRunCheckpointsEachLine(t *testing.T) {
	runner, cache, _ := newHarness(t, stage.WithCheckpointEachLine(true))
	run := newRun("one", "two")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	producer := &fakeProducer{kind: story.KindAudio, cancel: cancel, cancelAt: 1}

	report, err := runner.Run(ctx, run, producer)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if report.Produced != 1 || report.Failed() {
		t.Fatalf("cancellation should not count as a line failure: %+v", report)
	}
	loaded, err := cache.Load(run.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Lines[0].Audio == "" || loaded.Lines[1].Audio != "" {
		t.Fatalf("unexpected persisted refs: %+v", loaded.Lines)
	}
}

func TestRunProducerMissingOutputFails(t *testing.T) {
	runner, _, _ := newHarness(t)
	run := newRun("one")
	producer := stage.ProducerFunc{
		StageKind: story.KindImage,
		Fn: func(context.Context, story.Line, string) (string, error) {
			return "", nil
		},
	}

	report, err := runner.Run(context.Background(), run, producer)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Failures) != 1 {
		t.Fatalf("expected one failure, got %+v", report)
	}
}

func TestRunReportsPersistFailure(t *testing.T) {
	root := t.TempDir()
	layout := artifacts.NewLayout(root)
	// A file where the cache directory should be makes every save fail.
	testsupport.WriteFile(t, layout.CacheDir(), 1)
	cache := runcache.New(layout, logging.NewNop(), runcache.WithClock(func() time.Time { return time.Unix(0, 0) }))
	runner := stage.NewRunner(cache, layout, stage.WithLogger(logging.NewNop()))
	run := newRun("one")

	report, err := runner.Run(context.Background(), run, &fakeProducer{kind: story.KindAudio})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !errors.Is(report.PersistErr, services.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", report.PersistErr)
	}
	if run.Lines[0].Audio == "" {
		t.Fatal("in-memory state lost after save failure")
	}
}

func TestLabel(t *testing.T) {
	if got := stage.Label(story.KindVideo); got != "Video" {
		t.Fatalf("Label = %q", got)
	}
}

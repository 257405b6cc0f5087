package prune

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"storyboard/internal/artifacts"
	"storyboard/internal/history"
	"storyboard/internal/logging"
	"storyboard/internal/runlock"
	"storyboard/internal/story"
	"storyboard/internal/testsupport"
)

func seedRun(t *testing.T, layout artifacts.Layout, runID string) {
	t.Helper()
	for _, kind := range story.MediaKinds {
		testsupport.WriteFile(t, layout.Path(kind, runID, 0), 4)
	}
	testsupport.WriteFile(t, layout.FinalVideo(runID), 4)
	testsupport.WriteFile(t, layout.Record(runID), 4)
}

func TestRemoveDeletesOnlyTargetRun(t *testing.T) {
	layout := artifacts.NewLayout(t.TempDir())
	seedRun(t, layout, "old")
	seedRun(t, layout, "keep")

	result := Remove(context.Background(), layout, []string{"old"}, logging.NewNop())
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if !slices.Equal(result.Runs, []string{"old"}) {
		t.Fatalf("Runs = %v", result.Runs)
	}
	for _, kind := range story.MediaKinds {
		if _, err := os.Stat(layout.Path(kind, "old", 0)); !os.IsNotExist(err) {
			t.Errorf("%s artifact of pruned run still exists", kind)
		}
		if _, err := os.Stat(layout.Path(kind, "keep", 0)); err != nil {
			t.Errorf("%s artifact of kept run removed: %v", kind, err)
		}
	}
	if _, err := os.Stat(layout.Record("old")); !os.IsNotExist(err) {
		t.Error("record of pruned run still exists")
	}
	if _, err := os.Stat(layout.FinalVideo("keep")); err != nil {
		t.Errorf("final video of kept run removed: %v", err)
	}
}

func TestRemoveSkipsLockedRun(t *testing.T) {
	layout := artifacts.NewLayout(t.TempDir())
	seedRun(t, layout, "busy")
	lock, err := runlock.Acquire(layout.Lock("busy"), "busy")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	t.Cleanup(func() { _ = lock.Release() })

	result := Remove(context.Background(), layout, []string{"busy"}, logging.NewNop())
	if len(result.Runs) != 0 || len(result.Errors) != 1 {
		t.Fatalf("expected locked run to be skipped, got %+v", result)
	}
	if _, err := os.Stat(layout.Path(story.KindVideo, "busy", 0)); err != nil {
		t.Fatalf("locked run artifacts removed: %v", err)
	}
}

func TestPathsMatchesImagesByRunPrefix(t *testing.T) {
	layout := artifacts.NewLayout(t.TempDir())
	testsupport.WriteFile(t, layout.Path(story.KindImage, "r1", 0), 1)
	testsupport.WriteFile(t, layout.Path(story.KindImage, "r1", 12), 1)
	testsupport.WriteFile(t, layout.Path(story.KindImage, "r10", 0), 1)

	var images []string
	for _, p := range Paths(layout, "r1") {
		if filepath.Dir(p) == layout.ImageDir() {
			images = append(images, filepath.Base(p))
		}
	}
	slices.Sort(images)
	if !slices.Equal(images, []string{"r1_image_0.png", "r1_image_12.png"}) {
		t.Fatalf("unexpected images %v", images)
	}
}

func TestStale(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	records := []history.Record{
		{RunID: "fresh", Status: history.StatusDone, StartedAt: now.Add(-time.Hour)},
		{RunID: "old", Status: history.StatusDone, StartedAt: now.Add(-72 * time.Hour)},
		{RunID: "old-failed", Status: history.StatusFailed, StartedAt: now.Add(-72 * time.Hour)},
		{RunID: "old-running", Status: history.StatusRunning, StartedAt: now.Add(-72 * time.Hour)},
	}
	got := Stale(records, 24*time.Hour, now)
	if !slices.Equal(got, []string{"old", "old-failed"}) {
		t.Fatalf("Stale = %v", got)
	}
}

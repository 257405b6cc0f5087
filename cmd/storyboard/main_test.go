package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"storyboard/internal/artifacts"
	"storyboard/internal/fileutil"
	"storyboard/internal/story"
	"storyboard/internal/testsupport"
)

func TestRunProducesFinalVideoAndResumes(t *testing.T) {
	env := setupCLITestEnv(t)
	source := testsupport.WriteStory(t, env.baseDir, "story.txt",
		"Hello world.", "The AI response returned in 2s", "Goodbye: friend.")

	out, _, err := runCLI(t, []string{"run", source, "--run-id", "demo", "--prefix", "An oil painting"}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	requireContains(t, out, "Run demo")
	requireContains(t, out, "Final video:")
	requireContains(t, out, "State: done, 2 lines")

	layout := artifacts.NewLayout(env.cfg.Paths.RunRoot)
	if !fileutil.NonEmptyRegular(layout.FinalVideo("demo")) {
		t.Fatalf("expected final video at %s", layout.FinalVideo("demo"))
	}
	if _, err := os.Stat(filepath.Join(env.cfg.Paths.LogDir, "runs", "demo.log")); err != nil {
		t.Fatalf("expected per-run log: %v", err)
	}

	out, _, err = runCLI(t, []string{"run", source, "--run-id", "demo"}, env.configPath)
	if err != nil {
		t.Fatalf("rerun: %v\n%s", err, out)
	}
	requireContains(t, out, "Not regenerating: the existing final video is returned")
	requireContains(t, out, "State: done, 2 lines")

	out, _, err = runCLI(t, []string{"show", "demo"}, env.configPath)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	requireContains(t, out, "Hello world.")
	requireContains(t, out, "video: 2/2")
	requireContains(t, out, layout.FinalVideo("demo"))

	out, _, err = runCLI(t, []string{"runs"}, env.configPath)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	requireContains(t, out, "demo")
	requireContains(t, out, "done")
}

func TestRunMissingSourceFails(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"run", filepath.Join(env.baseDir, "absent.txt")}, env.configPath)
	if err == nil {
		t.Fatal("expected error for missing source")
	}
	requireContains(t, err.Error(), "does not exist")
}

func TestRunMissingSynthesizerFails(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Speech.Command = []string{"storyboard-no-such-tts", "{output}", "{text}"}
	writeTestConfig(t, env.configPath, env.cfg)
	source := testsupport.WriteStory(t, env.baseDir, "story.txt", "Hello.")

	_, _, err := runCLI(t, []string{"run", source}, env.configPath)
	if err == nil {
		t.Fatal("expected missing dependency error")
	}
	requireContains(t, err.Error(), "storyboard-no-such-tts")
}

func TestShowUnknownRun(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"show", "nope"}, env.configPath); err == nil {
		t.Fatal("expected error for unknown run")
	}
}

func TestDoctorReportsHealthyEnvironment(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"doctor"}, env.configPath)
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, out)
	}
	requireContains(t, out, "External tools")
	requireContains(t, out, "FFmpeg")
	requireContains(t, out, "All checks passed")
}

func TestCSVToText(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "story.csv")
	if err := os.WriteFile(in, []byte("1,Once upon a time\n2,\"There was, a fox\"\n3,\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	outPath := filepath.Join(dir, "story.txt")

	out, _, err := runCLI(t, []string{"csv2txt", in, outPath}, "")
	if err != nil {
		t.Fatalf("csv2txt: %v", err)
	}
	requireContains(t, out, "Wrote 2 lines")
	if got := testsupport.ReadFile(t, outPath); got != "Once upon a time\nThere was, a fox\n" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestLogsAndRemoveRun(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Logging.Level = "info"
	writeTestConfig(t, env.configPath, env.cfg)
	source := testsupport.WriteStory(t, env.baseDir, "story.txt", "One line.")

	if out, _, err := runCLI(t, []string{"run", source, "--run-id", "gone"}, env.configPath); err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}

	out, _, err := runCLI(t, []string{"logs", "gone", "-n", "200"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "run_complete")

	out, _, err = runCLI(t, []string{"runs", "rm", "gone"}, env.configPath)
	if err != nil {
		t.Fatalf("runs rm: %v\n%s", err, out)
	}
	requireContains(t, out, "removed gone")

	layout := artifacts.NewLayout(env.cfg.Paths.RunRoot)
	if _, err := os.Stat(layout.FinalVideo("gone")); !os.IsNotExist(err) {
		t.Fatalf("expected final video removed, stat err %v", err)
	}
	out, _, err = runCLI(t, []string{"runs"}, env.configPath)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	requireContains(t, out, "No runs recorded")
}

func TestRunSendsCompletionNotification(t *testing.T) {
	var titles []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		titles = append(titles, r.Header.Get("Title"))
	}))
	t.Cleanup(srv.Close)

	env := setupCLITestEnv(t)
	env.cfg.Notifications.NtfyTopic = srv.URL
	writeTestConfig(t, env.configPath, env.cfg)
	source := testsupport.WriteStory(t, env.baseDir, "story.txt", "Notify me.")

	if out, _, err := runCLI(t, []string{"run", source}, env.configPath); err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	if len(titles) != 1 || titles[0] != "Storyboard - Video Ready" {
		t.Fatalf("unexpected notifications %v", titles)
	}
}

func TestRunWithCaptions(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithCaptions())
	source := testsupport.WriteStory(t, env.baseDir, "story.txt", "A caption: with a colon.")

	out, _, err := runCLI(t, []string{"run", source, "--run-id", "captioned"}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	layout := artifacts.NewLayout(env.cfg.Paths.RunRoot)
	image := layout.Path(story.KindImage, "captioned", 0)
	// The ffmpeg stub replaces the generated image with its own placeholder.
	if got := testsupport.ReadFile(t, image); got != "clip" {
		t.Fatalf("expected captioned image, got %q", got)
	}
	entries, err := os.ReadDir(layout.ImageDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			t.Fatalf("leftover temp file %s", e.Name())
		}
	}
}

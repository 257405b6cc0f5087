package speech_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"storyboard/internal/config"
	"storyboard/internal/fileutil"
	"storyboard/internal/services"
	"storyboard/internal/services/command"
	"storyboard/internal/services/speech"
	"storyboard/internal/story"
	"storyboard/internal/testsupport"
)

func TestProduceExpandsTemplate(t *testing.T) {
	var gotBinary string
	var gotArgs []string
	runner := command.RunnerFunc(func(_ context.Context, binary string, args []string) ([]byte, error) {
		gotBinary, gotArgs = binary, args
		return nil, os.WriteFile(args[3], []byte("mp3"), 0o644)
	})
	synth, err := speech.New([]string{"gtts-cli", "--lang", "{lang}", "--output", "{output}", "{text}"}, "fr",
		speech.WithCommandRunner(runner))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out := filepath.Join(t.TempDir(), "audio_0.mp3")

	ref, err := synth.Produce(context.Background(), story.Line{Index: 0, Text: "Bonjour."}, out)
	if err != nil {
		t.Fatalf("Produce: %v", err)
	}
	if ref != out {
		t.Fatalf("ref = %q, want %q", ref, out)
	}
	if testsupport.ReadFile(t, out) != "mp3" {
		t.Fatal("audio not promoted to the expected path")
	}
	if gotBinary != "gtts-cli" {
		t.Fatalf("binary = %q", gotBinary)
	}
	want := []string{"--lang", "fr", "--output", fileutil.PartialPath(out), "Bonjour."}
	if !reflect.DeepEqual(gotArgs, want) {
		t.Fatalf("args = %#v, want %#v", gotArgs, want)
	}
}

func TestDefaultCommandPassesDashLinesAsText(t *testing.T) {
	var gotArgs []string
	runner := command.RunnerFunc(func(_ context.Context, _ string, args []string) ([]byte, error) {
		gotArgs = args
		return nil, os.WriteFile(args[3], []byte("mp3"), 0o644)
	})
	synth, err := speech.New(config.Default().Speech.Command, "en", speech.WithCommandRunner(runner))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out := filepath.Join(t.TempDir(), "audio_0.mp3")

	if _, err := synth.Produce(context.Background(), story.Line{Text: "-1 degrees, said the radio."}, out); err != nil {
		t.Fatalf("Produce: %v", err)
	}
	n := len(gotArgs)
	if n < 2 || gotArgs[n-2] != "--" || gotArgs[n-1] != "-1 degrees, said the radio." {
		t.Fatalf("line not separated from options: %#v", gotArgs)
	}
}

func TestProduceFailures(t *testing.T) {
	tests := []struct {
		name   string
		line   story.Line
		runner command.RunnerFunc
	}{
		{
			name:   "command fails",
			line:   story.Line{Text: "Hi."},
			runner: func(context.Context, string, []string) ([]byte, error) { return nil, errors.New("exit 1") },
		},
		{
			name:   "no output written",
			line:   story.Line{Text: "Hi."},
			runner: func(context.Context, string, []string) ([]byte, error) { return nil, nil },
		},
		{
			name:   "blank text",
			line:   story.Line{Text: "  "},
			runner: func(context.Context, string, []string) ([]byte, error) { return nil, nil },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			synth, err := speech.New([]string{"tts", "{output}", "{text}"}, "", speech.WithCommandRunner(tt.runner))
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			_, err = synth.Produce(context.Background(), tt.line, filepath.Join(t.TempDir(), "a.mp3"))
			if !errors.Is(err, services.ErrProduction) {
				t.Fatalf("expected production error, got %v", err)
			}
		})
	}
}

func TestNewRejectsEmptyTemplate(t *testing.T) {
	if _, err := speech.New(nil, "en"); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

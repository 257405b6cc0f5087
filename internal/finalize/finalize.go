// Package finalize concatenates a run's per-line clips into the final video.
package finalize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"storyboard/internal/artifacts"
	"storyboard/internal/fileutil"
	"storyboard/internal/logging"
	"storyboard/internal/services"
	"storyboard/internal/story"
)

// Muxer joins the clips listed in a concat manifest into output.
type Muxer interface {
	Concat(ctx context.Context, manifest, output string) error
}

// Clip is one per-line video selected for concatenation.
type Clip struct {
	Index int
	Path  string
}

// Finalizer produces the final artifact for a run.
type Finalizer struct {
	layout artifacts.Layout
	muxer  Muxer
	logger *slog.Logger
}

// New constructs a Finalizer.
func New(layout artifacts.Layout, muxer Muxer, logger *slog.Logger) *Finalizer {
	return &Finalizer{
		layout: layout,
		muxer:  muxer,
		logger: logging.NewComponentLogger(logger, "finalize"),
	}
}

// Finalize returns the path of the run's final video, muxing it unless one
// already exists and the run does not ignore the cache.
func (f *Finalizer) Finalize(ctx context.Context, run *story.Run) (string, error) {
	output := f.layout.FinalVideo(run.ID)
	logger := logging.WithContext(services.WithStage(services.WithRunID(ctx, run.ID), "concat"), f.logger)

	if !run.IgnoreCache && fileutil.NonEmptyRegular(output) {
		logger.Info("final video reused",
			logging.String(logging.FieldEventType, "final_reused"),
			logging.String("path", output))
		return output, nil
	}

	clips, err := CollectClips(f.layout.VideoDir(run.ID))
	if err != nil {
		return "", services.Wrap(services.ErrConcatenation, "concat", "collect", "read clip directory", err)
	}
	if len(clips) == 0 {
		return "", services.Wrap(services.ErrConcatenation, "concat", "collect", "no clips to concatenate for run "+run.ID, nil)
	}

	manifest := f.layout.ConcatManifest(run.ID)
	if err := fileutil.WriteFileAtomic(manifest, []byte(Manifest(clips)), 0o644); err != nil {
		return "", services.Wrap(services.ErrConcatenation, "concat", "manifest", manifest, err)
	}
	if err := f.muxer.Concat(ctx, manifest, output); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", services.Wrap(services.ErrConcatenation, "concat", "mux", output, err)
	}

	logger.Info("final video written",
		logging.String(logging.FieldEventType, "final_written"),
		logging.Int("clip_count", len(clips)),
		logging.String("path", output))
	return output, nil
}

// CollectClips lists the numbered .mp4 clips in dir in ascending numeric
// order. Hidden files and names without an embedded integer are skipped.
func CollectClips(dir string) ([]Clip, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	clips := make([]Clip, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.EqualFold(filepath.Ext(name), ".mp4") {
			continue
		}
		index, ok := artifacts.IndexFromName(name)
		if !ok {
			continue
		}
		path := filepath.Join(dir, name)
		if !fileutil.NonEmptyRegular(path) {
			continue
		}
		clips = append(clips, Clip{Index: index, Path: path})
	}
	sort.SliceStable(clips, func(i, j int) bool {
		if clips[i].Index != clips[j].Index {
			return clips[i].Index < clips[j].Index
		}
		return clips[i].Path < clips[j].Path
	})
	return clips, nil
}

// Manifest renders clips in the ffmpeg concat demuxer format.
func Manifest(clips []Clip) string {
	var b strings.Builder
	for _, clip := range clips {
		path := clip.Path
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		fmt.Fprintf(&b, "file '%s'\n", strings.ReplaceAll(path, "'", `'\''`))
	}
	return b.String()
}

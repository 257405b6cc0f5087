// Package artifacts maps (run, stage, line) to the deterministic on-disk paths
// that double as the pipeline's cache keys.
package artifacts

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"

	"storyboard/internal/story"
)

// Layout resolves artifact paths under a single run root:
//
//	{root}/audio/{runId}/audio_{index}.mp3
//	{root}/images/{runId}_image_{index}.png
//	{root}/video/{runId}/{index}.mp4
//	{root}/final_video/{runId}/final_video.mp4
//	{root}/cache/{runId}.json
type Layout struct {
	Root string
}

// NewLayout returns a Layout rooted at root.
func NewLayout(root string) Layout {
	return Layout{Root: filepath.Clean(root)}
}

// Path returns the expected artifact path for a per-line stage.
func (l Layout) Path(kind story.Kind, runID string, index int) string {
	switch kind {
	case story.KindAudio:
		return filepath.Join(l.AudioDir(runID), fmt.Sprintf("audio_%d.mp3", index))
	case story.KindImage:
		return filepath.Join(l.Root, "images", fmt.Sprintf("%s_image_%d.png", runID, index))
	case story.KindVideo:
		return filepath.Join(l.VideoDir(runID), fmt.Sprintf("%d.mp4", index))
	default:
		return ""
	}
}

// AudioDir is the run-scoped directory holding audio clips.
func (l Layout) AudioDir(runID string) string {
	return filepath.Join(l.Root, "audio", runID)
}

// ImageDir holds images for every run; names carry the run ID.
func (l Layout) ImageDir() string {
	return filepath.Join(l.Root, "images")
}

// VideoDir is the run-scoped directory holding per-line clips.
func (l Layout) VideoDir(runID string) string {
	return filepath.Join(l.Root, "video", runID)
}

// FinalDir is the run-scoped directory holding the concatenated video.
func (l Layout) FinalDir(runID string) string {
	return filepath.Join(l.Root, "final_video", runID)
}

// FinalVideo is the concatenated output for a run.
func (l Layout) FinalVideo(runID string) string {
	return filepath.Join(l.FinalDir(runID), "final_video.mp4")
}

// ConcatManifest is the ffmpeg concat list written next to the final video.
func (l Layout) ConcatManifest(runID string) string {
	return filepath.Join(l.FinalDir(runID), "concat_list.txt")
}

// CacheDir holds run records and lock files.
func (l Layout) CacheDir() string {
	return filepath.Join(l.Root, "cache")
}

// Record is the persisted JSON run record.
func (l Layout) Record(runID string) string {
	return filepath.Join(l.CacheDir(), runID+".json")
}

// Lock is the advisory lock file guarding a run.
func (l Layout) Lock(runID string) string {
	return filepath.Join(l.CacheDir(), runID+".lock")
}

// HistoryDB is the sqlite run index.
func (l Layout) HistoryDB() string {
	return filepath.Join(l.CacheDir(), "history.db")
}

// StageDirs returns the directories a run writes into, for creation up front.
func (l Layout) StageDirs(runID string) []string {
	return []string{
		l.AudioDir(runID),
		l.ImageDir(),
		l.VideoDir(runID),
		l.FinalDir(runID),
		l.CacheDir(),
	}
}

var indexPattern = regexp.MustCompile(`\d+`)

// IndexFromName extracts the first integer embedded in a file name.
func IndexFromName(name string) (int, bool) {
	match := indexPattern.FindString(filepath.Base(name))
	if match == "" {
		return 0, false
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	return n, true
}

package story

import (
	"fmt"
	"time"
)

// Kind identifies a per-line media stage.
type Kind string

const (
	KindAudio Kind = "audio"
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// MediaKinds lists the per-line stages in pipeline order.
var MediaKinds = []Kind{KindAudio, KindImage, KindVideo}

func (k Kind) String() string { return string(k) }

// Line is one narrative sentence and the artifacts produced for it so far.
type Line struct {
	Index  int    `json:"index"`
	Text   string `json:"text"`
	Source string `json:"source,omitempty"`
	Audio  string `json:"audio,omitempty"`
	Image  string `json:"image,omitempty"`
	Video  string `json:"video,omitempty"`
}

// Ref returns the artifact reference recorded for kind.
func (l Line) Ref(kind Kind) string {
	switch kind {
	case KindAudio:
		return l.Audio
	case KindImage:
		return l.Image
	case KindVideo:
		return l.Video
	default:
		return ""
	}
}

// SetRef records ref as the artifact for kind. Only the matching field changes.
func (l *Line) SetRef(kind Kind, ref string) {
	switch kind {
	case KindAudio:
		l.Audio = ref
	case KindImage:
		l.Image = ref
	case KindVideo:
		l.Video = ref
	}
}

// PromptTemplate decorates each line when composing the image prompt.
type PromptTemplate struct {
	Prefix string `json:"prefix,omitempty"`
	Suffix string `json:"suffix,omitempty"`
}

// Run is one pipeline invocation against one text source. It is also the
// shape of the persisted cache record.
type Run struct {
	ID           string         `json:"run_id"`
	SourcePath   string         `json:"source_path"`
	SourceDigest string         `json:"source_digest,omitempty"`
	Lines        []Line         `json:"lines"`
	Prompt       PromptTemplate `json:"prompt"`
	IgnoreCache  bool           `json:"-"`
	Cached       bool           `json:"-"`
	LastUpdated  time.Time      `json:"last_updated"`
	FinalVideo   string         `json:"final_video,omitempty"`
}

// NewRun builds a run around freshly ingested lines.
func NewRun(id, sourcePath, digest string, lines []Line, prompt PromptTemplate) *Run {
	return &Run{
		ID:           id,
		SourcePath:   sourcePath,
		SourceDigest: digest,
		Lines:        lines,
		Prompt:       prompt,
	}
}

// Completed counts lines that have an artifact for kind.
func (r *Run) Completed(kind Kind) int {
	n := 0
	for _, line := range r.Lines {
		if line.Ref(kind) != "" {
			n++
		}
	}
	return n
}

// Validate checks the index invariant: dense, zero-based, in slice order.
func (r *Run) Validate() error {
	for i, line := range r.Lines {
		if line.Index != i {
			return fmt.Errorf("line at position %d has index %d", i, line.Index)
		}
		if line.Text == "" {
			return fmt.Errorf("line %d has empty text", i)
		}
	}
	return nil
}

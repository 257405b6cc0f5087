package stage

import (
	"time"

	"storyboard/internal/story"
)

// LineFailure records one line that did not get an artifact.
type LineFailure struct {
	Kind  story.Kind
	Index int
	Err   error
}

// Report summarizes a stage pass.
type Report struct {
	Kind     story.Kind
	Produced int
	Reused   int
	Failures []LineFailure
	// PersistErr is the first record save failure seen during the pass.
	// It is informational; the run continues on in-memory state.
	PersistErr error
	Elapsed    time.Duration
}

// Failed reports whether any line failed.
func (r Report) Failed() bool {
	return len(r.Failures) > 0
}

// FailedIndices lists failing line indices in order.
func (r Report) FailedIndices() []int {
	out := make([]int, 0, len(r.Failures))
	for _, f := range r.Failures {
		out = append(out, f.Index)
	}
	return out
}

// Package stage runs one per-line media stage (audio, image or video) over a
// run's lines.
//
// For each line in index order the Runner either reuses the artifact already
// on disk at the line's expected path or asks the stage's Producer to create
// it. A failing line is recorded in the Report and skipped; it never stops
// the remaining lines. The run record is saved after the stage, and after
// every changed line when per-line checkpointing is on.
package stage

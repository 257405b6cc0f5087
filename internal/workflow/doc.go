// Package workflow drives one storyboard run from source text to final video.
//
// The Orchestrator walks a fixed state machine:
//
//	Init -> TextExtracted -> AudioDone -> ImageDone -> VideoDone -> Concatenated -> Done
//
// Init resolves the source, takes the per-run lock and either resumes the
// cached record (when the source digest still matches) or ingests the text
// afresh. The three media stages always run in order and always complete,
// even when individual lines fail; only concatenation failure, a missing
// source or an interrupt end a run early.
package workflow

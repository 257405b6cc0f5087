// Package story holds the narrative data model shared by every pipeline stage.
//
// A Run owns an ordered slice of Lines. Ingest is the only place Lines are
// created; later stages only fill in their own artifact reference on an
// existing Line, never reorder or resize the slice. ReadSource, Paraphrase and
// CSVToText are the text-side collaborators that run before any media stage.
package story

// Package history keeps a SQLite index of pipeline runs.
//
// The index is informational: it powers `storyboard runs` and resume-latest
// lookups. Run records under the cache directory and the artifacts on disk
// stay authoritative for resuming work.
package history

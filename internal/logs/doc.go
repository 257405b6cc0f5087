// Package logs reads per-run log files for `storyboard logs`.
//
// Last returns the final N lines with bounded memory; Follow polls from an
// offset and emits appended lines until its context ends.
package logs

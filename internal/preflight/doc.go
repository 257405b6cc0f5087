// Package preflight provides readiness checks for the filesystem paths and
// external services a storyboard run depends on.
//
// The run command calls RunAll and CheckSystemDeps before the first stage so a
// missing ffmpeg or unwritable run root fails fast instead of after every
// line has failed. The doctor command renders the same results as a table.
package preflight

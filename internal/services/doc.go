// Package services defines shared utilities consumed by the pipeline stages
// and the adapters that wrap external collaborators.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and line indices for
//     logging and error reports.
//   - Structured error markers plus the Wrap helper that classify failures
//     into fatal run-level errors (not found, configuration, concatenation)
//     and recovered ones (per-line production, cache persistence).
//   - Sub-packages adapting speech, image, caption, compose, and paraphrase
//     collaborators behind small interfaces so the core stays testable.
package services

// Package ffprobe decodes ffprobe JSON output for the media the pipeline
// produces: generated images (dimensions for caption fitting) and per-line
// clips (stream and duration checks).
package ffprobe

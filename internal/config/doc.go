// Package config loads, normalizes, and validates storyboard configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OPENROUTER_API_KEY. The Config type centralizes every knob the pipeline and
// CLI need: the artifact root, external synthesizer command templates, ffmpeg
// binaries, and the optional paraphrasing LLM.
package config

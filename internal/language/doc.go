// Package language normalizes the speech language setting into the ISO 639-1
// code speech synthesizers expect, accepting 3-letter codes, English names and
// region-qualified tags.
package language

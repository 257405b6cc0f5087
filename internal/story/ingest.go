package story

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// DefaultIgnorePrefix marks generation banners left in pasted model output.
const DefaultIgnorePrefix = "The AI response returned in"

// IngestOptions controls which raw lines are dropped.
type IngestOptions struct {
	IgnorePrefixes []string
}

// DefaultIngestOptions drops only the default banner.
func DefaultIngestOptions() IngestOptions {
	return IngestOptions{IgnorePrefixes: []string{DefaultIgnorePrefix}}
}

// Ingest splits raw text into Lines. Blank lines and lines starting with an
// ignore prefix are dropped; the rest get dense zero-based indices in order.
func Ingest(raw string, opts IngestOptions) []Line {
	raw = norm.NFC.String(raw)
	var lines []Line
	for _, candidate := range strings.Split(raw, "\n") {
		text := strings.TrimRightFunc(candidate, unicode.IsSpace)
		if strings.TrimSpace(text) == "" {
			continue
		}
		if hasIgnoredPrefix(text, opts.IgnorePrefixes) {
			continue
		}
		lines = append(lines, Line{Index: len(lines), Text: text, Source: text})
	}
	return lines
}

func hasIgnoredPrefix(text string, prefixes []string) bool {
	trimmed := strings.TrimLeft(text, " \t")
	for _, prefix := range prefixes {
		if prefix != "" && strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return false
}

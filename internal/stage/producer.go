package stage

import (
	"context"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"storyboard/internal/story"
)

// Producer creates one artifact for one line.
type Producer interface {
	Kind() story.Kind
	// Produce writes the artifact for line at output and returns its reference.
	Produce(ctx context.Context, line story.Line, output string) (string, error)
}

// ProducerFunc adapts a function to Producer.
type ProducerFunc struct {
	StageKind story.Kind
	Fn        func(ctx context.Context, line story.Line, output string) (string, error)
}

// Kind implements Producer.
func (p ProducerFunc) Kind() story.Kind { return p.StageKind }

// Produce implements Producer.
func (p ProducerFunc) Produce(ctx context.Context, line story.Line, output string) (string, error) {
	return p.Fn(ctx, line, output)
}

var titleCaser = cases.Title(language.Und)

// Label renders a stage kind for console output ("audio" -> "Audio").
func Label(kind story.Kind) string {
	return titleCaser.String(string(kind))
}

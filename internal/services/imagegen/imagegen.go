// Package imagegen generates one illustration per line with an external
// text-to-image command, optionally burning the line text into the result.
package imagegen

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"storyboard/internal/fileutil"
	"storyboard/internal/services"
	"storyboard/internal/services/command"
	"storyboard/internal/story"
)

// Overlay draws caption text onto an existing image in place.
type Overlay interface {
	Apply(ctx context.Context, text, imagePath string) error
}

// Generator implements stage.Producer for the image stage.
type Generator struct {
	template []string
	prompt   story.PromptTemplate
	overlay  Overlay
	runner   command.Runner
}

// Option configures a Generator.
type Option func(*Generator)

// WithCommandRunner injects a command runner (primarily for tests).
func WithCommandRunner(r command.Runner) Option {
	return func(g *Generator) {
		if r != nil {
			g.runner = r
		}
	}
}

// WithOverlay enables caption burning after generation.
func WithOverlay(o Overlay) Option {
	return func(g *Generator) {
		g.overlay = o
	}
}

// New constructs a Generator. Supported placeholders are {prompt}, {output},
// {name} (output base name without extension) and {index}.
func New(template []string, prompt story.PromptTemplate, opts ...Option) (*Generator, error) {
	if len(template) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "image", "init", "image command is empty", nil)
	}
	g := &Generator{
		template: append([]string(nil), template...),
		prompt:   prompt,
		runner:   command.Exec{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Kind implements stage.Producer.
func (g *Generator) Kind() story.Kind { return story.KindImage }

// Prompt decorates text with the template as "{prefix}, {text} {suffix}".
// Colons in text are replaced with spaces.
func Prompt(tpl story.PromptTemplate, text string) string {
	text = strings.ReplaceAll(strings.TrimSpace(text), ":", " ")
	prefix := strings.TrimSpace(tpl.Prefix)
	suffix := strings.TrimSpace(tpl.Suffix)
	var b strings.Builder
	if prefix != "" {
		b.WriteString(prefix)
		b.WriteString(", ")
	}
	b.WriteString(text)
	if suffix != "" {
		b.WriteString(" ")
		b.WriteString(suffix)
	}
	return b.String()
}

// Produce generates the image for line at output.
func (g *Generator) Produce(ctx context.Context, line story.Line, output string) (string, error) {
	if strings.TrimSpace(line.Text) == "" {
		return "", services.Wrap(services.ErrProduction, "image", "generate", "line has no text", nil)
	}
	name := strings.TrimSuffix(filepath.Base(output), filepath.Ext(output))
	partial := fileutil.PartialPath(output)
	argv := command.Expand(g.template, map[string]string{
		"prompt": Prompt(g.prompt, line.Text),
		"output": partial,
		"name":   name,
		"index":  strconv.Itoa(line.Index),
	})
	binary, args, err := command.Split(argv)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "image", "generate", "invalid command", err)
	}
	if _, err := g.runner.Run(ctx, binary, args); err != nil {
		_ = os.Remove(partial)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		return "", services.Wrap(services.ErrProduction, "image", "generate", binary, err)
	}
	if err := fileutil.Promote(partial, output); err != nil {
		return "", services.Wrap(services.ErrProduction, "image", "generate", "", err)
	}
	if g.overlay != nil {
		if err := g.overlay.Apply(ctx, line.Text, output); err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", services.Wrap(services.ErrProduction, "image", "caption", "overlay failed", err)
		}
	}
	return output, nil
}

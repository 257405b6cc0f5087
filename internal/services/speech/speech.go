// Package speech synthesizes one audio clip per line with an external
// text-to-speech command.
package speech

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"

	"storyboard/internal/fileutil"
	"storyboard/internal/services"
	"storyboard/internal/services/command"
	"storyboard/internal/story"
)

// Synthesizer implements stage.Producer for the audio stage.
type Synthesizer struct {
	template []string
	language string
	runner   command.Runner
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithCommandRunner injects a command runner (primarily for tests).
func WithCommandRunner(r command.Runner) Option {
	return func(s *Synthesizer) {
		if r != nil {
			s.runner = r
		}
	}
}

// New constructs a Synthesizer from an argv template. Supported placeholders
// are {text}, {output}, {lang} and {index}.
func New(template []string, language string, opts ...Option) (*Synthesizer, error) {
	if len(template) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "audio", "init", "speech command is empty", nil)
	}
	s := &Synthesizer{
		template: append([]string(nil), template...),
		language: strings.TrimSpace(language),
		runner:   command.Exec{},
	}
	if s.language == "" {
		s.language = "en"
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Kind implements stage.Producer.
func (s *Synthesizer) Kind() story.Kind { return story.KindAudio }

// Produce writes the spoken form of line.Text to output.
func (s *Synthesizer) Produce(ctx context.Context, line story.Line, output string) (string, error) {
	text := strings.TrimSpace(line.Text)
	if text == "" {
		return "", services.Wrap(services.ErrProduction, "audio", "synthesize", "line has no text", nil)
	}
	partial := fileutil.PartialPath(output)
	argv := command.Expand(s.template, map[string]string{
		"text":   text,
		"output": partial,
		"lang":   s.language,
		"index":  strconv.Itoa(line.Index),
	})
	binary, args, err := command.Split(argv)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "audio", "synthesize", "invalid command", err)
	}
	if _, err := s.runner.Run(ctx, binary, args); err != nil {
		_ = os.Remove(partial)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		return "", services.Wrap(services.ErrProduction, "audio", "synthesize", binary, err)
	}
	if err := fileutil.Promote(partial, output); err != nil {
		return "", services.Wrap(services.ErrProduction, "audio", "synthesize", "", err)
	}
	return output, nil
}

// Package command runs external collaborator binaries and expands their argv
// templates.
package command

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Runner abstracts command execution for testability.
type Runner interface {
	Run(ctx context.Context, binary string, args []string) ([]byte, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, binary string, args []string) ([]byte, error)

// Run implements Runner.
func (f RunnerFunc) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	return f(ctx, binary, args)
}

// Exec runs commands with os/exec. The process is killed when ctx is done.
type Exec struct{}

// Run executes binary with args and returns combined output. A non-zero exit
// becomes an error carrying the tail of the output.
func (Exec) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return output, ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return output, fmt.Errorf("%s exited with status %d: %s", binary, exitErr.ExitCode(), Tail(output, 400))
		}
		return output, fmt.Errorf("run %s: %w", binary, err)
	}
	return output, nil
}

// Expand substitutes {name} placeholders in every template element. Each
// element stays a single argument, so values are never re-split by a shell.
func Expand(template []string, values map[string]string) []string {
	pairs := make([]string, 0, len(values)*2)
	for key, value := range values {
		pairs = append(pairs, "{"+key+"}", value)
	}
	replacer := strings.NewReplacer(pairs...)
	out := make([]string, len(template))
	for i, arg := range template {
		out[i] = replacer.Replace(arg)
	}
	return out
}

// Split separates an expanded template into binary and arguments.
func Split(argv []string) (string, []string, error) {
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return "", nil, errors.New("empty command")
	}
	return argv[0], argv[1:], nil
}

// Tail returns at most limit trailing bytes of output, trimmed.
func Tail(output []byte, limit int) string {
	text := strings.TrimSpace(string(output))
	if limit > 0 && len(text) > limit {
		text = "..." + text[len(text)-limit:]
	}
	return text
}

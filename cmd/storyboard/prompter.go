package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// prompter asks yes/no and free-text questions. When stdin is not a terminal
// every question takes its default without blocking.
type prompter struct {
	in          *bufio.Reader
	out         io.Writer
	interactive bool
}

func newPrompter(in io.Reader, out io.Writer, interactive bool) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out, interactive: interactive}
}

func (p *prompter) confirm(question string, def bool) bool {
	if !p.interactive {
		return def
	}
	hint := "[y/N]"
	if def {
		hint = "[Y/n]"
	}
	fmt.Fprintf(p.out, "%s %s ", question, hint)
	answer, err := p.in.ReadString('\n')
	if err != nil && answer == "" {
		return def
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	switch {
	case answer == "":
		return def
	case strings.HasPrefix(answer, "y"):
		return true
	case strings.HasPrefix(answer, "n"):
		return false
	default:
		return def
	}
}

func (p *prompter) ask(question, def string) string {
	if !p.interactive {
		return def
	}
	fmt.Fprintf(p.out, "%s: ", question)
	answer, err := p.in.ReadString('\n')
	if err != nil && answer == "" {
		return def
	}
	if answer = strings.TrimSpace(answer); answer != "" {
		return answer
	}
	return def
}

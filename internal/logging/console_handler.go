package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// consoleHandler renders one line per record:
//
//	2026-01-02 15:04:05 INFO workflow [audio #2]: line produced path=/runs/a.mp3
//
// component, stage and line_index are lifted out of the key=value tail.
type consoleHandler struct {
	mu        *sync.Mutex
	w         io.Writer
	level     *slog.LevelVar
	addSource bool
	prefix    string
	attrs     []slog.Attr
}

func newConsoleHandler(w io.Writer, level *slog.LevelVar, addSource bool) *consoleHandler {
	return &consoleHandler{mu: &sync.Mutex{}, w: w, level: level, addSource: addSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	var head lineHead
	var tail []string
	// Stored attrs already carry their group prefix.
	for _, attr := range h.attrs {
		h.render(&head, &tail, "", attr)
	}
	r.Attrs(func(attr slog.Attr) bool {
		h.render(&head, &tail, h.prefix, attr)
		return true
	})

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	var buf bytes.Buffer
	buf.WriteString(ts.Format(time.DateTime))
	buf.WriteByte(' ')
	buf.WriteString(levelLabel(r.Level))
	if label := head.String(); label != "" {
		buf.WriteByte(' ')
		buf.WriteString(label)
	}
	buf.WriteString(": ")
	buf.WriteString(strings.TrimSpace(r.Message))
	if h.addSource && r.PC != 0 {
		if src := r.Source(); src != nil {
			fmt.Fprintf(&buf, " [%s:%d]", filepath.Base(src.File), src.Line)
		}
	}
	for _, field := range tail {
		buf.WriteByte(' ')
		buf.WriteString(field)
	}
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

func (h *consoleHandler) render(head *lineHead, tail *[]string, prefix string, attr slog.Attr) {
	if attr.Equal(slog.Attr{}) {
		return
	}
	value := attr.Value.Resolve()
	if value.Kind() == slog.KindGroup {
		next := prefix
		if attr.Key != "" {
			next = prefix + attr.Key + "."
		}
		for _, member := range value.Group() {
			h.render(head, tail, next, member)
		}
		return
	}
	if prefix == "" && head.take(attr.Key, value) {
		return
	}
	*tail = append(*tail, prefix+attr.Key+"="+formatValue(value))
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	clone.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	clone.attrs = append(clone.attrs, h.attrs...)
	for _, attr := range attrs {
		if h.prefix != "" {
			attr.Key = h.prefix + attr.Key
		}
		clone.attrs = append(clone.attrs, attr)
	}
	return &clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

// lineHead holds the fields shown before the message.
type lineHead struct {
	component string
	stage     string
	line      string
}

func (l *lineHead) take(key string, value slog.Value) bool {
	switch key {
	case FieldComponent:
		l.component = value.String()
	case FieldStage:
		l.stage = value.String()
	case FieldLineIndex:
		l.line = "#" + value.String()
	default:
		return false
	}
	return true
}

func (l lineHead) String() string {
	scope := strings.TrimSpace(l.stage + " " + l.line)
	switch {
	case scope == "":
		return l.component
	case l.component == "":
		return "[" + scope + "]"
	default:
		return l.component + " [" + scope + "]"
	}
}

func formatValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	case slog.KindString:
		return quoteIfNeeded(v.String())
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return quoteIfNeeded(err.Error())
		}
		return quoteIfNeeded(fmt.Sprint(v.Any()))
	default:
		return v.String()
	}
}

func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
		return strconv.Quote(s)
	}
	return s
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

package logging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/isseis/bldd/internal/terminal"
)

// ErrInteractiveHandlerWriterRequired is returned when no writer is given.
var ErrInteractiveHandlerWriterRequired = errors.New("InteractiveHandler: Writer is required")

// InteractiveHandler writes compact, optionally colored lines for a human
// at a terminal. It is disabled in non-interactive runs.
type InteractiveHandler struct {
	shared *interactiveState
	attrs  []slog.Attr
	groups []string
}

type interactiveState struct {
	mu          sync.Mutex
	writer      io.Writer
	level       slog.Leveler
	interactive bool
	formatter   *MessageFormatter
	logFile     string
}

// InteractiveHandlerOptions configures the InteractiveHandler.
type InteractiveHandlerOptions struct {
	Level        slog.Leveler
	Writer       io.Writer
	Capabilities terminal.Capabilities
	// LogFile, when set, is mentioned after error-level lines.
	LogFile string
}

// NewInteractiveHandler creates an InteractiveHandler.
func NewInteractiveHandler(opts InteractiveHandlerOptions) (*InteractiveHandler, error) {
	if opts.Writer == nil {
		return nil, ErrInteractiveHandlerWriterRequired
	}
	level := opts.Level
	if level == nil {
		level = slog.LevelInfo
	}
	return &InteractiveHandler{shared: &interactiveState{
		writer:      opts.Writer,
		level:       level,
		interactive: opts.Capabilities.IsInteractive(),
		formatter:   NewMessageFormatter(opts.Capabilities.SupportsColor()),
		logFile:     opts.LogFile,
	}}, nil
}

// Enabled implements slog.Handler.
func (h *InteractiveHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.shared.interactive && level >= h.shared.level.Level()
}

// Handle implements slog.Handler. Concurrent calls never interleave lines.
func (h *InteractiveHandler) Handle(_ context.Context, r slog.Record) error {
	if !h.shared.interactive {
		return nil
	}

	prefix := strings.Join(h.groups, ".")
	attrs := h.attrs
	if prefix != "" {
		attrs = make([]slog.Attr, len(h.attrs))
		for i, a := range h.attrs {
			attrs[i] = slog.Attr{Key: prefix + "." + a.Key, Value: a.Value}
		}
	}

	var sb strings.Builder
	sb.WriteString(h.shared.formatter.Format(r, attrs))
	sb.WriteByte('\n')
	if r.Level >= slog.LevelError {
		if hint := h.shared.formatter.FormatLogFileHint(h.shared.logFile); hint != "" {
			sb.WriteString(hint)
			sb.WriteByte('\n')
		}
	}

	h.shared.mu.Lock()
	defer h.shared.mu.Unlock()
	_, err := io.WriteString(h.shared.writer, sb.String())
	return err
}

// WithAttrs implements slog.Handler.
func (h *InteractiveHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	return &InteractiveHandler{
		shared: h.shared,
		attrs:  append(append([]slog.Attr(nil), h.attrs...), attrs...),
		groups: h.groups,
	}
}

// WithGroup implements slog.Handler.
func (h *InteractiveHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &InteractiveHandler{
		shared: h.shared,
		attrs:  h.attrs,
		groups: append(append([]string(nil), h.groups...), name),
	}
}

package logging

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/isseis/bldd/internal/terminal"
)

// ErrConditionalTextHandlerWriterRequired is returned when no writer is given.
var ErrConditionalTextHandlerWriterRequired = errors.New("ConditionalTextHandler: Writer is required")

// ConditionalTextHandler wraps slog.TextHandler and stays silent in
// interactive runs, where InteractiveHandler owns the console.
type ConditionalTextHandler struct {
	interactive bool
	text        slog.Handler
}

// ConditionalTextHandlerOptions configures the ConditionalTextHandler.
type ConditionalTextHandlerOptions struct {
	Capabilities       terminal.Capabilities
	TextHandlerOptions *slog.HandlerOptions
	Writer             io.Writer
}

// NewConditionalTextHandler creates a ConditionalTextHandler.
func NewConditionalTextHandler(opts ConditionalTextHandlerOptions) (*ConditionalTextHandler, error) {
	if opts.Writer == nil {
		return nil, ErrConditionalTextHandlerWriterRequired
	}
	return &ConditionalTextHandler{
		interactive: opts.Capabilities.IsInteractive(),
		text:        slog.NewTextHandler(opts.Writer, opts.TextHandlerOptions),
	}, nil
}

// Enabled implements slog.Handler.
func (h *ConditionalTextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return !h.interactive && h.text.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *ConditionalTextHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.interactive {
		return nil
	}
	return h.text.Handle(ctx, r)
}

// WithAttrs implements slog.Handler.
func (h *ConditionalTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ConditionalTextHandler{interactive: h.interactive, text: h.text.WithAttrs(attrs)}
}

// WithGroup implements slog.Handler.
func (h *ConditionalTextHandler) WithGroup(name string) slog.Handler {
	return &ConditionalTextHandler{interactive: h.interactive, text: h.text.WithGroup(name)}
}

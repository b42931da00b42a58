// Package color wraps text in ANSI escape sequences for console diagnostics.
//
//nolint:revive // package name conflicts with standard library
package color

import "log/slog"

const (
	resetCode  = "\033[0m"
	boldCode   = "\033[1m"
	grayCode   = "\033[90m"
	redCode    = "\033[31m"
	greenCode  = "\033[32m"
	yellowCode = "\033[33m"
	cyanCode   = "\033[36m"
)

// Color wraps text in an escape sequence.
type Color func(text string) string

// NewColor returns a Color for the given ANSI code.
func NewColor(ansiCode string) Color {
	return func(text string) string {
		return ansiCode + text + resetCode
	}
}

// None returns text unchanged.
func None(text string) string { return text }

// Predefined colors.
var (
	Bold   = NewColor(boldCode)
	Gray   = NewColor(grayCode)
	Red    = NewColor(redCode)
	Green  = NewColor(greenCode)
	Yellow = NewColor(yellowCode)
	Cyan   = NewColor(cyanCode)
)

// ForLevel picks the color of a log level tag.
func ForLevel(level slog.Level) Color {
	switch {
	case level >= slog.LevelError:
		return Red
	case level >= slog.LevelWarn:
		return Yellow
	case level >= slog.LevelInfo:
		return Green
	default:
		return Gray
	}
}

// If returns c when enabled is true and None otherwise.
func If(enabled bool, c Color) Color {
	if enabled {
		return c
	}
	return None
}

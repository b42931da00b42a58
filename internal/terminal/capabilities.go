// Package terminal decides how bldd talks to the console: whether the run
// is interactive and whether diagnostics may use ANSI colors.
package terminal

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// Env looks up an environment variable, like os.LookupEnv.
type Env func(key string) (string, bool)

// Options holds command line overrides and the probes used for detection.
// Nil probes use the process environment and stderr.
type Options struct {
	ForceInteractive    bool
	ForceNonInteractive bool
	ForceColor          bool
	DisableColor        bool

	LookupEnv  Env
	IsTerminal func() bool
}

// Capabilities is the outcome of detection. The zero value is a
// non-interactive console without color.
type Capabilities struct {
	interactive bool
	color       bool
	explicit    bool
}

// Detect evaluates opts once. Color is decided in this order: command line
// flags, CLICOLOR_FORCE, NO_COLOR, then (interactive runs only) CLICOLOR and
// the TERM capability check.
func Detect(opts Options) Capabilities {
	env := opts.LookupEnv
	if env == nil {
		env = os.LookupEnv
	}
	isTerminal := opts.IsTerminal
	if isTerminal == nil {
		isTerminal = stderrIsTerminal
	}

	c := Capabilities{interactive: detectInteractive(opts, env, isTerminal)}

	if pref, ok := explicitColorPreference(opts, env); ok {
		c.explicit = true
		c.color = pref
		return c
	}
	if !c.interactive || !termSupportsColor(env) {
		return c
	}
	if v, ok := env("CLICOLOR"); ok && v != "" {
		c.color = isTruthy(v)
		return c
	}
	c.color = true
	return c
}

// IsInteractive reports whether progress and diagnostics go to a human.
func (c Capabilities) IsInteractive() bool { return c.interactive }

// SupportsColor reports whether ANSI colors may be written.
func (c Capabilities) SupportsColor() bool { return c.color }

// HasExplicitUserPreference reports whether the color decision came from a
// flag or a forcing environment variable rather than detection.
func (c Capabilities) HasExplicitUserPreference() bool { return c.explicit }

func stderrIsTerminal() bool {
	return term.IsTerminal(int(os.Stderr.Fd())) //nolint:gosec // fd fits in int
}

// isTruthy accepts "1", "true" and "yes" in any case.
func isTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

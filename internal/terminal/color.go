package terminal

import "strings"

// colorTerminals are TERM values, or prefixes before a '-', known to
// handle basic ANSI colors.
var colorTerminals = []string{
	"xterm", "screen", "tmux", "rxvt", "vt100", "vt220", "ansi", "linux", "cygwin", "putty",
}

func termSupportsColor(env Env) bool {
	v, _ := env("TERM")
	name := strings.ToLower(strings.TrimSpace(v))
	if name == "" || name == "dumb" {
		return false
	}
	for _, t := range colorTerminals {
		if name == t || strings.HasPrefix(name, t+"-") {
			return true
		}
	}
	return false
}

package logging

import (
	"log/slog"
	"strings"
	"time"

	"github.com/isseis/bldd/internal/color"
)

// priorityKeys are the attributes shown on the console, in this order.
// Everything else only reaches the JSON log file.
var priorityKeys = []string{"path", "library", "reason", "error", "dir", "output", "files", "libraries"}

// MessageFormatter renders records as single console lines.
type MessageFormatter struct {
	useColor bool
}

// NewMessageFormatter returns a formatter; useColor enables ANSI colors.
func NewMessageFormatter(useColor bool) *MessageFormatter {
	return &MessageFormatter{useColor: useColor}
}

// Format renders "LEVEL message key=value ..." with only priority keys.
func (f *MessageFormatter) Format(record slog.Record, extra []slog.Attr) string {
	var sb strings.Builder
	sb.WriteString(f.level(record.Level))
	sb.WriteByte(' ')
	sb.WriteString(record.Message)

	attrs := make(map[string]slog.Value, record.NumAttrs()+len(extra))
	collect := func(a slog.Attr) bool {
		key := a.Key
		if i := strings.LastIndexByte(key, '.'); i >= 0 {
			key = key[i+1:]
		}
		if _, dup := attrs[key]; !dup {
			attrs[key] = a.Value
		}
		return true
	}
	for _, a := range extra {
		collect(a)
	}
	record.Attrs(collect)

	for _, key := range priorityKeys {
		v, ok := attrs[key]
		if !ok {
			continue
		}
		sb.WriteByte(' ')
		sb.WriteString(color.If(f.useColor, color.Gray)(key + "="))
		sb.WriteString(formatValue(v))
	}
	return sb.String()
}

// FormatLogFileHint points the user at the JSON log for details.
func (f *MessageFormatter) FormatLogFileHint(logFile string) string {
	if logFile == "" {
		return ""
	}
	return color.If(f.useColor, color.Cyan)("  see "+logFile) + " for details"
}

func (f *MessageFormatter) level(level slog.Level) string {
	var tag string
	switch {
	case level >= slog.LevelError:
		tag = "ERROR"
	case level >= slog.LevelWarn:
		tag = "WARN "
	case level >= slog.LevelInfo:
		tag = "INFO "
	default:
		tag = "DEBUG"
	}
	if f.useColor {
		return color.ForLevel(level)(tag)
	}
	return "[" + tag + "]"
}

func formatValue(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	case slog.KindGroup:
		parts := make([]string, 0, len(v.Group()))
		for _, a := range v.Group() {
			parts = append(parts, a.Key+"="+formatValue(a.Value))
		}
		return "{" + strings.Join(parts, ",") + "}"
	default:
		s := v.String()
		if strings.ContainsAny(s, " \t\"") {
			return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
		}
		return s
	}
}

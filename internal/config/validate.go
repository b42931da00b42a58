package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/isseis/bldd/internal/elfinspect"
	"github.com/isseis/bldd/internal/report"
	"github.com/samber/lo"
)

// Settings are validated, typed settings.
type Settings struct {
	Dir      string
	Libs     []string
	Arch     elfinspect.ArchFilter
	Output   string
	Format   report.Format
	Workers  int
	LogLevel slog.Level
	LogDir   string
}

// Validate checks c and converts it to Settings.
func (c Config) Validate() (Settings, error) {
	s := Settings{
		Dir:     c.Dir,
		Libs:    lo.Uniq(SplitList(c.Libs...)),
		Output:  c.Output,
		Workers: c.Workers,
		LogDir:  c.LogDir,
	}

	if c.Dir == "" {
		return s, ErrMissingDirectory
	}
	info, err := os.Stat(c.Dir)
	if err != nil {
		return s, fmt.Errorf("%w: %w", ErrInvalidDirectory, err)
	}
	if !info.IsDir() {
		return s, fmt.Errorf("%w: %s", ErrInvalidDirectory, c.Dir)
	}

	if s.Arch, err = elfinspect.ParseArchFilter(c.Arch); err != nil {
		return s, &InvalidValueError{Key: KeyArch, Value: c.Arch, Err: err}
	}
	if s.Format, err = report.ParseFormat(c.Format); err != nil {
		return s, &InvalidValueError{Key: KeyFormat, Value: c.Format, Err: err}
	}
	if c.Workers < 1 {
		return s, &InvalidValueError{Key: KeyWorkers, Value: fmt.Sprint(c.Workers), Err: ErrInvalidWorkers}
	}
	if s.LogLevel, err = ParseLogLevel(c.LogLevel); err != nil {
		return s, &InvalidValueError{Key: KeyLogLevel, Value: c.LogLevel, Err: err}
	}
	if s.Output == "" {
		s.Output = DefaultOutput
	}
	return s, nil
}

// ParseLogLevel accepts debug, info, warn and error, case-insensitively.
func ParseLogLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLogLevel, name)
	}
	return level, nil
}

// Package main provides bldd, a backward ldd: it scans a directory for ELF
// executables and reports which of them need each shared library.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/isseis/bldd/internal/bootstrap"
	"github.com/isseis/bldd/internal/config"
	"github.com/isseis/bldd/internal/discovery"
	"github.com/isseis/bldd/internal/elfinspect"
	"github.com/isseis/bldd/internal/report"
	"github.com/isseis/bldd/internal/terminal"
	"github.com/isseis/bldd/internal/usage"
	_ "go.uber.org/automaxprocs"
)

var (
	errTooManyModes = errors.New("-quiet and -interactive are mutually exclusive")
	errColorModes   = errors.New("-color and -no-color are mutually exclusive")

	// environ is swapped in tests.
	environ = os.Environ
)

// listFlag collects a repeatable, comma-separated flag.
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(v string) error {
	*l = append(*l, config.SplitList(v)...)
	return nil
}

type cliOptions struct {
	configFile string
	envFile    string
	overrides  map[string]string
	libs       []string
	terminal   terminal.Options
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, fs, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		printUsage(fs, stderr)
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	settings, err := loadSettings(opts)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	runID := bootstrap.NewRunID()
	logger, err := bootstrap.SetupLogger(bootstrap.LoggerConfig{
		Level:    settings.LogLevel,
		LogDir:   settings.LogDir,
		RunID:    runID,
		Console:  stderr,
		Terminal: opts.terminal,
	})
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: failed to set up logging: %v\n", err)
		return 1
	}
	defer func() {
		if err := logger.Close(); err != nil {
			_, _ = fmt.Fprintf(stderr, "Warning: failed to close log file: %v\n", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return scan(ctx, settings, runID, stdout, stderr)
}

func parseArgs(args []string, stderr io.Writer) (*cliOptions, *flag.FlagSet, error) {
	var (
		libs                     listFlag
		quiet, interactive       bool
		forceColor, disableColor bool
	)
	opts := &cliOptions{overrides: make(map[string]string)}

	fs := flag.NewFlagSet("bldd", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { printUsage(fs, stderr) }

	fs.StringVar(&opts.configFile, "config", "", "Path to a TOML config file")
	fs.StringVar(&opts.envFile, "env-file", "", "Path to a file with BLDD_* variables")
	fs.Var(&libs, "libs", "Library to look for; repeatable, comma-separated (default: all libraries)")
	fs.Var(&libs, "l", "Short alias for -libs")

	// Settings that can also come from the config file or environment are
	// recorded only when given, so unset flags do not mask lower layers.
	setting := func(key, name, alias, help string) {
		fs.Func(name, help, func(v string) error { opts.overrides[key] = v; return nil })
		if alias != "" {
			fs.Func(alias, "Short alias for -"+name, func(v string) error { opts.overrides[key] = v; return nil })
		}
	}
	setting(config.KeyDir, "dir", "d", "Directory to scan (required)")
	setting(config.KeyArch, "arch", "a", "Architecture filter: "+strings.Join(elfinspect.ArchNames(), ", "))
	setting(config.KeyOutput, "output", "o", "Report path, '-' for stdout (default: "+config.DefaultOutput+")")
	setting(config.KeyFormat, "format", "f", "Report format: "+formatNames())
	setting(config.KeyWorkers, "workers", "", "Number of files inspected concurrently (default: GOMAXPROCS)")
	setting(config.KeyLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	setting(config.KeyLogDir, "log-dir", "", "Directory for per-run JSON log files")

	fs.BoolVar(&quiet, "quiet", false, "Force non-interactive console output")
	fs.BoolVar(&interactive, "interactive", false, "Force interactive console output")
	fs.BoolVar(&forceColor, "color", false, "Force colored console output")
	fs.BoolVar(&disableColor, "no-color", false, "Disable colored console output")

	if err := fs.Parse(args); err != nil {
		return nil, fs, err
	}
	if quiet && interactive {
		return nil, fs, errTooManyModes
	}
	if forceColor && disableColor {
		return nil, fs, errColorModes
	}

	opts.libs = append([]string(libs), config.SplitList(fs.Args()...)...)
	opts.terminal = terminal.Options{
		ForceInteractive:    interactive,
		ForceNonInteractive: quiet,
		ForceColor:          forceColor,
		DisableColor:        disableColor,
	}
	return opts, fs, nil
}

func loadSettings(opts *cliOptions) (config.Settings, error) {
	cfg, err := config.Load(config.Sources{
		ConfigFile: opts.configFile,
		EnvFile:    opts.envFile,
		Environ:    environ(),
	})
	if err != nil {
		return config.Settings{}, err
	}
	for _, key := range config.Keys() {
		if v, ok := opts.overrides[key]; ok {
			if err := cfg.Set(key, v); err != nil {
				return config.Settings{}, fmt.Errorf("-%s: %w", strings.ReplaceAll(key, "_", "-"), err)
			}
		}
	}
	if len(opts.libs) > 0 {
		cfg.Libs = opts.libs
	}
	return cfg.Validate()
}

func scan(ctx context.Context, s config.Settings, runID string, stdout, stderr io.Writer) int {
	slog.Info("Scanning directory", "dir", s.Dir, "arch", s.Arch.String(), "libraries", len(s.Libs))

	paths, err := discovery.Collect(ctx, s.Dir)
	if err != nil {
		slog.Error("Failed to scan directory", "dir", s.Dir, "error", err)
		return 1
	}

	agg := usage.New(usage.Options{
		TargetLibs: s.Libs,
		Arch:       s.Arch,
		Workers:    s.Workers,
	})
	ix, stats := agg.Aggregate(ctx, paths)
	if ctx.Err() != nil {
		slog.Warn("Scan interrupted; report covers inspected files only", "files", stats.Files)
	}

	rep := report.New(ix, stats, agg.Targets())
	rep.RunID = runID
	rep.Root = s.Dir
	rep.Arch = s.Arch.String()
	for _, lib := range rep.Missing {
		slog.Warn("No scanned executable uses library", "library", lib)
	}

	if err := rep.WriteFile(s.Output, s.Format, stdout); err != nil {
		slog.Error("Failed to write report", "output", s.Output, "error", err)
		return 1
	}

	summary := stdout
	if s.Output == report.Stdout {
		summary = stderr
	}
	printSummary(summary, rep, stats, s.Output)
	return 0
}

func printSummary(w io.Writer, rep *report.Report, stats usage.Stats, output string) {
	_, _ = fmt.Fprintf(w, "Scanned %s files: %s indexed, %s skipped\n",
		humanize.Comma(int64(stats.Files)),
		humanize.Comma(int64(stats.Indexed)),
		humanize.Comma(int64(stats.SkippedTotal())))
	_, _ = fmt.Fprintf(w, "Found %s libraries with %s usages\n",
		humanize.Comma(int64(len(rep.Entries))),
		humanize.Comma(int64(rep.TotalUsages())))
	if problems := stats.Skipped[usage.SkipMalformed] + stats.Skipped[usage.SkipIOFailure]; problems > 0 || stats.Warnings > 0 {
		_, _ = fmt.Fprintf(w, "Warning: %d files could not be read, %d had incomplete dependency information\n",
			problems, stats.Warnings)
	}
	if output == report.Stdout {
		return
	}
	if info, err := os.Stat(output); err == nil {
		_, _ = fmt.Fprintf(w, "Report saved to %s (%s)\n", output, humanize.Bytes(uint64(info.Size()))) //nolint:gosec // size is non-negative
		return
	}
	_, _ = fmt.Fprintf(w, "Report saved to %s\n", output)
}

func formatNames() string {
	names := make([]string, 0, len(report.Formats()))
	for _, f := range report.Formats() {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}

func printUsage(fs *flag.FlagSet, w io.Writer) {
	if fs == nil {
		return
	}
	_, _ = fmt.Fprintf(w, "Usage: %s -d <dir> [flags] [library...]\n", filepath.Base(os.Args[0]))
	fs.PrintDefaults()
}

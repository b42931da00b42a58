// Package bootstrap wires process-wide concerns at startup.
package bootstrap

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/isseis/bldd/internal/logging"
	"github.com/isseis/bldd/internal/safefileio"
	"github.com/isseis/bldd/internal/terminal"
)

const (
	logDirPerm  = 0o750
	logFilePerm = 0o600

	logFileTimestamp = "20060102T150405Z"

	// schemaVersion identifies the layout of JSON log lines.
	schemaVersion = 1
)

// LoggerConfig holds all configuration for logger setup.
type LoggerConfig struct {
	Level  slog.Level
	LogDir string
	RunID  string
	// Console receives human-oriented output; defaults to os.Stderr.
	Console  io.Writer
	Terminal terminal.Options
}

// Logger is the installed logger and the resources behind it.
type Logger struct {
	*slog.Logger
	LogFile      string
	Capabilities terminal.Capabilities
	file         io.Closer
}

// Close flushes and closes the JSON log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// NewRunID returns a fresh identifier for one invocation.
func NewRunID() string {
	return uuid.NewString()
}

// SetupLogger builds the handler chain and installs it as the slog default:
// the interactive handler for terminals, a text handler otherwise, and a
// JSON file handler when LogDir is set.
func SetupLogger(cfg LoggerConfig) (*Logger, error) {
	console := cfg.Console
	if console == nil {
		console = os.Stderr
	}
	if cfg.RunID == "" {
		cfg.RunID = NewRunID()
	}
	caps := terminal.Detect(cfg.Terminal)

	var (
		fileHandler slog.Handler
		logFile     string
		closer      io.Closer
	)
	if cfg.LogDir != "" {
		f, path, err := openLogFile(cfg.LogDir, cfg.RunID, time.Now())
		if err != nil {
			return nil, err
		}
		logFile, closer = path, f
		fileHandler = slog.NewJSONHandler(f, &slog.HandlerOptions{Level: cfg.Level}).WithAttrs([]slog.Attr{
			slog.String("hostname", hostname()),
			slog.Int("pid", os.Getpid()),
			slog.Int("schema_version", schemaVersion),
			slog.String("run_id", cfg.RunID),
		})
	}

	interactive, err := logging.NewInteractiveHandler(logging.InteractiveHandlerOptions{
		Level:        cfg.Level,
		Writer:       console,
		Capabilities: caps,
		LogFile:      logFile,
	})
	if err != nil {
		return nil, closeOnError(closer, fmt.Errorf("failed to create interactive handler: %w", err))
	}
	text, err := logging.NewConditionalTextHandler(logging.ConditionalTextHandlerOptions{
		Capabilities:       caps,
		TextHandlerOptions: &slog.HandlerOptions{Level: cfg.Level},
		Writer:             console,
	})
	if err != nil {
		return nil, closeOnError(closer, fmt.Errorf("failed to create text handler: %w", err))
	}

	logger := slog.New(logging.NewMultiHandler(interactive, text, fileHandler))
	slog.SetDefault(logger)

	return &Logger{Logger: logger, LogFile: logFile, Capabilities: caps, file: closer}, nil
}

// openLogFile creates <host>_<timestamp>_<run-id>.json under dir.
func openLogFile(dir, runID string, now time.Time) (safefileio.File, string, error) {
	if err := os.MkdirAll(dir, logDirPerm); err != nil {
		return nil, "", fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}
	name := fmt.Sprintf("%s_%s_%s.json", hostname(), now.UTC().Format(logFileTimestamp), runID)
	path := filepath.Join(dir, name)

	f, err := safefileio.NewFileSystem().SafeOpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, logFilePerm)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open log file: %w", err)
	}
	return f, path, nil
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil || h == "" {
		return "unknown"
	}
	return h
}

func closeOnError(c io.Closer, err error) error {
	if c == nil {
		return err
	}
	return errors.Join(err, c.Close())
}

package config

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfigPath is returned when the config file cannot be read
	ErrInvalidConfigPath = errors.New("invalid config file path")

	// ErrInvalidEnvFile is returned when the environment file cannot be read or parsed
	ErrInvalidEnvFile = errors.New("invalid environment file")

	// ErrUnknownKey is returned by Set for a key that is not a setting
	ErrUnknownKey = errors.New("unknown configuration key")

	// ErrMissingDirectory is returned when no scan directory was given
	ErrMissingDirectory = errors.New("scan directory is required")

	// ErrInvalidDirectory is returned when the scan directory does not exist or is not a directory
	ErrInvalidDirectory = errors.New("scan directory is not a directory")

	// ErrInvalidWorkers is returned for a worker count below one
	ErrInvalidWorkers = errors.New("worker count must be at least 1")

	// ErrInvalidLogLevel is returned for an unrecognized log level
	ErrInvalidLogLevel = errors.New("invalid log level")
)

// InvalidValueError reports a setting whose value could not be parsed.
type InvalidValueError struct {
	Key    string
	Value  string
	Source string
	Err    error
}

func (e *InvalidValueError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("invalid value %q for %s (from %s): %v", e.Value, e.Key, e.Source, e.Err)
	}
	return fmt.Sprintf("invalid value %q for %s: %v", e.Value, e.Key, e.Err)
}

func (e *InvalidValueError) Unwrap() error {
	return e.Err
}

// Package config merges bldd settings from defaults, a TOML file, an
// environment file, the process environment and command line flags, in
// that order of increasing precedence.
package config

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

// Setting keys. Environment variables use EnvPrefix plus the upper-cased key.
const (
	KeyDir      = "dir"
	KeyLibs     = "libs"
	KeyArch     = "arch"
	KeyOutput   = "output"
	KeyFormat   = "format"
	KeyWorkers  = "workers"
	KeyLogLevel = "log_level"
	KeyLogDir   = "log_dir"
)

// EnvPrefix is prepended to environment variable names.
const EnvPrefix = "BLDD_"

// Default values.
const (
	DefaultOutput   = "bldd_report.txt"
	DefaultFormat   = "txt"
	DefaultArch     = "all"
	DefaultLogLevel = "info"
)

// Keys returns every setting key.
func Keys() []string {
	return []string{KeyDir, KeyLibs, KeyArch, KeyOutput, KeyFormat, KeyWorkers, KeyLogLevel, KeyLogDir}
}

// Config holds unvalidated settings. Field tags name the TOML keys.
type Config struct {
	Dir      string   `toml:"dir"`
	Libs     []string `toml:"libs"`
	Arch     string   `toml:"arch"`
	Output   string   `toml:"output"`
	Format   string   `toml:"format"`
	Workers  int      `toml:"workers"`
	LogLevel string   `toml:"log_level"`
	LogDir   string   `toml:"log_dir"`
}

// Default returns the built-in settings. Workers follows GOMAXPROCS.
func Default() Config {
	return Config{
		Arch:     DefaultArch,
		Output:   DefaultOutput,
		Format:   DefaultFormat,
		Workers:  runtime.GOMAXPROCS(0),
		LogLevel: DefaultLogLevel,
	}
}

// Set assigns one setting from its string form. Libs accepts a
// comma-separated list and replaces the current value.
func (c *Config) Set(key, value string) error {
	switch key {
	case KeyDir:
		c.Dir = value
	case KeyLibs:
		c.Libs = SplitList(value)
	case KeyArch:
		c.Arch = value
	case KeyOutput:
		c.Output = value
	case KeyFormat:
		c.Format = value
	case KeyWorkers:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return &InvalidValueError{Key: key, Value: value, Err: err}
		}
		c.Workers = n
	case KeyLogLevel:
		c.LogLevel = value
	case KeyLogDir:
		c.LogDir = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return nil
}

// EnvName returns the environment variable that carries key.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(key)
}

// SplitList splits comma-separated values, trimming blanks and dropping
// empty items.
func SplitList(values ...string) []string {
	var out []string
	for _, v := range values {
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}

package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/isseis/bldd/internal/safefileio"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Sources names the inputs Load merges over Default.
type Sources struct {
	// ConfigFile is a TOML file. Empty skips it.
	ConfigFile string
	// EnvFile is a dotenv file holding BLDD_* assignments. Empty skips it.
	EnvFile string
	// Environ is the process environment in KEY=VALUE form, usually os.Environ().
	Environ []string
}

// Load builds a Config from defaults and the given sources. Flags are
// applied by the caller through Set afterwards.
func Load(src Sources) (Config, error) {
	cfg := Default()

	if src.ConfigFile != "" {
		if err := cfg.LoadFile(src.ConfigFile); err != nil {
			return cfg, err
		}
	}

	if src.EnvFile != "" {
		content, err := safefileio.SafeReadFile(src.EnvFile)
		if err != nil {
			return cfg, fmt.Errorf("%w: %s: %w", ErrInvalidEnvFile, src.EnvFile, err)
		}
		fileEnv, err := godotenv.Parse(bytes.NewReader(content))
		if err != nil {
			return cfg, fmt.Errorf("%w: %s: %w", ErrInvalidEnvFile, src.EnvFile, err)
		}
		if err := cfg.ApplyEnv(fileEnv, src.EnvFile); err != nil {
			return cfg, err
		}
	}

	if err := cfg.ApplyEnv(environMap(src.Environ), "environment"); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadFile merges a TOML file into c. Keys absent from the file keep their
// current values; unknown keys are rejected.
func (c *Config) LoadFile(path string) error {
	content, err := safefileio.SafeReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidConfigPath, path, err)
	}
	return c.decodeTOML(content, path)
}

func (c *Config) decodeTOML(content []byte, path string) error {
	dec := toml.NewDecoder(bytes.NewReader(content))
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		var strictErr *toml.StrictMissingError
		if errors.As(err, &strictErr) {
			return fmt.Errorf("%w in %s: %s", ErrUnknownKey, path, strictErr.String())
		}
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	slog.Debug("Loaded config file", "path", path)
	return nil
}

// ApplyEnv applies BLDD_* entries of env to c. Other variables are ignored.
// source names where env came from, for error messages.
func (c *Config) ApplyEnv(env map[string]string, source string) error {
	for _, key := range Keys() {
		value, ok := env[EnvName(key)]
		if !ok {
			continue
		}
		if err := c.Set(key, value); err != nil {
			var valueErr *InvalidValueError
			if errors.As(err, &valueErr) {
				valueErr.Key = EnvName(key)
				valueErr.Source = source
			}
			return err
		}
	}
	for name := range env {
		if strings.HasPrefix(name, EnvPrefix) && !isKnownEnvName(name) {
			slog.Warn("Ignoring unknown variable", "name", name, "source", source)
		}
	}
	return nil
}

func isKnownEnvName(name string) bool {
	for _, key := range Keys() {
		if EnvName(key) == name {
			return true
		}
	}
	return false
}

func environMap(environ []string) map[string]string {
	env := make(map[string]string)
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if ok && strings.HasPrefix(name, EnvPrefix) {
			env[name] = value
		}
	}
	return env
}

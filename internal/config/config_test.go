package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/isseis/bldd/internal/elfinspect"
	"github.com/isseis/bldd/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "bldd_report.txt", cfg.Output)
	assert.Equal(t, "txt", cfg.Format)
	assert.Equal(t, "all", cfg.Arch)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, runtime.GOMAXPROCS(0), cfg.Workers)
	assert.Empty(t, cfg.Dir)
	assert.Empty(t, cfg.Libs)
}

func TestSet(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Set(KeyDir, "/usr/bin"))
	require.NoError(t, cfg.Set(KeyLibs, "libc.so.6, libssl.so.1.1,,"))
	require.NoError(t, cfg.Set(KeyWorkers, " 3 "))
	require.NoError(t, cfg.Set(KeyLogDir, "/var/log/bldd"))

	assert.Equal(t, "/usr/bin", cfg.Dir)
	assert.Equal(t, []string{"libc.so.6", "libssl.so.1.1"}, cfg.Libs)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, "/var/log/bldd", cfg.LogDir)

	var valueErr *InvalidValueError
	require.ErrorAs(t, cfg.Set(KeyWorkers, "many"), &valueErr)
	assert.Equal(t, KeyWorkers, valueErr.Key)

	assert.ErrorIs(t, cfg.Set("colour", "red"), ErrUnknownKey)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SplitList("a,b", " c ", ""))
	assert.Nil(t, SplitList())
	assert.Nil(t, SplitList(" , "))
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "BLDD_LOG_LEVEL", EnvName(KeyLogLevel))
	assert.Equal(t, "BLDD_DIR", EnvName(KeyDir))
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	configFile := writeFile(t, dir, "bldd.toml", `
dir = "/from/toml"
libs = ["libtoml.so"]
arch = "armv7"
format = "json"
workers = 2
`)
	envFile := writeFile(t, dir, "bldd.env", `
# comments are allowed
BLDD_ARCH=aarch64
BLDD_FORMAT=yaml
UNRELATED=1
`)

	cfg, err := Load(Sources{
		ConfigFile: configFile,
		EnvFile:    envFile,
		Environ:    []string{"BLDD_FORMAT=pdf", "PATH=/bin", "HOME=/root"},
	})
	require.NoError(t, err)

	assert.Equal(t, "/from/toml", cfg.Dir, "toml overrides default")
	assert.Equal(t, []string{"libtoml.so"}, cfg.Libs)
	assert.Equal(t, "aarch64", cfg.Arch, "env file overrides toml")
	assert.Equal(t, "pdf", cfg.Format, "process environment overrides env file")
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, DefaultOutput, cfg.Output, "unset keys keep defaults")

	require.NoError(t, cfg.Set(KeyFormat, "table"))
	assert.Equal(t, "table", cfg.Format, "flags applied last win")
}

func TestLoad_NoSources(t *testing.T) {
	cfg, err := Load(Sources{})
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing config file", func(t *testing.T) {
		_, err := Load(Sources{ConfigFile: filepath.Join(dir, "missing.toml")})
		assert.ErrorIs(t, err, ErrInvalidConfigPath)
	})

	t.Run("unknown toml key", func(t *testing.T) {
		p := writeFile(t, dir, "unknown.toml", "dir = \"/x\"\ncolour = \"red\"\n")
		_, err := Load(Sources{ConfigFile: p})
		assert.ErrorIs(t, err, ErrUnknownKey)
	})

	t.Run("toml syntax error", func(t *testing.T) {
		p := writeFile(t, dir, "broken.toml", "dir = \n")
		_, err := Load(Sources{ConfigFile: p})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})

	t.Run("toml type mismatch", func(t *testing.T) {
		p := writeFile(t, dir, "types.toml", "workers = \"four\"\n")
		_, err := Load(Sources{ConfigFile: p})
		require.Error(t, err)
	})

	t.Run("missing env file", func(t *testing.T) {
		_, err := Load(Sources{EnvFile: filepath.Join(dir, "missing.env")})
		assert.ErrorIs(t, err, ErrInvalidEnvFile)
	})

	t.Run("bad worker count in environment", func(t *testing.T) {
		_, err := Load(Sources{Environ: []string{"BLDD_WORKERS=lots"}})
		var valueErr *InvalidValueError
		require.ErrorAs(t, err, &valueErr)
		assert.Equal(t, "BLDD_WORKERS", valueErr.Key)
		assert.Equal(t, "environment", valueErr.Source)
	})
}

func TestValidate(t *testing.T) {
	scanDir := t.TempDir()
	file := writeFile(t, scanDir, "file", "")

	valid := func() Config {
		cfg := Default()
		cfg.Dir = scanDir
		cfg.Libs = []string{"libc.so.6,libm.so.6", "libc.so.6"}
		cfg.Arch = "x86_64"
		cfg.Format = "pdf"
		cfg.Workers = 4
		cfg.LogLevel = "DEBUG"
		return cfg
	}

	t.Run("valid", func(t *testing.T) {
		s, err := valid().Validate()
		require.NoError(t, err)
		assert.Equal(t, Settings{
			Dir:      scanDir,
			Libs:     []string{"libc.so.6", "libm.so.6"},
			Arch:     elfinspect.ArchX86_64,
			Output:   DefaultOutput,
			Format:   report.FormatPDF,
			Workers:  4,
			LogLevel: slog.LevelDebug,
		}, s)
	})

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{name: "missing dir", mutate: func(c *Config) { c.Dir = "" }, want: ErrMissingDirectory},
		{name: "dir does not exist", mutate: func(c *Config) { c.Dir = filepath.Join(scanDir, "nope") }, want: ErrInvalidDirectory},
		{name: "dir is a file", mutate: func(c *Config) { c.Dir = file }, want: ErrInvalidDirectory},
		{name: "unknown arch", mutate: func(c *Config) { c.Arch = "sparc" }, want: elfinspect.ErrUnknownArchitecture},
		{name: "unknown format", mutate: func(c *Config) { c.Format = "docx" }, want: report.ErrUnknownFormat},
		{name: "zero workers", mutate: func(c *Config) { c.Workers = 0 }, want: ErrInvalidWorkers},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "verbose" }, want: ErrInvalidLogLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			_, err := cfg.Validate()
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLogLevel(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

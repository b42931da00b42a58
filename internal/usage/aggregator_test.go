//go:build test

package usage

import (
	"bytes"
	"context"
	"debug/elf"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/isseis/bldd/internal/elfinspect"
	elfinspecttesting "github.com/isseis/bldd/internal/elfinspect/testing"
	"github.com/isseis/bldd/internal/safefileio"
	safefileiotesting "github.com/isseis/bldd/internal/safefileio/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	name string
	opts elfinspecttesting.Options
	raw  []byte
}

func writeFixtures(t *testing.T, fixtures []fixture) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, 0, len(fixtures))
	for _, f := range fixtures {
		p := filepath.Join(dir, f.name)
		if f.raw != nil {
			require.NoError(t, os.WriteFile(p, f.raw, 0o600))
		} else {
			elfinspecttesting.WriteFile(t, p, f.opts)
		}
		paths = append(paths, p)
	}
	return paths
}

func TestAggregate_TargetLibs(t *testing.T) {
	var fixtures []fixture
	for i := 0; i < 10; i++ {
		needed := []string{"libc.so.6"}
		if i%3 == 0 && i < 9 {
			needed = append(needed, "libssl.so.1.1")
		}
		fixtures = append(fixtures, fixture{
			name: fmt.Sprintf("bin%02d", i),
			opts: elfinspecttesting.Options{Needed: needed},
		})
	}
	paths := writeFixtures(t, fixtures)

	agg := New(Options{TargetLibs: []string{"libssl.so.1.1"}, Workers: 4, Logger: discardLogger()})
	ix, stats := agg.Aggregate(context.Background(), paths)

	require.Equal(t, []string{"libssl.so.1.1"}, ix.Libraries())
	recs := ix.Records("libssl.so.1.1")
	require.Len(t, recs, 3)
	assert.Equal(t, paths[0], recs[0].Path)
	assert.Equal(t, paths[3], recs[1].Path)
	assert.Equal(t, paths[6], recs[2].Path)
	for _, r := range recs {
		assert.Equal(t, elf.EM_X86_64, r.Machine)
	}
	assert.Equal(t, 10, stats.Files)
	assert.Equal(t, 10, stats.Indexed)
}

func TestAggregate_AllLibrariesCompleteness(t *testing.T) {
	fixtures := []fixture{
		{name: "a", opts: elfinspecttesting.Options{Needed: []string{"libc.so.6", "libz.so.1"}}},
		{name: "b", opts: elfinspecttesting.Options{Class: elf.ELFCLASS32, Machine: elf.EM_386, Needed: []string{"libc.so.6", "libm.so.6"}}},
		{name: "c", opts: elfinspecttesting.Options{Type: elf.ET_DYN, Machine: elf.EM_AARCH64, Needed: []string{"libpthread.so.0"}}},
		{name: "d", opts: elfinspecttesting.Options{NoDynamic: true}},
		// Duplicate needed entries in one file count once.
		{name: "e", opts: elfinspecttesting.Options{Needed: []string{"libz.so.1", "libz.so.1"}}},
	}
	paths := writeFixtures(t, fixtures)

	ix, stats := New(Options{Logger: discardLogger()}).Aggregate(context.Background(), paths)

	assert.ElementsMatch(t, []string{"libc.so.6", "libz.so.1", "libm.so.6", "libpthread.so.0"}, ix.Libraries())
	assert.Equal(t, 6, ix.TotalRecords())
	assert.Equal(t, []Record{
		{Path: paths[0], Machine: elf.EM_X86_64},
		{Path: paths[4], Machine: elf.EM_X86_64},
	}, ix.Records("libz.so.1"))
	assert.Equal(t, 5, stats.Indexed)

	sorted := ix.Sorted()
	assert.Len(t, sorted[0].Records, 2)
	assert.Equal(t, "libc.so.6", sorted[0].Library)
}

func TestAggregate_ArchFilter(t *testing.T) {
	fixtures := []fixture{
		{name: "amd64", opts: elfinspecttesting.Options{Machine: elf.EM_X86_64, Needed: []string{"libc.so.6"}}},
		{name: "i386", opts: elfinspecttesting.Options{Class: elf.ELFCLASS32, Machine: elf.EM_386, Needed: []string{"libc.so.6"}}},
		{name: "arm", opts: elfinspecttesting.Options{Class: elf.ELFCLASS32, Machine: elf.EM_ARM, Needed: []string{"libc.so.6"}}},
		{name: "arm64", opts: elfinspecttesting.Options{Machine: elf.EM_AARCH64, Needed: []string{"libc.so.6"}}},
	}
	paths := writeFixtures(t, fixtures)

	tests := []struct {
		filter elfinspect.ArchFilter
		want   []string
	}{
		{filter: elfinspect.ArchAll, want: paths},
		{filter: elfinspect.ArchX86, want: paths[1:2]},
		{filter: elfinspect.ArchX86_64, want: paths[0:1]},
		{filter: elfinspect.ArchARMv7, want: paths[2:3]},
		{filter: elfinspect.ArchAArch64, want: paths[3:4]},
	}

	for _, tt := range tests {
		t.Run(tt.filter.String(), func(t *testing.T) {
			ix, stats := New(Options{Arch: tt.filter, Logger: discardLogger()}).Aggregate(context.Background(), paths)

			var got []string
			for _, r := range ix.Records("libc.so.6") {
				got = append(got, r.Path)
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, len(paths)-len(tt.want), stats.Skipped[SkipArchMismatch])
		})
	}
}

func TestAggregate_Idempotent(t *testing.T) {
	var fixtures []fixture
	for i := 0; i < 20; i++ {
		fixtures = append(fixtures, fixture{
			name: fmt.Sprintf("f%02d", i),
			opts: elfinspecttesting.Options{Needed: []string{fmt.Sprintf("lib%d.so", i%4), "libc.so.6"}},
		})
	}
	paths := writeFixtures(t, fixtures)
	agg := New(Options{Workers: 8, Logger: discardLogger()})

	first, _ := agg.Aggregate(context.Background(), paths)
	second, _ := agg.Aggregate(context.Background(), paths)

	assert.Equal(t, first.Sorted(), second.Sorted())
}

func TestAggregate_SkipReasons(t *testing.T) {
	truncated := elfinspecttesting.Build(elfinspecttesting.Options{Needed: []string{"libfirst.so", "libsecond.so"}}).TruncatedAfter(3)
	malformed := bytes.Clone(elfinspecttesting.Build(elfinspecttesting.Options{}).Bytes)
	malformed[elf.EI_CLASS] = 9

	fixtures := []fixture{
		{name: "script.sh", raw: []byte("#!/bin/sh\nexit 0\n")},
		{name: "tiny", raw: []byte{0x7f}},
		{name: "malformed", raw: malformed},
		{name: "object.o", opts: elfinspecttesting.Options{Type: elf.ET_REL, Needed: []string{"libc.so.6"}}},
		{name: "truncated", raw: truncated},
		{name: "good", opts: elfinspecttesting.Options{Needed: []string{"libfirst.so"}}},
	}
	paths := writeFixtures(t, fixtures)
	paths = append(paths, filepath.Join(t.TempDir(), "vanished"))

	agg := New(Options{Logger: discardLogger()})

	wantSkip := []SkipReason{SkipNotELF, SkipNotELF, SkipMalformed, SkipUnsupportedType, SkipNone, SkipNone, SkipIOFailure}
	for i, p := range paths {
		res := agg.Inspect(p)
		assert.Equal(t, wantSkip[i], res.Skip, "path %s", p)
	}

	res := agg.Inspect(paths[4])
	assert.ErrorIs(t, res.Err, elfinspect.ErrTruncatedDynamic)
	assert.Equal(t, []string{"libfirst.so"}, res.Needed)

	ix, stats := agg.Aggregate(context.Background(), paths)
	assert.Equal(t, 7, stats.Files)
	assert.Equal(t, 2, stats.Indexed)
	assert.Equal(t, 1, stats.Warnings)
	assert.Equal(t, 2, stats.Skipped[SkipNotELF])
	assert.Equal(t, 1, stats.Skipped[SkipMalformed])
	assert.Equal(t, 1, stats.Skipped[SkipUnsupportedType])
	assert.Equal(t, 1, stats.Skipped[SkipIOFailure])
	assert.Equal(t, []string{"libfirst.so"}, ix.Libraries())
	assert.Len(t, ix.Records("libfirst.so"), 2)
}

func TestInspect_SymlinkIsIOFailure(t *testing.T) {
	paths := writeFixtures(t, []fixture{{name: "real", opts: elfinspecttesting.Options{Needed: []string{"libc.so.6"}}}})
	link := filepath.Join(filepath.Dir(paths[0]), "link")
	require.NoError(t, os.Symlink(paths[0], link))

	res := New(Options{Logger: discardLogger()}).Inspect(link)
	assert.Equal(t, SkipIOFailure, res.Skip)
	assert.ErrorIs(t, res.Err, safefileio.ErrIsSymlink)
}

func TestInspect_ReadErrorClosesFile(t *testing.T) {
	readErr := errors.New("input/output error")
	file := safefileiotesting.NewMemFile(nil)
	file.ReadAtErr = readErr

	fs := safefileiotesting.NewMockFileSystem()
	fs.SafeOpenFileFunc = func(string, int, os.FileMode) (safefileio.File, error) {
		return file, nil
	}

	res := New(Options{FS: fs, Logger: discardLogger()}).Inspect("/bin/broken")

	assert.Equal(t, SkipIOFailure, res.Skip)
	assert.ErrorIs(t, res.Err, readErr)
	assert.True(t, file.Closed)
	assert.Equal(t, []string{"/bin/broken"}, fs.OpenCalls())
}

func TestInspect_ClosesFileOnSuccess(t *testing.T) {
	img := elfinspecttesting.Build(elfinspecttesting.Options{Needed: []string{"libc.so.6"}, Soname: "libself.so"})
	file := safefileiotesting.NewMemFile(img.Bytes)

	fs := safefileiotesting.NewMockFileSystem()
	fs.SafeOpenFileFunc = func(string, int, os.FileMode) (safefileio.File, error) {
		return file, nil
	}

	res := New(Options{FS: fs, Logger: discardLogger()}).Inspect("/bin/ok")

	assert.Equal(t, SkipNone, res.Skip)
	assert.NoError(t, res.Err)
	assert.Equal(t, []string{"libc.so.6"}, res.Needed)
	assert.Equal(t, "libself.so", res.Soname)
	assert.True(t, file.Closed)
}

func TestAggregate_CancelledContext(t *testing.T) {
	paths := writeFixtures(t, []fixture{
		{name: "a", opts: elfinspecttesting.Options{Needed: []string{"libc.so.6"}}},
		{name: "b", opts: elfinspecttesting.Options{Needed: []string{"libc.so.6"}}},
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ix, stats := New(Options{Logger: discardLogger()}).Aggregate(ctx, paths)
	assert.Equal(t, 0, ix.Len())
	assert.Equal(t, 0, stats.Files)
}

func TestNew_Defaults(t *testing.T) {
	agg := New(Options{TargetLibs: []string{"libssl.so.1.1", "", "libssl.so.1.1", "libcrypto.so.1.1"}})

	assert.Equal(t, []string{"libssl.so.1.1", "libcrypto.so.1.1"}, agg.Targets())
	assert.Positive(t, agg.workers)
	assert.NotNil(t, agg.fs)
	assert.NotNil(t, agg.logger)
}

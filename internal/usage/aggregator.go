// Package usage turns per-file ELF inspection results into a library usage
// index: library name to the binaries that declare it as needed.
package usage

import (
	"context"
	"errors"
	"log/slog"
	"runtime"

	"github.com/isseis/bldd/internal/elfinspect"
	"github.com/isseis/bldd/internal/safefileio"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// Options configures an Aggregator.
type Options struct {
	// TargetLibs restricts the index to these libraries. Empty means every
	// declared dependency is indexed.
	TargetLibs []string
	Arch       elfinspect.ArchFilter
	// Workers bounds concurrent inspections. Zero or less uses GOMAXPROCS.
	Workers int
	// FS opens scanned files. Nil uses the local disk.
	FS     safefileio.FileSystem
	Logger *slog.Logger
}

// Aggregator inspects files and builds an Index from them.
type Aggregator struct {
	targets []string
	arch    elfinspect.ArchFilter
	workers int
	fs      safefileio.FileSystem
	logger  *slog.Logger
}

// New returns an Aggregator for opts.
func New(opts Options) *Aggregator {
	a := &Aggregator{
		targets: lo.Uniq(lo.Compact(opts.TargetLibs)),
		arch:    opts.Arch,
		workers: opts.Workers,
		fs:      opts.FS,
		logger:  opts.Logger,
	}
	if a.workers <= 0 {
		a.workers = runtime.GOMAXPROCS(0)
	}
	if a.fs == nil {
		a.fs = safefileio.NewFileSystem()
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a
}

// Targets returns the deduplicated target libraries.
func (a *Aggregator) Targets() []string {
	return append([]string(nil), a.targets...)
}

// Inspect opens, classifies, filters and extracts a single file. The file
// is closed before Inspect returns. Every failure is reported through the
// result; Inspect never panics on malformed input.
func (a *Aggregator) Inspect(path string) FileResult {
	res := FileResult{Path: path}

	f, err := safefileio.OpenForInspection(a.fs, path)
	if err != nil {
		res.Skip, res.Err = SkipIOFailure, err
		return res
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			a.logger.Debug("Failed to close file", "path", path, "error", cerr)
		}
	}()

	id, err := elfinspect.Classify(f)
	res.Identity = id
	switch {
	case errors.Is(err, elfinspect.ErrReadFailed):
		res.Skip, res.Err = SkipIOFailure, err
		return res
	case err != nil:
		res.Skip, res.Err = SkipMalformed, err
		return res
	case !id.Valid:
		res.Skip = SkipNotELF
		return res
	case !id.IsLoadable():
		res.Skip = SkipUnsupportedType
		return res
	case !a.arch.Matches(id.Machine):
		res.Skip = SkipArchMismatch
		return res
	}

	info, err := elfinspect.ExtractDynamic(f, id)
	res.Needed = info.Needed
	res.Soname = info.Soname
	res.RunPath = info.RunPath
	res.Err = err
	return res
}

// Aggregate inspects paths with a bounded worker pool and indexes the
// results in path order, regardless of completion order. When ctx is
// cancelled no new files are started; the index covers the files that were
// inspected.
func (a *Aggregator) Aggregate(ctx context.Context, paths []string) (*Index, Stats) {
	results := make([]*FileResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, path := range paths {
		if gctx.Err() != nil {
			break
		}
		i, path := i, path
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			res := a.Inspect(path)
			results[i] = &res
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	ix := NewIndex()
	var stats Stats
	for _, res := range results {
		if res == nil {
			continue
		}
		stats.add(*res)
		a.logResult(*res)
		if res.Indexed() {
			a.index(ix, *res)
		}
	}

	a.logger.Debug("Aggregation completed",
		"files", stats.Files,
		"indexed", stats.Indexed,
		"skipped", stats.SkippedTotal(),
		"libraries", ix.Len())
	return ix, stats
}

func (a *Aggregator) index(ix *Index, res FileResult) {
	rec := Record{Path: res.Path, Machine: res.Identity.Machine}
	if len(a.targets) == 0 {
		for _, lib := range res.Needed {
			ix.Add(lib, rec)
		}
		return
	}
	needed := lo.SliceToMap(res.Needed, func(n string) (string, struct{}) { return n, struct{}{} })
	for _, lib := range a.targets {
		if _, ok := needed[lib]; ok {
			ix.Add(lib, rec)
		}
	}
}

func (a *Aggregator) logResult(res FileResult) {
	switch res.Skip {
	case SkipNone:
		if res.Err != nil {
			a.logger.Warn("Incomplete dependency information", "path", res.Path, "error", res.Err)
		}
	case SkipNotELF, SkipUnsupportedType, SkipArchMismatch:
		a.logger.Debug("Skipping file", "path", res.Path, "reason", res.Skip.String())
	default:
		a.logger.Warn("Skipping file", "path", res.Path, "reason", res.Skip.String(), "error", res.Err)
	}
}

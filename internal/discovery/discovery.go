// Package discovery enumerates the candidate files under a scan root.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

var (
	// ErrRootNotDirectory is returned when the scan root is missing or is not a directory.
	ErrRootNotDirectory = errors.New("scan root is not a directory")
)

// WalkFunc is called once per regular file, in lexical order.
type WalkFunc func(path string) error

// Walk calls fn for every regular file below root. Symlinks are neither
// followed nor reported. Unreadable directories are logged and skipped.
// Walk stops early if ctx is cancelled or fn returns an error.
func Walk(ctx context.Context, root string, fn WalkFunc) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRootNotDirectory, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrRootNotDirectory, root)
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == root {
				return err
			}
			slog.Warn("Skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return fn(path)
	})
}

// Collect returns every regular file below root in walk order.
func Collect(ctx context.Context, root string) ([]string, error) {
	var paths []string
	err := Walk(ctx, root, func(path string) error {
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// Package safefileio provides file access that refuses to follow symlinks
// and only hands out regular files. Scanned binaries are opened read-only
// and non-blocking so a FIFO swapped in mid-scan cannot stall a worker.
package safefileio

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"
)

// FileSystem is an interface that abstracts file system operations
type FileSystem interface {
	SafeOpenFile(name string, flag int, perm os.FileMode) (File, error)
}

// File is an interface that abstracts file operations
type File interface {
	io.Reader
	io.ReaderAt
	io.Writer
	io.Closer
	Stat() (os.FileInfo, error)
}

// NewFileSystem returns the FileSystem backed by the local disk.
func NewFileSystem() FileSystem {
	return osFS{}
}

type osFS struct{}

// SafeOpenFile opens name with O_NOFOLLOW and verifies through the open
// descriptor that it is a regular file. The check happens after the open so
// the file cannot be swapped between check and use.
func (osFS) SafeOpenFile(name string, flag int, perm os.FileMode) (File, error) {
	absPath, err := filepath.Abs(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilePath, err)
	}

	// #nosec G304 - absPath is cleaned above and O_NOFOLLOW rejects symlinks
	file, err := os.OpenFile(absPath, flag|syscall.O_NOFOLLOW, perm)
	if err != nil {
		if isNoFollowError(err) {
			return nil, fmt.Errorf("%w: %s", ErrIsSymlink, absPath)
		}
		return nil, err
	}

	if _, err := validateFile(file, absPath); err != nil {
		closeQuietly(file, absPath)
		return nil, err
	}
	return file, nil
}

// OpenForInspection opens path read-only for parsing. The caller owns the
// returned handle and must close it.
func OpenForInspection(fs FileSystem, path string) (File, error) {
	if fs == nil {
		fs = NewFileSystem()
	}
	return fs.SafeOpenFile(path, os.O_RDONLY|syscall.O_NONBLOCK, 0)
}

// MaxFileSize bounds SafeReadFile.
const MaxFileSize = 16 * 1024 * 1024

// SafeReadFile reads a regular file without following symlinks.
func SafeReadFile(filePath string) ([]byte, error) {
	return safeReadFileWithFS(NewFileSystem(), filePath)
}

func safeReadFileWithFS(fs FileSystem, filePath string) ([]byte, error) {
	file, err := fs.SafeOpenFile(filePath, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer closeQuietly(file, filePath)

	content, err := io.ReadAll(io.LimitReader(file, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filePath, err)
	}
	if len(content) > MaxFileSize {
		return nil, fmt.Errorf("%w: %s", ErrFileTooLarge, filePath)
	}
	return content, nil
}

// SafeWriteFile creates or truncates filePath and writes content to it.
// It refuses to write through a symlink or into anything but a regular file.
func SafeWriteFile(filePath string, content []byte, perm os.FileMode) error {
	return safeWriteFileWithFS(NewFileSystem(), filePath, content, perm)
}

// safeWriteFileWithFS is the internal implementation that accepts a FileSystem for testing
func safeWriteFileWithFS(fs FileSystem, filePath string, content []byte, perm os.FileMode) (err error) {
	file, err := fs.SafeOpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close file: %w", closeErr)
		}
	}()

	if _, err = file.Write(content); err != nil {
		return fmt.Errorf("failed to write to %s: %w", filePath, err)
	}
	return nil
}

// validateFile checks if the file is a regular file and returns its FileInfo
// To prevent TOCTOU attacks, we use the file descriptor to get the file info
func validateFile(file File, filePath string) (os.FileInfo, error) {
	fileInfo, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	if !fileInfo.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s (%s)", ErrNotRegularFile, filePath, fileInfo.Mode().Type())
	}

	return fileInfo, nil
}

func closeQuietly(file File, path string) {
	if err := file.Close(); err != nil {
		slog.Warn("error closing file", slog.String("path", path), slog.Any("error", err))
	}
}

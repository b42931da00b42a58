//go:build test

// Package safefileiotesting provides test doubles for the safefileio package.
package safefileiotesting

import (
	"bytes"
	"errors"
	"io"
	"os"
	"sync"

	"github.com/isseis/bldd/internal/safefileio"
)

// ErrSafeOpenFileNotImplemented is returned by MockFileSystem when SafeOpenFile
// is not implemented by the test.
var ErrSafeOpenFileNotImplemented = errors.New("SafeOpenFile not implemented in mock")

// MockFileSystem implements safefileio.FileSystem for testing.
type MockFileSystem struct {
	// SafeOpenFileFunc allows customizing SafeOpenFile behavior
	SafeOpenFileFunc func(name string, flag int, perm os.FileMode) (safefileio.File, error)

	mu        sync.Mutex
	openCalls []string
}

// NewMockFileSystem creates a new MockFileSystem with default implementations.
func NewMockFileSystem() *MockFileSystem {
	return &MockFileSystem{}
}

// SafeOpenFile implements safefileio.FileSystem. It is safe for concurrent use.
func (m *MockFileSystem) SafeOpenFile(name string, flag int, perm os.FileMode) (safefileio.File, error) {
	m.mu.Lock()
	m.openCalls = append(m.openCalls, name)
	m.mu.Unlock()

	if m.SafeOpenFileFunc != nil {
		return m.SafeOpenFileFunc(name, flag, perm)
	}
	return nil, ErrSafeOpenFileNotImplemented
}

// OpenCalls returns the names passed to SafeOpenFile so far.
func (m *MockFileSystem) OpenCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.openCalls...)
}

// MemFile is an in-memory safefileio.File. Reads and ReadAt come from the
// content it was created with; writes are collected in Written.
type MemFile struct {
	*bytes.Reader
	Written bytes.Buffer
	Info    os.FileInfo
	Closed  bool

	// ReadAtErr, when set, is returned by every ReadAt call.
	ReadAtErr error
}

// NewMemFile returns a MemFile serving content.
func NewMemFile(content []byte) *MemFile {
	return &MemFile{Reader: bytes.NewReader(content)}
}

// ReadAt implements io.ReaderAt.
func (f *MemFile) ReadAt(p []byte, off int64) (int, error) {
	if f.ReadAtErr != nil {
		return 0, f.ReadAtErr
	}
	return f.Reader.ReadAt(p, off)
}

// Write implements io.Writer.
func (f *MemFile) Write(p []byte) (int, error) {
	return f.Written.Write(p)
}

// Close implements io.Closer.
func (f *MemFile) Close() error {
	f.Closed = true
	return nil
}

// Stat returns Info, or an error when none was set.
func (f *MemFile) Stat() (os.FileInfo, error) {
	if f.Info == nil {
		return nil, io.ErrUnexpectedEOF
	}
	return f.Info, nil
}

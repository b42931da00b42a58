package discovery

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(root, "bin"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "lib", "nested"), 0o755))
	for _, p := range []string{"bin/ls", "bin/cat", "lib/nested/libfoo.so", "README"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, p), []byte("x"), 0o600))
	}
	require.NoError(t, os.Symlink(filepath.Join(root, "bin", "ls"), filepath.Join(root, "bin", "dir")))
	require.NoError(t, os.Symlink(filepath.Join(root, "lib"), filepath.Join(root, "liblink")))
	return root
}

func TestCollect(t *testing.T) {
	root := buildTree(t)

	paths, err := Collect(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(root, "README"),
		filepath.Join(root, "bin", "cat"),
		filepath.Join(root, "bin", "ls"),
		filepath.Join(root, "lib", "nested", "libfoo.so"),
	}, paths)
}

func TestWalk_RootErrors(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0o600))

	tests := []struct {
		name string
		root string
	}{
		{name: "missing", root: filepath.Join(dir, "missing")},
		{name: "regular file", root: file},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Collect(context.Background(), tt.root)
			assert.ErrorIs(t, err, ErrRootNotDirectory)
		})
	}
}

func TestWalk_StopsOnCallbackError(t *testing.T) {
	root := buildTree(t)
	stop := errors.New("stop")

	calls := 0
	err := Walk(context.Background(), root, func(string) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestWalk_Cancelled(t *testing.T) {
	root := buildTree(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	paths, err := Collect(ctx, root)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, paths)
}

func TestWalk_UnreadableDirectoryIsSkipped(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	root := buildTree(t)
	locked := filepath.Join(root, "lib")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	paths, err := Collect(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "README"),
		filepath.Join(root, "bin", "cat"),
		filepath.Join(root, "bin", "ls"),
	}, paths)
}

package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()

	t.Run("creates with requested mode", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "out")
		require.NoError(t, WriteFileAtomic(path, []byte("data"), 0600))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "data", string(data))
	})

	t.Run("replaces existing content", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "out")
		require.NoError(t, os.WriteFile(path, []byte("old"), 0644))
		require.NoError(t, WriteFileAtomic(path, []byte("new"), 0600))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "new", string(data))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	})

	t.Run("failed replacement leaves prior state untouched", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		path := filepath.Join(dir, "out")

		// A non-empty directory at the target makes the final rename
		// fail after the temp file was fully written.
		require.NoError(t, os.Mkdir(path, 0700))
		kept := filepath.Join(path, "keep")
		require.NoError(t, os.WriteFile(kept, []byte("prior"), 0600))

		err := WriteFileAtomic(path, []byte("new"), 0600)
		require.Error(t, err)

		data, err := os.ReadFile(kept)
		require.NoError(t, err)
		assert.Equal(t, "prior", string(data))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "out", entries[0].Name())
	})

	t.Run("leaves no temp files behind", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		require.NoError(t, WriteFileAtomic(filepath.Join(dir, "out"), []byte("x"), 0600))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "out", entries[0].Name())
	})
}

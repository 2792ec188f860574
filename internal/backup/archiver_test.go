package backup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMove(t *testing.T) {
	t.Parallel()

	t.Run("moves into dated directory", func(t *testing.T) {
		t.Parallel()
		srcDir := t.TempDir()
		path := filepath.Join(srcDir, ".env.backup")
		require.NoError(t, os.WriteFile(path, []byte("A=b\n"), 0644))

		a := NewArchiver(t.TempDir(), nil)
		a.now = func() time.Time { return time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC) }

		moved, errs := a.Move([]string{path})
		require.Empty(t, errs)
		require.Len(t, moved, 1)

		assert.Contains(t, moved[0], "credentials-old-20260830")

		// Original gone, archive copy tightened to owner-only.
		_, err := os.Stat(path)
		assert.True(t, os.IsNotExist(err))

		info, err := os.Stat(moved[0])
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

		dirInfo, err := os.Stat(a.Dir())
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0700), dirInfo.Mode().Perm())
	})

	t.Run("name collisions get numeric suffixes", func(t *testing.T) {
		t.Parallel()
		dirA := t.TempDir()
		dirB := t.TempDir()
		pathA := filepath.Join(dirA, ".env")
		pathB := filepath.Join(dirB, ".env")
		require.NoError(t, os.WriteFile(pathA, []byte("A=1\n"), 0600))
		require.NoError(t, os.WriteFile(pathB, []byte("B=2\n"), 0600))

		a := NewArchiver(t.TempDir(), nil)
		moved, errs := a.Move([]string{pathA, pathB})
		require.Empty(t, errs)
		require.Len(t, moved, 2)

		assert.Equal(t, ".env", filepath.Base(moved[0]))
		assert.Equal(t, ".env.1", filepath.Base(moved[1]))

		data, err := os.ReadFile(moved[1])
		require.NoError(t, err)
		assert.Equal(t, "B=2\n", string(data))
	})

	t.Run("missing file collected, rest proceeds", func(t *testing.T) {
		t.Parallel()
		srcDir := t.TempDir()
		good := filepath.Join(srcDir, ".env")
		require.NoError(t, os.WriteFile(good, []byte("A=1\n"), 0600))

		a := NewArchiver(t.TempDir(), nil)
		moved, errs := a.Move([]string{filepath.Join(srcDir, "missing"), good})
		assert.Len(t, errs, 1)
		assert.Len(t, moved, 1)
	})
}

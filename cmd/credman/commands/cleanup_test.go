package commands

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCleanupCommand(t *testing.T) {
	t.Parallel()

	cmd := NewCleanupCommand(testConfig(t, t.TempDir()))
	assert.Equal(t, "cleanup [paths...]", cmd.Use)
	assert.NotNil(t, cmd.Flags().Lookup("yes"))
}

func TestCleanupArchivesGivenPaths(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	path := writeSourceFile(t, src, ".env.backup", "A_API_KEY=sk_live_vq91kz7734mmxp\n")
	storeDir := t.TempDir()

	out, err := runCommand(t, NewCleanupCommand(testConfig(t, storeDir)), "--yes", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Archived 1 file(s)")

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestCleanupRequiresConfirmation(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	path := writeSourceFile(t, src, ".env.backup", "A_API_KEY=sk_live_vq91kz7734mmxp\n")

	// Non-interactive runs answer no and the file stays put.
	out, err := runCommand(t, NewCleanupCommand(testConfig(t, t.TempDir())), path)
	assert.Error(t, err)
	assert.Contains(t, out, "would archive")

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)
}

func TestCleanupNothingToDo(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, t.TempDir(), t.TempDir())
	out, err := runCommand(t, NewCleanupCommand(cfg), "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing to clean up")
}

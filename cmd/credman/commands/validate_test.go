package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidateCommand(t *testing.T) {
	t.Parallel()

	cmd := NewValidateCommand(testConfig(t, t.TempDir()))
	assert.Equal(t, "validate", cmd.Use)
	assert.NotNil(t, cmd.Flags().Lookup("fix"))
}

func TestValidateHealthyStore(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	writeSourceFile(t, src, ".env", "BOTCHAN_API_KEY=sk_live_vq91kz7734mmxp\n")
	storeDir := t.TempDir()

	_, err := runCommand(t, NewConsolidateCommand(testConfig(t, storeDir, src)))
	require.NoError(t, err)

	out, err := runCommand(t, NewValidateCommand(testConfig(t, storeDir)))
	require.NoError(t, err)
	assert.Contains(t, out, "Store is valid")
}

func TestValidateReportsLooseMode(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	writeSourceFile(t, src, ".env", "BOTCHAN_API_KEY=sk_live_vq91kz7734mmxp\n")
	storeDir := t.TempDir()

	_, err := runCommand(t, NewConsolidateCommand(testConfig(t, storeDir, src)))
	require.NoError(t, err)
	require.NoError(t, os.Chmod(filepath.Join(storeDir, ".env"), 0644))

	_, err = runCommand(t, NewValidateCommand(testConfig(t, storeDir)))
	assert.Error(t, err)

	// --fix tightens the mode and the store validates again.
	_, err = runCommand(t, NewValidateCommand(testConfig(t, storeDir)), "--fix")
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(storeDir, ".env"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	_, err = runCommand(t, NewValidateCommand(testConfig(t, storeDir)))
	assert.NoError(t, err)
}

func TestValidateCheckSelection(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	writeSourceFile(t, src, ".env", "BOTCHAN_API_KEY=sk_live_vq91kz7734mmxp\n")
	storeDir := t.TempDir()

	_, err := runCommand(t, NewConsolidateCommand(testConfig(t, storeDir, src)))
	require.NoError(t, err)
	require.NoError(t, os.Chmod(filepath.Join(storeDir, ".env"), 0644))

	// The loose mode only fails the permissions check.
	_, err = runCommand(t, NewValidateCommand(testConfig(t, storeDir)), "--check", "permissions")
	assert.Error(t, err)

	_, err = runCommand(t, NewValidateCommand(testConfig(t, storeDir)), "--check", "format")
	assert.NoError(t, err)

	_, err = runCommand(t, NewValidateCommand(testConfig(t, storeDir)), "--check", "nonsense")
	assert.Error(t, err)
}

func TestValidateReportsDanglingReferences(t *testing.T) {
	t.Parallel()

	storeDir := t.TempDir()
	require.NoError(t, os.MkdirAll(storeDir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(storeDir, ".env"),
		[]byte("A_TOKEN=GPG:A_TOKEN\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(storeDir, ".gitignore"),
		[]byte(".env\n.env.secrets.gpg\n.env.meta\n"), 0644))

	out, err := runCommand(t, NewValidateCommand(testConfig(t, storeDir)))
	assert.Error(t, err)
	assert.Contains(t, out, "no container file")
}

func TestValidateReportsBadMeta(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	writeSourceFile(t, src, ".env", "BOTCHAN_API_KEY=sk_live_vq91kz7734mmxp\n")
	storeDir := t.TempDir()

	_, err := runCommand(t, NewConsolidateCommand(testConfig(t, storeDir, src)))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(storeDir, ".env.meta"),
		[]byte(`{"BOTCHAN_API_KEY":{"risk":"extreme"}}`), 0600))

	_, err = runCommand(t, NewValidateCommand(testConfig(t, storeDir)))
	assert.Error(t, err)
}

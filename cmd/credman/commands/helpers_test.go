package commands

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/credman/internal/config"
	"github.com/openclaw/credman/internal/logging"
)

// testConfig writes a credman.yaml pointing at temp directories and
// returns a loaded-on-demand Config the way PersistentPreRun builds
// one.
func testConfig(t *testing.T, storeDir string, roots ...string) *config.Config {
	t.Helper()

	// t.TempDir() permissions depend on the process umask; the store
	// requires an owner-only directory.
	require.NoError(t, os.Chmod(storeDir, 0700))

	content := fmt.Sprintf("version: 0\nstore:\n  dir: %s\npassphrase:\n  cache: memory\n", storeDir)
	if len(roots) > 0 {
		content += "scan:\n  roots:\n"
		for _, r := range roots {
			content += fmt.Sprintf("    - %s\n", r)
		}
	}

	path := filepath.Join(t.TempDir(), "credman.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	return &config.Config{
		Path:           path,
		Logger:         logging.New(false, true),
		NonInteractive: true,
	}
}

// runCommand executes a command with args and captures stdout.
func runCommand(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func writeSourceFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

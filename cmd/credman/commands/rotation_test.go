package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRotationCommand(t *testing.T) {
	t.Parallel()

	cmd := NewRotationCommand(testConfig(t, t.TempDir()))
	assert.Equal(t, "rotation", cmd.Use)

	var found []string
	for _, sub := range cmd.Commands() {
		found = append(found, sub.Name())
	}
	assert.Contains(t, found, "init")
	assert.Contains(t, found, "status")
	assert.Contains(t, found, "record")
	assert.Contains(t, found, "reclassify")
}

func TestRotationLifecycle(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	writeSourceFile(t, src, ".env", "BOTCHAN_API_KEY=sk_live_vq91kz7734mmxp\n")
	storeDir := t.TempDir()

	// Consolidation already initializes tracking; init again is a
	// no-op.
	_, err := runCommand(t, NewConsolidateCommand(testConfig(t, storeDir, src)))
	require.NoError(t, err)

	out, err := runCommand(t, NewRotationCommand(testConfig(t, storeDir)), "init")
	require.NoError(t, err)
	assert.Contains(t, out, "already tracked")

	out, err = runCommand(t, NewRotationCommand(testConfig(t, storeDir)), "status")
	require.NoError(t, err)
	assert.Contains(t, out, "BOTCHAN_API_KEY")
	assert.Contains(t, out, "ok")

	out, err = runCommand(t, NewRotationCommand(testConfig(t, storeDir)), "record", "BOTCHAN_API_KEY")
	require.NoError(t, err)
	assert.Contains(t, out, "Rotation of BOTCHAN_API_KEY recorded")

	out, err = runCommand(t, NewRotationCommand(testConfig(t, storeDir)), "reclassify")
	require.NoError(t, err)
	assert.Contains(t, out, "No tiers changed")
}

func TestRotationReclassifyPinsTier(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	writeSourceFile(t, src, ".env", "BOTCHAN_API_KEY=sk_live_vq91kz7734mmxp\n")
	storeDir := t.TempDir()

	_, err := runCommand(t, NewConsolidateCommand(testConfig(t, storeDir, src)))
	require.NoError(t, err)

	out, err := runCommand(t, NewRotationCommand(testConfig(t, storeDir)),
		"reclassify", "BOTCHAN_API_KEY", "critical")
	require.NoError(t, err)
	assert.Contains(t, out, "BOTCHAN_API_KEY is now critical")

	// A blanket reclassify recomputes from the name and undoes the pin.
	out, err = runCommand(t, NewRotationCommand(testConfig(t, storeDir)), "reclassify")
	require.NoError(t, err)
	assert.Contains(t, out, "reclassified BOTCHAN_API_KEY")
}

func TestRotationReclassifyRejectsBadTier(t *testing.T) {
	t.Parallel()
	_, err := runCommand(t, NewRotationCommand(testConfig(t, t.TempDir())),
		"reclassify", "A_TOKEN", "extreme")
	assert.Error(t, err)
}

func TestRotationRecordUnknownKey(t *testing.T) {
	t.Parallel()
	_, err := runCommand(t, NewRotationCommand(testConfig(t, t.TempDir())), "record", "NOPE_TOKEN")
	assert.Error(t, err)
}

func TestRotationStatusDueFilter(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	writeSourceFile(t, src, ".env", "BOTCHAN_API_KEY=sk_live_vq91kz7734mmxp\n")
	storeDir := t.TempDir()

	_, err := runCommand(t, NewConsolidateCommand(testConfig(t, storeDir, src)))
	require.NoError(t, err)

	// Freshly tracked keys are not due, so the filter hides them.
	out, err := runCommand(t, NewRotationCommand(testConfig(t, storeDir)), "status", "--due")
	require.NoError(t, err)
	assert.NotContains(t, out, "BOTCHAN_API_KEY")
}

package cipher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	credmanerrors "github.com/openclaw/credman/internal/errors"
)

func TestAESGCM_RoundTrip(t *testing.T) {
	t.Parallel()

	backend := NewAESGCM()
	plaintext := []byte(`{"WALLET_KEY":"0xdeadbeef"}`)

	blob, err := backend.Encrypt(plaintext, []byte("correct horse"))
	require.NoError(t, err)
	assert.NotContains(t, string(blob), "WALLET_KEY")

	got, err := backend.Decrypt(blob, []byte("correct horse"))
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestAESGCM_WrongPassphrase(t *testing.T) {
	t.Parallel()

	backend := NewAESGCM()

	blob, err := backend.Encrypt([]byte("secret"), []byte("right"))
	require.NoError(t, err)

	got, err := backend.Decrypt(blob, []byte("wrong"))
	assert.ErrorIs(t, err, credmanerrors.ErrDecryptionFailed)
	assert.Nil(t, got, "no partial output on failure")
}

func TestAESGCM_TamperedBlob(t *testing.T) {
	t.Parallel()

	backend := NewAESGCM()

	blob, err := backend.Encrypt([]byte("secret"), []byte("pass"))
	require.NoError(t, err)

	blob[len(blob)-1] ^= 0xFF
	_, err = backend.Decrypt(blob, []byte("pass"))
	assert.ErrorIs(t, err, credmanerrors.ErrDecryptionFailed)
}

func TestAESGCM_TruncatedBlob(t *testing.T) {
	t.Parallel()

	backend := NewAESGCM()

	_, err := backend.Decrypt([]byte("short"), []byte("pass"))
	assert.ErrorIs(t, err, credmanerrors.ErrDecryptionFailed)

	_, err = backend.Decrypt(nil, []byte("pass"))
	assert.ErrorIs(t, err, credmanerrors.ErrDecryptionFailed)
}

func TestAESGCM_WrongMagic(t *testing.T) {
	t.Parallel()

	backend := NewAESGCM()

	blob, err := backend.Encrypt([]byte("secret"), []byte("pass"))
	require.NoError(t, err)

	blob[0] = 'X'
	_, err = backend.Decrypt(blob, []byte("pass"))
	assert.ErrorIs(t, err, credmanerrors.ErrDecryptionFailed)
}

func TestAESGCM_EmptyPassphrase(t *testing.T) {
	t.Parallel()

	backend := NewAESGCM()

	_, err := backend.Encrypt([]byte("secret"), nil)
	assert.ErrorIs(t, err, credmanerrors.ErrNoPassphrase)

	_, err = backend.Decrypt([]byte("whatever"), nil)
	assert.ErrorIs(t, err, credmanerrors.ErrNoPassphrase)
}

func TestAESGCM_FreshSaltPerEncrypt(t *testing.T) {
	t.Parallel()

	backend := NewAESGCM()

	a, err := backend.Encrypt([]byte("same plaintext"), []byte("pass"))
	require.NoError(t, err)
	b, err := backend.Encrypt([]byte("same plaintext"), []byte("pass"))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

package secure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuffer_RoundTrip(t *testing.T) {
	secret := []byte("correct horse battery staple")
	buf := NewBuffer(secret)
	defer buf.Destroy()

	locked, err := buf.Open()
	require.NoError(t, err)
	defer locked.Destroy()

	assert.Equal(t, "correct horse battery staple", string(locked.Bytes()))
}

func TestBuffer_OpenTwice(t *testing.T) {
	buf := NewBuffer([]byte("pass"))
	defer buf.Destroy()

	for i := 0; i < 2; i++ {
		locked, err := buf.Open()
		require.NoError(t, err)
		assert.Equal(t, "pass", string(locked.Bytes()))
		locked.Destroy()
	}
}

func TestBuffer_DestroyIsIdempotent(t *testing.T) {
	buf := NewBuffer([]byte("pass"))
	buf.Destroy()
	buf.Destroy()

	locked, err := buf.Open()
	require.NoError(t, err)
	defer locked.Destroy()
	assert.Empty(t, locked.Bytes())
}

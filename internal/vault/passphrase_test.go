package vault

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	credmanerrors "github.com/openclaw/credman/internal/errors"
	"github.com/openclaw/credman/internal/passcache"
)

func TestPassphraseResolutionOrder(t *testing.T) {
	t.Run("cache wins", func(t *testing.T) {
		cache := passcache.NewMemory()
		require.NoError(t, cache.Set([]byte("cached"), time.Minute))

		prompted := false
		src := &PassphraseSource{
			Cache:  cache,
			EnvVar: "CREDMAN_TEST_PASS",
			Prompt: func(string) ([]byte, error) {
				prompted = true
				return []byte("prompted"), nil
			},
		}
		t.Setenv("CREDMAN_TEST_PASS", "from-env")

		pass, err := src.Resolve()
		require.NoError(t, err)
		assert.Equal(t, "cached", string(pass))
		assert.False(t, prompted)
	})

	t.Run("environment before prompt", func(t *testing.T) {
		src := &PassphraseSource{
			EnvVar: "CREDMAN_TEST_PASS",
			Prompt: func(string) ([]byte, error) {
				t.Fatal("prompt should not run when the environment is set")
				return nil, nil
			},
		}
		t.Setenv("CREDMAN_TEST_PASS", "from-env")

		pass, err := src.Resolve()
		require.NoError(t, err)
		assert.Equal(t, "from-env", string(pass))
	})

	t.Run("prompt populates cache", func(t *testing.T) {
		cache := passcache.NewMemory()
		src := &PassphraseSource{
			Cache:  cache,
			EnvVar: "CREDMAN_TEST_PASS_UNSET",
			Prompt: func(string) ([]byte, error) {
				return []byte("typed"), nil
			},
		}

		pass, err := src.Resolve()
		require.NoError(t, err)
		assert.Equal(t, "typed", string(pass))

		cached, ok := cache.Get()
		require.True(t, ok)
		assert.Equal(t, "typed", string(cached))
	})

	t.Run("nothing available", func(t *testing.T) {
		src := &PassphraseSource{EnvVar: "CREDMAN_TEST_PASS_UNSET"}
		_, err := src.Resolve()
		assert.True(t, errors.Is(err, credmanerrors.ErrNoPassphrase))
	})

	t.Run("empty prompt result is no passphrase", func(t *testing.T) {
		src := &PassphraseSource{
			EnvVar: "CREDMAN_TEST_PASS_UNSET",
			Prompt: func(string) ([]byte, error) { return nil, nil },
		}
		_, err := src.Resolve()
		assert.True(t, errors.Is(err, credmanerrors.ErrNoPassphrase))
	})

	t.Run("prompt error propagates", func(t *testing.T) {
		boom := errors.New("terminal gone")
		src := &PassphraseSource{
			EnvVar: "CREDMAN_TEST_PASS_UNSET",
			Prompt: func(string) ([]byte, error) { return nil, boom },
		}
		_, err := src.Resolve()
		assert.ErrorIs(t, err, boom)
	})
}

func TestPassphraseForget(t *testing.T) {
	cache := passcache.NewMemory()
	require.NoError(t, cache.Set([]byte("cached"), time.Minute))

	src := &PassphraseSource{Cache: cache, EnvVar: "CREDMAN_TEST_PASS_UNSET"}
	src.Forget()

	_, ok := cache.Get()
	assert.False(t, ok)
}

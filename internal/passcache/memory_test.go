package passcache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SetAndGet(t *testing.T) {
	t.Parallel()

	cache := NewMemory()

	_, ok := cache.Get()
	assert.False(t, ok, "empty cache misses")

	require.NoError(t, cache.Set([]byte("hunter2"), time.Minute))

	got, ok := cache.Get()
	require.True(t, ok)
	assert.Equal(t, "hunter2", string(got))
}

func TestMemory_Expiry(t *testing.T) {
	t.Parallel()

	cache := NewMemory()
	current := time.Now()
	cache.now = func() time.Time { return current }

	require.NoError(t, cache.Set([]byte("hunter2"), time.Minute))

	_, ok := cache.Get()
	assert.True(t, ok)

	current = current.Add(2 * time.Minute)
	_, ok = cache.Get()
	assert.False(t, ok, "expired entry behaves like a miss")
}

func TestMemory_Clear(t *testing.T) {
	t.Parallel()

	cache := NewMemory()
	require.NoError(t, cache.Set([]byte("hunter2"), time.Minute))
	require.NoError(t, cache.Clear())

	_, ok := cache.Get()
	assert.False(t, ok)
}

func TestMemory_GetReturnsCopy(t *testing.T) {
	t.Parallel()

	cache := NewMemory()
	require.NoError(t, cache.Set([]byte("hunter2"), time.Minute))

	got, ok := cache.Get()
	require.True(t, ok)
	got[0] = 'X'

	again, ok := cache.Get()
	require.True(t, ok)
	assert.Equal(t, "hunter2", string(again), "callers cannot mutate the cached copy")
}

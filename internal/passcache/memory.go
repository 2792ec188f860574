package passcache

import (
	"sync"
	"time"
)

// Memory caches the passphrase in process memory with automatic
// expiration. Thread-safe; nothing is persisted to disk.
type Memory struct {
	mu         sync.RWMutex
	passphrase []byte
	expiresAt  time.Time

	// now is swappable for expiry tests
	now func() time.Time
}

// NewMemory creates an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{now: time.Now}
}

// Get retrieves the cached passphrase if it exists and is not expired.
func (m *Memory) Get() ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.passphrase) == 0 || m.now().After(m.expiresAt) {
		return nil, false
	}
	out := make([]byte, len(m.passphrase))
	copy(out, m.passphrase)
	return out, true
}

// Set stores a passphrase with the specified TTL.
func (m *Memory) Set(passphrase []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.wipe()
	m.passphrase = make([]byte, len(passphrase))
	copy(m.passphrase, passphrase)
	m.expiresAt = m.now().Add(ttl)
	return nil
}

// Clear removes and wipes the cached passphrase.
func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.wipe()
	m.expiresAt = time.Time{}
	return nil
}

func (m *Memory) wipe() {
	for i := range m.passphrase {
		m.passphrase[i] = 0
	}
	m.passphrase = nil
}

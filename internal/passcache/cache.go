// Package passcache provides the time-bounded passphrase cache the
// vault consults before prompting. The cache agent (the OS keyring or
// an in-memory session) is owned by the environment; the vault reads
// from it and may populate it, but never extends an entry's lifetime.
package passcache

import "time"

// Cache is the passphrase cache contract. Implementations must treat
// an expired entry exactly like a missing one.
type Cache interface {
	// Get returns the cached passphrase if present and unexpired.
	Get() ([]byte, bool)
	// Set stores a passphrase with the given TTL, replacing any
	// existing entry.
	Set(passphrase []byte, ttl time.Duration) error
	// Clear removes the cached passphrase.
	Clear() error
}

// DefaultTTL bounds how long a cached passphrase stays usable when the
// operator does not configure a session length.
const DefaultTTL = 15 * time.Minute

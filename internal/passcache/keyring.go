package passcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "credman"
	keyringAccount = "container-passphrase"
)

// Keyring caches the passphrase in the OS keyring (Secret Service,
// Keychain, or Credential Manager), which survives across process
// invocations. The TTL is recorded alongside the passphrase; an entry
// past its expiry is deleted on read, never silently honored.
type Keyring struct {
	service string
	account string

	// now is swappable for expiry tests
	now func() time.Time
}

// NewKeyring creates a keyring-backed cache using the default service
// and account names.
func NewKeyring() *Keyring {
	return &Keyring{service: keyringService, account: keyringAccount, now: time.Now}
}

// entry is the JSON payload stored in the keyring item.
type entry struct {
	Passphrase string    `json:"passphrase"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Get retrieves the cached passphrase if present and unexpired.
func (k *Keyring) Get() ([]byte, bool) {
	raw, err := keyring.Get(k.service, k.account)
	if err != nil {
		return nil, false
	}

	var e entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		// Unparseable entries are stale state from an older version;
		// drop them rather than guess.
		_ = keyring.Delete(k.service, k.account)
		return nil, false
	}

	if k.now().After(e.ExpiresAt) {
		_ = keyring.Delete(k.service, k.account)
		return nil, false
	}
	return []byte(e.Passphrase), true
}

// Set stores a passphrase with the given TTL.
func (k *Keyring) Set(passphrase []byte, ttl time.Duration) error {
	e := entry{
		Passphrase: string(passphrase),
		ExpiresAt:  k.now().Add(ttl),
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}
	if err := keyring.Set(k.service, k.account, string(raw)); err != nil {
		return fmt.Errorf("storing passphrase in keyring: %w", err)
	}
	return nil
}

// Clear removes the cached passphrase. A missing entry is not an error.
func (k *Keyring) Clear() error {
	err := keyring.Delete(k.service, k.account)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("clearing keyring entry: %w", err)
	}
	return nil
}

var _ Cache = (*Keyring)(nil)
var _ Cache = (*Memory)(nil)

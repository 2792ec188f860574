package vault

import (
	"encoding/json"
	"fmt"
	"os"

	credmanerrors "github.com/openclaw/credman/internal/errors"
	"github.com/openclaw/credman/internal/fsutil"
	"github.com/openclaw/credman/internal/vault/cipher"
)

// container is the decrypted form of the encrypted sidecar file: a
// flat map of canonical key to value. The plaintext only ever exists
// in memory between a load and a save.
type container struct {
	entries map[string]string
}

func newContainer() *container {
	return &container{entries: make(map[string]string)}
}

// loadContainer decrypts the sidecar file. A missing file yields an
// empty container so first-time encryption needs no special case.
func loadContainer(path string, backend cipher.Backend, passphrase []byte) (*container, error) {
	blob, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return newContainer(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading container %s: %w", path, err)
	}

	plaintext, err := backend.Decrypt(blob, passphrase)
	if err != nil {
		return nil, err
	}
	defer wipe(plaintext)

	c := newContainer()
	if err := json.Unmarshal(plaintext, &c.entries); err != nil {
		return nil, fmt.Errorf("container %s: %w", path, credmanerrors.ErrStoreCorrupt)
	}
	return c, nil
}

// save encrypts and atomically replaces the sidecar file. An empty
// container removes the file instead.
func (c *container) save(path string, backend cipher.Backend, passphrase []byte) error {
	if len(c.entries) == 0 {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing empty container %s: %w", path, err)
		}
		return nil
	}

	plaintext, err := json.Marshal(c.entries)
	if err != nil {
		return fmt.Errorf("encoding container: %w", err)
	}
	defer wipe(plaintext)

	blob, err := backend.Encrypt(plaintext, passphrase)
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(path, blob, 0600)
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

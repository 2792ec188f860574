package secure

import (
	"sync"

	"github.com/awnumar/memguard"
)

// Buffer stores sensitive bytes encrypted at rest in memory, protected
// from swapping via mlock where the platform allows it.
type Buffer struct {
	enclave *memguard.Enclave
	mu      sync.RWMutex
	// destroyed allows idempotent Destroy() calls and prevents use
	// after destroy
	destroyed bool
}

// NewBuffer copies data into a protected memory region. The caller
// should zero its own copy afterwards.
func NewBuffer(data []byte) *Buffer {
	return &Buffer{enclave: memguard.NewEnclave(data)}
}

// Open decrypts and returns the protected data in a locked buffer.
// The caller MUST call Destroy() on the returned LockedBuffer when done
// to wipe the plaintext from memory:
//
//	locked, err := buf.Open()
//	if err != nil {
//	    return err
//	}
//	defer locked.Destroy()
//	use(locked.Bytes())
func (b *Buffer) Open() (*memguard.LockedBuffer, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.destroyed {
		return memguard.NewBufferFromBytes([]byte{}), nil
	}
	return b.enclave.Open()
}

// Destroy marks the buffer as unusable. Idempotent; after Destroy,
// Open returns an empty buffer. The encrypted enclave data is safe to
// leave for the garbage collector; call memguard.Purge() at process
// exit for full cleanup.
func (b *Buffer) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.destroyed {
		return
	}
	b.enclave = nil
	b.destroyed = true
}

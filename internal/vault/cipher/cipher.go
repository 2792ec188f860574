// Package cipher defines the injected backend the vault uses to
// encrypt and decrypt its container. The vault never touches key
// material directly; it hands the backend a passphrase and a blob.
package cipher

// Backend is the symmetric cipher contract. Implementations derive the
// key from the passphrase; the blob format is implementation-owned and
// self-describing.
type Backend interface {
	// Encrypt seals plaintext under a passphrase-derived key.
	Encrypt(plaintext, passphrase []byte) ([]byte, error)
	// Decrypt opens a blob produced by Encrypt. A wrong passphrase or a
	// tampered blob fails with ErrDecryptionFailed and produces no
	// partial output.
	Decrypt(blob, passphrase []byte) ([]byte, error)
}

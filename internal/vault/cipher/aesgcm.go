package cipher

import (
	"bytes"
	"crypto/aes"
	stdcipher "crypto/cipher"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/argon2"

	credmanerrors "github.com/openclaw/credman/internal/errors"
)

// AESGCM seals the container with AES-256-GCM under an argon2id
// passphrase-derived key. The blob is self-describing:
//
//	magic (4) | salt (16) | nonce (12) | ciphertext+tag
//
// Each Encrypt draws a fresh salt and nonce, so re-encrypting the same
// container never reuses a (key, nonce) pair.
type AESGCM struct{}

// NewAESGCM creates the default cipher backend.
func NewAESGCM() *AESGCM {
	return &AESGCM{}
}

var magic = []byte("CMV1")

const (
	saltSize  = 16
	nonceSize = 12
	keySize   = 32

	// argon2id parameters, RFC 9106 second recommended option
	argonTime    = 3
	argonMemory  = 64 * 1024
	argonThreads = 4
)

func deriveKey(passphrase, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, argonTime, argonMemory, argonThreads, keySize)
}

// Encrypt seals plaintext under the passphrase.
func (a *AESGCM) Encrypt(plaintext, passphrase []byte) ([]byte, error) {
	if len(passphrase) == 0 {
		return nil, credmanerrors.ErrNoPassphrase
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}

	aead, err := newAEAD(passphrase, salt)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}

	blob := make([]byte, 0, len(magic)+saltSize+nonceSize+len(plaintext)+aead.Overhead())
	blob = append(blob, magic...)
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = aead.Seal(blob, nonce, plaintext, magic)
	return blob, nil
}

// Decrypt opens a blob produced by Encrypt.
func (a *AESGCM) Decrypt(blob, passphrase []byte) ([]byte, error) {
	if len(passphrase) == 0 {
		return nil, credmanerrors.ErrNoPassphrase
	}

	header := len(magic) + saltSize + nonceSize
	if len(blob) < header || !bytes.Equal(blob[:len(magic)], magic) {
		return nil, fmt.Errorf("%w: container header invalid", credmanerrors.ErrDecryptionFailed)
	}

	salt := blob[len(magic) : len(magic)+saltSize]
	nonce := blob[len(magic)+saltSize : header]

	aead, err := newAEAD(passphrase, salt)
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Open(nil, nonce, blob[header:], magic)
	if err != nil {
		// Wrong passphrase and tampering are indistinguishable here, and
		// must stay that way.
		return nil, credmanerrors.ErrDecryptionFailed
	}
	return plaintext, nil
}

func newAEAD(passphrase, salt []byte) (stdcipher.AEAD, error) {
	key := deriveKey(passphrase, salt)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating AES cipher: %w", err)
	}
	aead, err := stdcipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}
	return aead, nil
}

var _ Backend = (*AESGCM)(nil)

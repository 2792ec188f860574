// Package secure wraps memguard enclaves for the two in-memory secrets
// this tool handles: the container passphrase and a decrypted container
// held for the duration of a single vault operation. Plaintext never
// outlives the operation that opened it.
package secure

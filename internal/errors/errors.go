package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the credential pipeline. Callers match these with
// errors.Is; the concrete wrapping error carries the offending path or
// key name but never a credential value.
var (
	// ErrUnreadableSource indicates a source file could not be opened or
	// is not accessible to the owner.
	ErrUnreadableSource = errors.New("unreadable source")

	// ErrUnsupportedFormat indicates a source file could not be parsed as
	// key-value, assignment lines, or a JSON document.
	ErrUnsupportedFormat = errors.New("unsupported source format")

	// ErrNormalizationConflict indicates two distinct source values mapped
	// to the same canonical key.
	ErrNormalizationConflict = errors.New("normalization conflict")

	// ErrEncryptionUnavailable indicates no cipher backend is configured.
	ErrEncryptionUnavailable = errors.New("encryption unavailable")

	// ErrNoPassphrase indicates neither the cache, the environment, nor an
	// interactive prompt produced a passphrase.
	ErrNoPassphrase = errors.New("no passphrase available")

	// ErrDecryptionFailed indicates a wrong passphrase or a corrupted
	// container. It is never retried automatically.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrInsecurePermissions indicates the store or a related file is not
	// owner-only.
	ErrInsecurePermissions = errors.New("insecure permissions")

	// ErrStoreCorrupt indicates the canonical store file could not be
	// parsed.
	ErrStoreCorrupt = errors.New("store corrupt")

	// ErrNotFound indicates a canonical key is not present in the store.
	ErrNotFound = errors.New("credential not found")
)

// UserError represents an error that should be shown to the user with helpful context
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error with helpful context
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// SourceError wraps a per-file scan or parse failure. Scans collect these
// and keep going; a single unreadable file must not abort discovery.
type SourceError struct {
	Path string
	Err  error
}

func (e SourceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e SourceError) Unwrap() error {
	return e.Err
}

// KeyError wraps a failure scoped to a single canonical key. The key name
// is safe to surface; the value never is.
type KeyError struct {
	Key string
	Err error
}

func (e KeyError) Error() string {
	return fmt.Sprintf("key %s: %v", e.Key, e.Err)
}

func (e KeyError) Unwrap() error {
	return e.Err
}

// Suggestion returns remediation advice for a pipeline sentinel, or ""
// when there is nothing actionable to add.
func Suggestion(err error) string {
	switch {
	case errors.Is(err, ErrInsecurePermissions):
		return "Run 'credman validate --fix' to tighten file modes"
	case errors.Is(err, ErrNoPassphrase):
		return "Set CREDMAN_PASSPHRASE or run interactively to be prompted"
	case errors.Is(err, ErrDecryptionFailed):
		return "Check the passphrase; if it is correct the container may be corrupted, restore it from backups"
	case errors.Is(err, ErrStoreCorrupt):
		return "Restore the store file from the most recent backup directory"
	case errors.Is(err, ErrNotFound):
		return "Run 'credman scan' and 'credman consolidate' to import it, or add the key manually"
	}
	return ""
}

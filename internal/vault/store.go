// Package vault owns the on-disk credential store: a plaintext env
// file plus an encrypted container for high-risk values. The store
// file stays the single index; encrypted values appear in it as
// GPG:<KEY> references. All writes are atomic and owner-only, and
// mutations take an advisory lock so concurrent runs never interleave.
package vault

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/openclaw/credman/internal/classify"
	credmanerrors "github.com/openclaw/credman/internal/errors"
	"github.com/openclaw/credman/internal/fsutil"
	"github.com/openclaw/credman/internal/logging"
	"github.com/openclaw/credman/internal/normalize"
	"github.com/openclaw/credman/internal/permissions"
	"github.com/openclaw/credman/internal/secure"
	"github.com/openclaw/credman/internal/vault/cipher"
)

// Store layout inside the credential directory.
const (
	StoreFile     = ".env"
	ContainerFile = ".env.secrets.gpg"
	MetaFile      = ".env.meta"
	ExampleFile   = ".env.example"
	lockName      = ".credman.lock"
)

// Options configures a Store. Cipher may be nil, in which case every
// encryption operation fails with ErrEncryptionUnavailable but the
// plaintext side keeps working.
type Options struct {
	Dir         string
	Cipher      cipher.Backend
	Passphrases *PassphraseSource
	Logger      *logging.Logger
}

// Store is the credential store rooted at a single directory.
type Store struct {
	dir    string
	cipher cipher.Backend
	source *PassphraseSource
	logger *logging.Logger

	// pass holds the resolved passphrase in protected memory for the
	// lifetime of the Store, so one process resolves at most once.
	pass *secure.Buffer
}

// Open prepares the store directory and returns a Store. The directory
// is created owner-only if missing.
func Open(opts Options) (*Store, error) {
	if opts.Dir == "" {
		return nil, credmanerrors.ConfigError{
			Field:      "dir",
			Message:    "store directory is required",
			Suggestion: "Set store.dir in credman.yaml or pass --store",
		}
	}
	if err := os.MkdirAll(opts.Dir, 0700); err != nil {
		return nil, fmt.Errorf("creating store directory %s: %w", opts.Dir, err)
	}
	src := opts.Passphrases
	if src == nil {
		src = &PassphraseSource{}
	}
	return &Store{
		dir:    opts.Dir,
		cipher: opts.Cipher,
		source: src,
		logger: opts.Logger,
	}, nil
}

// Dir returns the store root directory.
func (s *Store) Dir() string { return s.dir }

// EnvPath returns the canonical store file path.
func (s *Store) EnvPath() string { return filepath.Join(s.dir, StoreFile) }

// ContainerPath returns the encrypted container path.
func (s *Store) ContainerPath() string { return filepath.Join(s.dir, ContainerFile) }

// MetaPath returns the rotation metadata path.
func (s *Store) MetaPath() string { return filepath.Join(s.dir, MetaFile) }

func (s *Store) lockPath() string { return filepath.Join(s.dir, lockName) }

// Entry describes one stored credential without exposing its value.
type Entry struct {
	Key       string
	Encrypted bool
}

// List returns every stored key in file order with its storage state.
func (s *Store) List() ([]Entry, error) {
	lock, err := acquireLock(s.lockPath(), false)
	if err != nil {
		return nil, err
	}
	defer lock.release()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	var entries []Entry
	for _, key := range doc.keys() {
		value, _ := doc.get(key)
		entries = append(entries, Entry{
			Key:       key,
			Encrypted: strings.HasPrefix(value, RefPrefix),
		})
	}
	return entries, nil
}

// Get returns the value for a canonical key, transparently decrypting
// a referenced value. The caller owns the returned bytes and should
// wipe them when done.
func (s *Store) Get(key string) ([]byte, error) {
	lock, err := acquireLock(s.lockPath(), false)
	if err != nil {
		return nil, err
	}
	defer lock.release()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	value, ok := doc.get(key)
	if !ok {
		return nil, credmanerrors.KeyError{Key: key, Err: credmanerrors.ErrNotFound}
	}
	if !strings.HasPrefix(value, RefPrefix) {
		return []byte(value), nil
	}

	c, err := s.openContainer()
	if err != nil {
		return nil, err
	}
	plain, ok := c.entries[key]
	if !ok {
		// A dangling reference means the container and the index have
		// diverged.
		return nil, credmanerrors.KeyError{Key: key, Err: credmanerrors.ErrStoreCorrupt}
	}
	return []byte(plain), nil
}

// Set stores a value under a canonical key. With encrypt true the
// value goes into the container and the store file records a
// reference.
func (s *Store) Set(key, value string, encrypt bool) error {
	if !normalize.IsCanonical(key) {
		return credmanerrors.KeyError{
			Key: key,
			Err: fmt.Errorf("not a canonical name: %w", credmanerrors.ErrNormalizationConflict),
		}
	}

	lock, err := acquireLock(s.lockPath(), true)
	if err != nil {
		return err
	}
	defer lock.release()

	doc, err := s.load()
	if err != nil {
		return err
	}

	if !encrypt {
		// A plaintext write over a reference retires the container
		// entry too, otherwise the old value lingers encrypted.
		if old, ok := doc.get(key); ok && strings.HasPrefix(old, RefPrefix) {
			pass, done, err := s.passphrase()
			if err != nil {
				return err
			}
			defer done()
			c, err := loadContainer(s.ContainerPath(), s.cipher, pass)
			if err != nil {
				return s.decorateDecryptErr(err)
			}
			delete(c.entries, key)
			if err := c.save(s.ContainerPath(), s.cipher, pass); err != nil {
				return err
			}
		}
		doc.set(key, value)
		return s.save(doc)
	}

	if s.cipher == nil {
		return credmanerrors.ErrEncryptionUnavailable
	}
	pass, done, err := s.passphrase()
	if err != nil {
		return err
	}
	defer done()

	c, err := loadContainer(s.ContainerPath(), s.cipher, pass)
	if err != nil {
		return s.decorateDecryptErr(err)
	}
	c.entries[key] = value
	if err := c.save(s.ContainerPath(), s.cipher, pass); err != nil {
		return err
	}
	doc.set(key, RefPrefix+key)
	return s.save(doc)
}

// Delete removes a key from the store and, when referenced, from the
// container.
func (s *Store) Delete(key string) error {
	lock, err := acquireLock(s.lockPath(), true)
	if err != nil {
		return err
	}
	defer lock.release()

	doc, err := s.load()
	if err != nil {
		return err
	}
	value, ok := doc.get(key)
	if !ok {
		return credmanerrors.KeyError{Key: key, Err: credmanerrors.ErrNotFound}
	}

	if strings.HasPrefix(value, RefPrefix) {
		pass, done, err := s.passphrase()
		if err != nil {
			return err
		}
		defer done()
		c, err := loadContainer(s.ContainerPath(), s.cipher, pass)
		if err != nil {
			return s.decorateDecryptErr(err)
		}
		delete(c.entries, key)
		if err := c.save(s.ContainerPath(), s.cipher, pass); err != nil {
			return err
		}
	}

	doc.delete(key)
	return s.save(doc)
}

// MoveToEncrypted moves a plaintext value into the container, leaving
// a reference behind. The container is written before the store file,
// so a crash between the two leaves the key readable as plaintext and
// the value at worst duplicated, never lost.
func (s *Store) MoveToEncrypted(key string) error {
	if s.cipher == nil {
		return credmanerrors.ErrEncryptionUnavailable
	}

	lock, err := acquireLock(s.lockPath(), true)
	if err != nil {
		return err
	}
	defer lock.release()

	doc, err := s.load()
	if err != nil {
		return err
	}
	value, ok := doc.get(key)
	if !ok {
		return credmanerrors.KeyError{Key: key, Err: credmanerrors.ErrNotFound}
	}
	if strings.HasPrefix(value, RefPrefix) {
		s.logf("%s is already encrypted", key)
		return nil
	}

	pass, done, err := s.passphrase()
	if err != nil {
		return err
	}
	defer done()

	c, err := loadContainer(s.ContainerPath(), s.cipher, pass)
	if err != nil {
		return s.decorateDecryptErr(err)
	}
	c.entries[key] = value
	if err := c.save(s.ContainerPath(), s.cipher, pass); err != nil {
		return err
	}

	doc.set(key, RefPrefix+key)
	return s.save(doc)
}

// MoveToPlaintext restores a referenced value into the store file and
// drops it from the container.
func (s *Store) MoveToPlaintext(key string) error {
	if s.cipher == nil {
		return credmanerrors.ErrEncryptionUnavailable
	}

	lock, err := acquireLock(s.lockPath(), true)
	if err != nil {
		return err
	}
	defer lock.release()

	doc, err := s.load()
	if err != nil {
		return err
	}
	value, ok := doc.get(key)
	if !ok {
		return credmanerrors.KeyError{Key: key, Err: credmanerrors.ErrNotFound}
	}
	if !strings.HasPrefix(value, RefPrefix) {
		s.logf("%s is already plaintext", key)
		return nil
	}

	pass, done, err := s.passphrase()
	if err != nil {
		return err
	}
	defer done()

	c, err := loadContainer(s.ContainerPath(), s.cipher, pass)
	if err != nil {
		return s.decorateDecryptErr(err)
	}
	plain, ok := c.entries[key]
	if !ok {
		return credmanerrors.KeyError{Key: key, Err: credmanerrors.ErrStoreCorrupt}
	}

	doc.set(key, plain)
	if err := s.save(doc); err != nil {
		return err
	}

	delete(c.entries, key)
	return c.save(s.ContainerPath(), s.cipher, pass)
}

// MergePolicy controls what happens when an incoming key already
// exists with a different value.
type MergePolicy int

const (
	// PolicyKeepExisting leaves the stored value untouched.
	PolicyKeepExisting MergePolicy = iota
	// PolicyOverwrite replaces the stored value.
	PolicyOverwrite
	// PolicyAsk defers to the caller-supplied decision function.
	PolicyAsk
)

// MergeEntry is one normalized credential to merge into the store.
type MergeEntry struct {
	Key   string
	Value string
}

// MergeResult reports what a merge changed. Only key names appear
// here, never values.
type MergeResult struct {
	Added   []string
	Updated []string
	Skipped []string
	// Conflicts lists keys whose incoming value differed from the
	// stored one, regardless of how the policy resolved them.
	Conflicts []string
	// NeedsEncryption lists merged keys classified critical that are
	// still sitting in plaintext. Encryption stays a separate,
	// deliberate step.
	NeedsEncryption []string
	// Rejected lists entries whose key was not a canonical name. They
	// are reported rather than aborting the rest of the merge.
	Rejected []string
}

// Merge folds normalized entries into the store under one lock and one
// write. Identical values are skipped silently; keys already stored as
// encrypted references are never overwritten by a merge. The ask
// function is consulted only under PolicyAsk and a nil ask keeps the
// existing value.
func (s *Store) Merge(entries []MergeEntry, policy MergePolicy, ask func(key string) bool) (MergeResult, error) {
	var res MergeResult

	lock, err := acquireLock(s.lockPath(), true)
	if err != nil {
		return res, err
	}
	defer lock.release()

	doc, err := s.load()
	if err != nil {
		return res, err
	}

	changed := false
	for _, e := range entries {
		if !normalize.IsCanonical(e.Key) {
			res.Rejected = append(res.Rejected, e.Key)
			continue
		}

		existing, ok := doc.get(e.Key)
		switch {
		case !ok:
			doc.set(e.Key, e.Value)
			res.Added = append(res.Added, e.Key)
			changed = true
		case strings.HasPrefix(existing, RefPrefix):
			res.Skipped = append(res.Skipped, e.Key)
		case existing == e.Value:
			res.Skipped = append(res.Skipped, e.Key)
		default:
			res.Conflicts = append(res.Conflicts, e.Key)
			overwrite := policy == PolicyOverwrite
			if policy == PolicyAsk && ask != nil {
				overwrite = ask(e.Key)
			}
			if overwrite {
				doc.set(e.Key, e.Value)
				res.Updated = append(res.Updated, e.Key)
				changed = true
			} else {
				res.Skipped = append(res.Skipped, e.Key)
			}
		}

		if classify.TierForKey(e.Key) == classify.TierCritical {
			if v, ok := doc.get(e.Key); ok && !strings.HasPrefix(v, RefPrefix) {
				res.NeedsEncryption = append(res.NeedsEncryption, e.Key)
			}
		}
	}

	if changed {
		if err := s.save(doc); err != nil {
			return res, err
		}
	}
	sort.Strings(res.NeedsEncryption)
	return res, nil
}

// RequireSecure fails unless the store file exists owner-only and is
// covered by the directory's .gitignore.
func (s *Store) RequireSecure() error {
	checker := permissions.NewChecker(s.logger)
	if issue := checker.CheckDir(s.dir); issue != nil && !issue.Missing {
		return credmanerrors.UserError{
			Message: "Store directory is not owner-only",
			Details: issue.String(),
			Err:     credmanerrors.ErrInsecurePermissions,
		}
	}
	return checker.Enforce(s.EnvPath())
}

// EnsureGitignore writes or completes the store directory's .gitignore
// so the credential files can never be committed.
func (s *Store) EnsureGitignore() error {
	checker := permissions.NewChecker(s.logger)
	return checker.FixGitignore(s.dir, checker.CheckGitignore(s.dir))
}

// WriteExample writes a .env.example with every key and no values,
// safe to commit alongside code that consumes the credentials.
func (s *Store) WriteExample() error {
	lock, err := acquireLock(s.lockPath(), false)
	if err != nil {
		return err
	}
	defer lock.release()

	doc, err := s.load()
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Generated %s. Keys only; fill in values locally.\n",
		time.Now().UTC().Format("2006-01-02"))
	for _, key := range doc.sortedKeys() {
		b.WriteString(key)
		b.WriteString("=\n")
	}
	return fsutil.WriteFileAtomic(filepath.Join(s.dir, ExampleFile), []byte(b.String()), 0644)
}

// load parses the store file; a missing file is an empty store.
func (s *Store) load() (*document, error) {
	data, err := os.ReadFile(s.EnvPath())
	if os.IsNotExist(err) {
		return &document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.EnvPath(), err)
	}
	doc, err := parseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.EnvPath(), err)
	}
	return doc, nil
}

func (s *Store) save(doc *document) error {
	return fsutil.WriteFileAtomic(s.EnvPath(), doc.render(), 0600)
}

// openContainer resolves the passphrase and decrypts the container.
func (s *Store) openContainer() (*container, error) {
	if s.cipher == nil {
		return nil, credmanerrors.ErrEncryptionUnavailable
	}
	pass, done, err := s.passphrase()
	if err != nil {
		return nil, err
	}
	defer done()

	c, err := loadContainer(s.ContainerPath(), s.cipher, pass)
	if err != nil {
		return nil, s.decorateDecryptErr(err)
	}
	return c, nil
}

// passphrase returns the resolved passphrase and a release function.
// The first resolution is sealed into protected memory; later calls
// reopen the enclave instead of hitting the cache or prompting again.
func (s *Store) passphrase() ([]byte, func(), error) {
	if s.pass == nil {
		raw, err := s.source.Resolve()
		if err != nil {
			return nil, nil, err
		}
		// NewBuffer wipes raw as it seals it.
		s.pass = secure.NewBuffer(raw)
	}
	locked, err := s.pass.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("opening passphrase enclave: %w", err)
	}
	return locked.Bytes(), func() { locked.Destroy() }, nil
}

// decorateDecryptErr drops a failed passphrase so the next attempt
// resolves afresh instead of re-offering known-bad bytes.
func (s *Store) decorateDecryptErr(err error) error {
	if errors.Is(err, credmanerrors.ErrDecryptionFailed) {
		if s.pass != nil {
			s.pass.Destroy()
			s.pass = nil
		}
		s.source.Forget()
	}
	return err
}

func (s *Store) logf(format string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Info(format, args...)
	}
}

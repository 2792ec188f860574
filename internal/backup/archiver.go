// Package backup moves superseded credential files into a dated,
// owner-only archive directory instead of deleting them. Consolidation
// is only safe to trust once the originals are out of the way but
// still recoverable.
package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	credmanerrors "github.com/openclaw/credman/internal/errors"
	"github.com/openclaw/credman/internal/logging"
)

// Archiver moves files into a per-day archive directory under its
// root.
type Archiver struct {
	root   string
	logger *logging.Logger

	now func() time.Time
}

// NewArchiver returns an archiver rooted at dir.
func NewArchiver(root string, logger *logging.Logger) *Archiver {
	return &Archiver{root: root, logger: logger, now: time.Now}
}

// Dir returns today's archive directory path.
func (a *Archiver) Dir() string {
	return filepath.Join(a.root, "credentials-old-"+a.now().Format("20060102"))
}

// Move relocates each path into today's archive directory, tightening
// modes as it goes. Per-file failures are collected so one stuck file
// does not block the rest.
func (a *Archiver) Move(paths []string) ([]string, []error) {
	dir := a.Dir()
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, []error{fmt.Errorf("creating archive %s: %w", dir, err)}
	}

	var moved []string
	var errs []error
	for _, path := range paths {
		dest, err := a.moveOne(path, dir)
		if err != nil {
			errs = append(errs, credmanerrors.SourceError{Path: path, Err: err})
			continue
		}
		moved = append(moved, dest)
		if a.logger != nil {
			a.logger.Info("Archived %s -> %s", path, dest)
		}
	}
	return moved, errs
}

func (a *Archiver) moveOne(path, dir string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", credmanerrors.ErrUnreadableSource
	}

	dest := a.freeName(dir, filepath.Base(path))
	if err := os.Rename(path, dest); err != nil {
		// Rename fails across filesystems; fall back to copy and
		// remove.
		if err := copyFile(path, dest); err != nil {
			return "", err
		}
		if err := os.Remove(path); err != nil {
			return "", fmt.Errorf("removing original after copy: %w", err)
		}
	}
	if err := os.Chmod(dest, 0600); err != nil {
		return "", fmt.Errorf("tightening archived copy: %w", err)
	}
	return dest, nil
}

// freeName finds an unused destination name, suffixing duplicates so
// two .env files from different directories both survive.
func (a *Archiver) freeName(dir, base string) string {
	dest := filepath.Join(dir, base)
	for i := 1; ; i++ {
		if _, err := os.Lstat(dest); os.IsNotExist(err) {
			return dest
		}
		dest = filepath.Join(dir, fmt.Sprintf("%s.%d", base, i))
	}
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Package permissions checks that store files and directories are
// owner-only. During scans a bad mode is advisory; the fail-fast
// enforcement entry points treat it as fatal.
package permissions

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	credmanerrors "github.com/openclaw/credman/internal/errors"
	"github.com/openclaw/credman/internal/logging"
)

const (
	// FileMode is the required mode for credential files.
	FileMode = os.FileMode(0600)
	// DirMode is the required mode for credential directories.
	DirMode = os.FileMode(0700)
)

// Checker verifies on-disk permission invariants.
type Checker struct {
	logger *logging.Logger
}

// NewChecker creates a permission checker.
func NewChecker(logger *logging.Logger) *Checker {
	return &Checker{logger: logger}
}

// Issue describes one failed permission check.
type Issue struct {
	Path    string
	Mode    os.FileMode
	Want    os.FileMode
	Missing bool
}

func (i Issue) String() string {
	if i.Missing {
		return fmt.Sprintf("%s: missing", i.Path)
	}
	return fmt.Sprintf("%s: mode %o, want %o", i.Path, i.Mode, i.Want)
}

// CheckFile verifies a file exists with the required owner-only mode.
func (c *Checker) CheckFile(path string) *Issue {
	return c.check(path, FileMode)
}

// CheckDir verifies a directory exists with the required owner-only mode.
func (c *Checker) CheckDir(path string) *Issue {
	return c.check(path, DirMode)
}

func (c *Checker) check(path string, want os.FileMode) *Issue {
	info, err := os.Stat(path)
	if err != nil {
		return &Issue{Path: path, Want: want, Missing: true}
	}
	if info.Mode().Perm() != want {
		return &Issue{Path: path, Mode: info.Mode().Perm(), Want: want}
	}
	return nil
}

// Fix tightens the mode on a path to the required value.
func (c *Checker) Fix(issue *Issue) error {
	if issue == nil {
		return nil
	}
	if issue.Missing {
		return fmt.Errorf("cannot fix %s: %w", issue.Path, os.ErrNotExist)
	}
	if err := os.Chmod(issue.Path, issue.Want); err != nil {
		return fmt.Errorf("chmod %s: %w", issue.Path, err)
	}
	if c.logger != nil {
		c.logger.Info("Fixed permissions on %s: %o", issue.Path, issue.Want)
	}
	return nil
}

// CheckGitignore verifies the store directory's .gitignore covers the
// credential files so a stray git init cannot publish them.
func (c *Checker) CheckGitignore(dir string) []string {
	wanted := []string{".env", ".env.secrets.gpg", ".env.meta"}

	data, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	if err != nil {
		return wanted
	}

	content := string(data)
	var missing []string
	for _, entry := range wanted {
		if !containsIgnoreEntry(content, entry) {
			missing = append(missing, entry)
		}
	}
	return missing
}

// FixGitignore appends the missing credential entries to .gitignore.
func (c *Checker) FixGitignore(dir string, missing []string) error {
	if len(missing) == 0 {
		return nil
	}
	path := filepath.Join(dir, ".gitignore")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "\n# Credentials\n%s\n", strings.Join(missing, "\n")); err != nil {
		return fmt.Errorf("updating %s: %w", path, err)
	}
	if c.logger != nil {
		c.logger.Info("Added %d entr(ies) to %s", len(missing), path)
	}
	return nil
}

func containsIgnoreEntry(content, entry string) bool {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == entry || line == "*"+entry || line == entry+"*" {
			return true
		}
	}
	return false
}

// Enforce is the fail-fast entry point. It returns
// ErrInsecurePermissions unless the store file exists owner-only and
// is git-ignored.
func (c *Checker) Enforce(storeFile string) error {
	var problems []string

	if issue := c.CheckFile(storeFile); issue != nil {
		problems = append(problems, issue.String())
	}
	if missing := c.CheckGitignore(filepath.Dir(storeFile)); len(missing) > 0 {
		problems = append(problems, fmt.Sprintf("%s/.gitignore missing entries: %s",
			filepath.Dir(storeFile), strings.Join(missing, ", ")))
	}

	if len(problems) > 0 {
		return credmanerrors.UserError{
			Message:    "Secure store requirement not met",
			Details:    strings.Join(problems, "; "),
			Suggestion: "Run 'credman consolidate' then 'credman validate --fix'",
			Err:        credmanerrors.ErrInsecurePermissions,
		}
	}
	return nil
}

// Package scan walks the filesystem for credential-bearing files. It
// reports file paths, key names, and risk tiers; values stay inside
// the source adapter and are never kept past classification.
package scan

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/openclaw/credman/internal/classify"
	credmanerrors "github.com/openclaw/credman/internal/errors"
	"github.com/openclaw/credman/internal/logging"
	"github.com/openclaw/credman/internal/source"
)

// DefaultPatterns matches the usual credential file names.
var DefaultPatterns = []string{
	".env", ".env.*", "*.env",
	"credentials.json", "secrets.json", "config.json",
	".bashrc", ".zshrc", ".profile",
}

// skipDirs are never descended into. They are large and full of
// third-party files that would drown the report in noise.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	".cache":       true,
	"__pycache__":  true,
}

// KeyInfo is one credential-looking key inside a finding.
type KeyInfo struct {
	Name string
	Tier classify.Tier
	Weak bool
}

// Finding is one file that yielded at least one credential-looking
// key.
type Finding struct {
	Path      string
	Format    source.Format
	Mode      fs.FileMode
	Loose     bool // readable by group or other
	IsSymlink bool
	Target    string
	Keys      []KeyInfo
}

// Report is the outcome of a scan. Errors holds the per-file failures
// the scan stepped over; a single unreadable file never aborts the
// walk.
type Report struct {
	Findings []Finding
	Scanned  int
	Errors   []error
}

// Options configures a scan.
type Options struct {
	Roots    []string
	Patterns []string
	Logger   *logging.Logger
}

// Run walks the roots and collects findings. Files that parse but
// contain no credential-looking keys are counted but not reported.
func Run(opts Options) (Report, error) {
	if len(opts.Roots) == 0 {
		return Report{}, credmanerrors.ConfigError{
			Field:      "roots",
			Message:    "at least one scan root is required",
			Suggestion: "Set scan.roots in credman.yaml or pass paths on the command line",
		}
	}
	patterns := opts.Patterns
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}

	var report Report
	for _, root := range opts.Roots {
		if err := walkRoot(root, patterns, &report); err != nil {
			return report, err
		}
	}

	sort.Slice(report.Findings, func(i, j int) bool {
		return report.Findings[i].Path < report.Findings[j].Path
	})
	if opts.Logger != nil {
		opts.Logger.Info("Scanned %d file(s), %d with credentials", report.Scanned, len(report.Findings))
	}
	return report, nil
}

func walkRoot(root string, patterns []string, report *Report) error {
	info, err := os.Stat(root)
	if err != nil {
		return credmanerrors.SourceError{Path: root, Err: credmanerrors.ErrUnreadableSource}
	}
	if !info.IsDir() {
		inspect(root, report)
		return nil
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			report.Errors = append(report.Errors,
				credmanerrors.SourceError{Path: path, Err: credmanerrors.ErrUnreadableSource})
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && (skipDirs[d.Name()] || isHiddenDir(root, path, d.Name())) {
				return fs.SkipDir
			}
			return nil
		}
		if !matchesAny(d.Name(), patterns) {
			return nil
		}
		inspect(path, report)
		return nil
	})
}

// isHiddenDir skips dot-directories except when the root itself is
// one, so scanning ~/.config works while ~/ does not descend into it
// twice over.
func isHiddenDir(root, path, name string) bool {
	if len(name) < 2 || name[0] != '.' {
		return false
	}
	// Direct children of the root keep being visited so patterns like
	// .aws/credentials stay reachable one level down.
	return filepath.Dir(path) != root
}

func matchesAny(name string, patterns []string) bool {
	for _, p := range patterns {
		if ok, err := filepath.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}

// inspect parses one candidate file and appends a finding when it
// contains credential-looking keys.
func inspect(path string, report *Report) {
	report.Scanned++

	finding := Finding{Path: path}
	if info, err := os.Lstat(path); err == nil {
		finding.IsSymlink = info.Mode()&fs.ModeSymlink != 0
		if finding.IsSymlink {
			if target, err := os.Readlink(path); err == nil {
				finding.Target = target
			}
		}
	}
	if info, err := os.Stat(path); err == nil {
		finding.Mode = info.Mode().Perm()
		finding.Loose = info.Mode().Perm()&0077 != 0
	}

	entries, err := source.Parse(path, source.FormatAuto)
	if err != nil {
		// Unsupported formats are normal during a broad walk; only
		// real read failures land in the error list.
		if !errors.Is(err, credmanerrors.ErrUnsupportedFormat) {
			report.Errors = append(report.Errors, err)
		}
		return
	}
	if len(entries) > 0 {
		finding.Format = entries[0].Provenance.Format
	}

	for _, e := range entries {
		res := classify.Classify(e.OriginalKey, e.Value)
		if !res.IsCredential {
			continue
		}
		finding.Keys = append(finding.Keys, KeyInfo{
			Name: e.OriginalKey,
			Tier: res.Tier,
			Weak: res.Weak,
		})
	}
	if len(finding.Keys) > 0 {
		report.Findings = append(report.Findings, finding)
	}
}

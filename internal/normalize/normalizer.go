// Package normalize maps discovered credential keys to canonical
// UPPER_SNAKE_CASE names using the service table plus a generic
// fallback rule, and queues collisions for explicit resolution.
package normalize

import (
	"fmt"
	"regexp"
	"strings"

	credmanerrors "github.com/openclaw/credman/internal/errors"
	"github.com/openclaw/credman/internal/services"
	"github.com/openclaw/credman/internal/source"
)

// canonicalPattern is the shape every canonical key must satisfy.
var canonicalPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

var (
	nonAlnum      = regexp.MustCompile(`[^a-zA-Z0-9]+`)
	camelBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)
)

// IsCanonical reports whether a key already has canonical shape.
func IsCanonical(key string) bool {
	return canonicalPattern.MatchString(key)
}

// Normalizer maps original keys to canonical names.
type Normalizer struct {
	table *services.Table
}

// New creates a Normalizer over a service table.
func New(table *services.Table) *Normalizer {
	return &Normalizer{table: table}
}

// Normalize maps one original key to its canonical name. Service
// detection uses the provenance path; an explicit field mapping wins,
// then the generic rule with a service prefix, then the generic rule
// alone.
func (n *Normalizer) Normalize(originalKey string, prov source.Provenance) string {
	service := n.table.DetectService(prov.Path)

	if service != "" {
		if canonical, ok := n.table.Lookup(service, originalKey); ok {
			return canonical
		}
		// Nested JSON paths carry their own leading container segment;
		// the last segment is the field the mapping would know about.
		if i := strings.LastIndex(originalKey, "."); i >= 0 {
			if canonical, ok := n.table.Lookup(service, originalKey[i+1:]); ok {
				return canonical
			}
		}
	}

	canonical := Generic(originalKey)
	if service != "" {
		prefix := strings.ToUpper(nonAlnum.ReplaceAllString(service, "_"))
		if !strings.HasPrefix(canonical, prefix+"_") && canonical != prefix {
			canonical = prefix + "_" + canonical
		}
	}
	return canonical
}

// Generic applies the fallback rule: camelCase split, non-alphanumerics
// collapsed to underscores, uppercased.
func Generic(key string) string {
	s := camelBoundary.ReplaceAllString(key, "${1}_${2}")
	s = nonAlnum.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	s = strings.ToUpper(s)
	// Keys may not start with a digit; a leading service token like
	// "4claw" gets an underscore-free letter prefix via the mapping
	// table, so this only covers pathological fallback input.
	if s != "" && s[0] >= '0' && s[0] <= '9' {
		s = "K_" + s
	}
	return s
}

// Conflict records two distinct values competing for one canonical key.
// First seen wins until the operator resolves the queue.
type Conflict struct {
	Key      string
	Existing source.Provenance
	Incoming source.Provenance
}

func (c Conflict) Error() string {
	return fmt.Sprintf("%s: %v (kept %s, queued %s)",
		c.Key, credmanerrors.ErrNormalizationConflict, c.Existing.Path, c.Incoming.Path)
}

func (c Conflict) Unwrap() error {
	return credmanerrors.ErrNormalizationConflict
}

// Result is the outcome of normalizing a batch of source entries.
type Result struct {
	// Entries holds the first-seen value per canonical key.
	Entries []Normalized
	// Conflicts holds later entries whose canonical key was already
	// taken by a different value.
	Conflicts []Conflict
}

// Normalized pairs a canonical key with its value and origin.
type Normalized struct {
	CanonicalKey string
	Value        string
	Provenance   source.Provenance
}

// Batch normalizes entries in scan order, applying the first-seen-wins
// collision policy. Identical values landing on the same canonical key
// are deduplicated silently; differing values queue a Conflict.
func (n *Normalizer) Batch(entries []source.Entry) Result {
	var res Result
	seen := make(map[string]int) // canonical key -> index in res.Entries

	for _, entry := range entries {
		canonical := n.Normalize(entry.OriginalKey, entry.Provenance)
		if idx, ok := seen[canonical]; ok {
			if res.Entries[idx].Value == entry.Value {
				continue
			}
			res.Conflicts = append(res.Conflicts, Conflict{
				Key:      canonical,
				Existing: res.Entries[idx].Provenance,
				Incoming: entry.Provenance,
			})
			continue
		}
		seen[canonical] = len(res.Entries)
		res.Entries = append(res.Entries, Normalized{
			CanonicalKey: canonical,
			Value:        entry.Value,
			Provenance:   entry.Provenance,
		})
	}
	return res
}

// Package services holds the service-mapping table used to normalize
// discovered credential fields to canonical names. The built-in table
// mirrors the services the store has historically consolidated; new
// services are additive configuration, not code changes.
package services

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Mapping maps an original field name to its full canonical key for one
// service, e.g. "custodyPrivateKey" -> "FARCASTER_CUSTODY_PRIVATE_KEY".
type Mapping map[string]string

// Table is the registry of service tokens to field mappings.
type Table struct {
	services map[string]Mapping
}

// NewTable creates a table seeded with the built-in services.
func NewTable() *Table {
	t := &Table{services: make(map[string]Mapping)}
	for name, mapping := range builtins {
		t.Register(name, mapping)
	}
	return t
}

var builtins = map[string]Mapping{
	"x": {
		"consumer_key":        "X_CONSUMER_KEY",
		"consumer_secret":     "X_CONSUMER_SECRET",
		"access_token":        "X_ACCESS_TOKEN",
		"access_token_secret": "X_ACCESS_TOKEN_SECRET",
		"bearer_token":        "X_BEARER_TOKEN",
		"username":            "X_USERNAME",
		"user_id":             "X_USER_ID",
	},
	"farcaster": {
		"custodyPrivateKey": "FARCASTER_CUSTODY_PRIVATE_KEY",
		"signerPrivateKey":  "FARCASTER_SIGNER_PRIVATE_KEY",
		"signerPublicKey":   "FARCASTER_SIGNER_PUBLIC_KEY",
		"custodyAddress":    "FARCASTER_CUSTODY_ADDRESS",
		"fid":               "FARCASTER_FID",
		"fname":             "FARCASTER_FNAME",
	},
	"molten": {
		"api_key":    "MOLTEN_API_KEY",
		"agent_name": "MOLTEN_AGENT_NAME",
		"agent_id":   "MOLTEN_AGENT_ID",
	},
	"moltbook": {
		"api_key":     "MOLTBOOK_API_KEY",
		"agent_name":  "MOLTBOOK_AGENT_NAME",
		"profile_url": "MOLTBOOK_PROFILE_URL",
	},
	"botchan": {
		"api_key":    "BOTCHAN_API_KEY",
		"agent_name": "BOTCHAN_AGENT_NAME",
	},
	// 4claw credentials consolidate under the botchan namespace
	"4claw": {
		"api_key": "BOTCHAN_API_KEY",
		"name":    "BOTCHAN_AGENT_NAME",
	},
}

// Register adds or replaces a service mapping. Field lookups are exact;
// the Normalizer falls back to the generic uppercasing rule for fields
// the mapping does not cover.
func (t *Table) Register(service string, mapping Mapping) {
	m := make(Mapping, len(mapping))
	for k, v := range mapping {
		m[k] = v
	}
	t.services[strings.ToLower(service)] = m
}

// Lookup returns the canonical key for a field under a service, if mapped.
func (t *Table) Lookup(service, field string) (string, bool) {
	mapping, ok := t.services[strings.ToLower(service)]
	if !ok {
		return "", false
	}
	canonical, ok := mapping[field]
	return canonical, ok
}

// Has reports whether a service token is registered.
func (t *Table) Has(service string) bool {
	_, ok := t.services[strings.ToLower(service)]
	return ok
}

// Names returns the registered service tokens, sorted.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.services))
	for name := range t.services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Fields returns the field mapping for a service, sorted by field name.
// The second return is false for unknown services.
func (t *Table) Fields(service string) ([][2]string, bool) {
	mapping, ok := t.services[strings.ToLower(service)]
	if !ok {
		return nil, false
	}
	fields := make([][2]string, 0, len(mapping))
	for field, canonical := range mapping {
		fields = append(fields, [2]string{field, canonical})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i][0] < fields[j][0] })
	return fields, true
}

// DetectService matches a source path against registered service
// tokens, case-insensitively. Matching is per path token so the short
// "x" service only fires on a path segment that is exactly "x", never
// on a stray letter. The longest matching token wins so "moltbook" is
// not shadowed by a hypothetical "molt".
func (t *Table) DetectService(path string) string {
	tokens := strings.FieldsFunc(strings.ToLower(path), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	best := ""
	for name := range t.services {
		if len(name) <= len(best) {
			continue
		}
		for _, tok := range tokens {
			if tok == name {
				best = name
				break
			}
		}
	}
	return best
}

// fileFormat is the YAML shape of a service-table extension file.
type fileFormat struct {
	Services map[string]map[string]string `yaml:"services"`
}

// LoadFile merges service mappings from a YAML file into the table.
// File entries replace built-ins with the same token.
func (t *Table) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading service table %s: %w", path, err)
	}
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parsing service table %s: %w", path, err)
	}
	for service, mapping := range f.Services {
		t.Register(service, mapping)
	}
	return nil
}

// SaveFile writes the non-built-in portion of the table to a YAML file,
// owner-readable only.
func (t *Table) SaveFile(path string) error {
	f := fileFormat{Services: make(map[string]map[string]string)}
	for name, mapping := range t.services {
		if _, builtin := builtins[name]; builtin {
			continue
		}
		f.Services[name] = mapping
	}
	data, err := yaml.Marshal(&f)
	if err != nil {
		return fmt.Errorf("marshaling service table: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

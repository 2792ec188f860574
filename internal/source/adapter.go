// Package source parses credential source artifacts into flat
// (original key, value, provenance) tuples. Adapters fail per-file;
// callers collect errors and keep scanning.
package source

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	credmanerrors "github.com/openclaw/credman/internal/errors"
)

// Format identifies the container format a credential was discovered in.
type Format string

const (
	FormatJSON Format = "json"
	FormatEnv  Format = "env"
	FormatText Format = "text"

	// FormatAuto lets Parse pick the format from the file name and content.
	FormatAuto Format = ""
)

// Provenance records where and in what shape a credential was found.
// The Normalizer uses the path for service-prefix inference.
type Provenance struct {
	Path   string `json:"path"`
	Format Format `json:"format"`
}

// Entry is a single discovered (key, value) pair before normalization.
type Entry struct {
	OriginalKey string
	Value       string
	Provenance  Provenance
}

// Parse reads a source artifact and returns its flat entries. It fails
// with ErrUnreadableSource when the path cannot be read, and with
// ErrUnsupportedFormat when the content is neither a JSON document nor
// assignment-style text.
func Parse(path string, hint Format) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, credmanerrors.SourceError{
			Path: path,
			Err:  fmt.Errorf("%w: %v", credmanerrors.ErrUnreadableSource, err),
		}
	}

	format := hint
	if format == FormatAuto {
		format = detectFormat(path, data)
	}

	var entries []Entry
	switch format {
	case FormatJSON:
		entries, err = parseJSON(path, data)
	case FormatEnv:
		entries, err = parseEnv(path, data)
	default:
		err = fmt.Errorf("%w: %s", credmanerrors.ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, credmanerrors.SourceError{Path: path, Err: err}
	}
	return entries, nil
}

// detectFormat picks a format from the file name, falling back to a
// content sniff for extensionless files.
func detectFormat(path string, data []byte) Format {
	name := strings.ToLower(path)
	switch {
	case strings.HasSuffix(name, ".json"):
		return FormatJSON
	case strings.Contains(name, ".env"):
		return FormatEnv
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		return FormatJSON
	}
	return FormatEnv
}

// parseJSON flattens a JSON object document. Nested objects contribute
// dotted path segments ("service.customKey"); arrays and other non-map
// leaves are kept as compact JSON so no data is dropped.
func parseJSON(path string, data []byte) ([]Entry, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: not a JSON object document", credmanerrors.ErrUnsupportedFormat)
	}

	prov := Provenance{Path: path, Format: FormatJSON}
	var entries []Entry
	flattenJSON("", doc, func(key, value string) {
		entries = append(entries, Entry{OriginalKey: key, Value: value, Provenance: prov})
	})

	sort.Slice(entries, func(i, j int) bool { return entries[i].OriginalKey < entries[j].OriginalKey })
	return entries, nil
}

func flattenJSON(prefix string, doc map[string]interface{}, emit func(key, value string)) {
	for key, value := range doc {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		switch v := value.(type) {
		case map[string]interface{}:
			flattenJSON(full, v, emit)
		case string:
			emit(full, v)
		case nil:
			emit(full, "")
		default:
			raw, err := json.Marshal(v)
			if err != nil {
				// Anything json.Unmarshal produced re-marshals; defensive only.
				continue
			}
			emit(full, string(raw))
		}
	}
}

// parseEnv reads assignment-style text, skipping comments and blank
// lines. Quoted values keep embedded whitespace; unquoted values are
// trimmed. godotenv handles the quoting rules; a line-oriented pass
// catches files it rejects outright.
func parseEnv(path string, data []byte) ([]Entry, error) {
	prov := Provenance{Path: path, Format: FormatEnv}

	if strings.TrimSpace(string(data)) == "" {
		return nil, nil
	}

	parsed, err := godotenv.UnmarshalBytes(data)
	if err == nil && len(parsed) > 0 {
		keys := make([]string, 0, len(parsed))
		for key := range parsed {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		entries := make([]Entry, 0, len(keys))
		for _, key := range keys {
			entries = append(entries, Entry{OriginalKey: key, Value: parsed[key], Provenance: prov})
		}
		return entries, nil
	}

	// Fallback: tolerate lines godotenv refuses (e.g. bare words mixed
	// with assignments in shell rc files).
	var entries []Entry
	sawContent := false
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		sawContent = true
		eq := strings.Index(line, "=")
		if eq <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:eq])
		key = strings.TrimPrefix(key, "export ")
		key = strings.TrimSpace(key)
		if key == "" || strings.ContainsAny(key, " \t") {
			continue
		}
		value := strings.TrimSpace(line[eq+1:])
		value = unquote(value)
		entries = append(entries, Entry{OriginalKey: key, Value: value, Provenance: prov})
	}
	if len(entries) == 0 && sawContent {
		return nil, fmt.Errorf("%w: no key=value assignments found", credmanerrors.ErrUnsupportedFormat)
	}
	return entries, nil
}

func unquote(value string) string {
	if len(value) >= 2 {
		if (value[0] == '"' && value[len(value)-1] == '"') ||
			(value[0] == '\'' && value[len(value)-1] == '\'') {
			return value[1 : len(value)-1]
		}
	}
	return value
}

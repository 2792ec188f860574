package vault

import (
	"fmt"
	"sort"
	"strings"

	credmanerrors "github.com/openclaw/credman/internal/errors"
)

// RefPrefix marks a value in the canonical store file whose real
// content lives in the encrypted container. The text after the prefix
// is the canonical key, never the value.
const RefPrefix = "GPG:"

// line is one physical line of the store file. Comment and blank lines
// keep key empty and survive rewrites untouched.
type line struct {
	raw   string
	key   string
	value string
}

// document is the parsed store file. It preserves comments, blank
// lines, and assignment order so a rewrite only changes what changed.
type document struct {
	lines []line
}

func parseDocument(data []byte) (*document, error) {
	doc := &document{}
	raw := strings.ReplaceAll(string(data), "\r\n", "\n")
	rows := strings.Split(raw, "\n")
	// Split leaves a trailing empty element after the final newline.
	if n := len(rows); n > 0 && rows[n-1] == "" {
		rows = rows[:n-1]
	}

	for i, row := range rows {
		trimmed := strings.TrimSpace(row)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			doc.lines = append(doc.lines, line{raw: row})
			continue
		}
		eq := strings.Index(trimmed, "=")
		if eq <= 0 {
			return nil, fmt.Errorf("line %d: %w", i+1, credmanerrors.ErrStoreCorrupt)
		}
		key := strings.TrimSpace(trimmed[:eq])
		if strings.ContainsAny(key, " \t") {
			return nil, fmt.Errorf("line %d: %w", i+1, credmanerrors.ErrStoreCorrupt)
		}
		doc.lines = append(doc.lines, line{
			raw:   row,
			key:   key,
			value: unquoteValue(strings.TrimSpace(trimmed[eq+1:])),
		})
	}
	return doc, nil
}

func (d *document) get(key string) (string, bool) {
	for _, l := range d.lines {
		if l.key == key {
			return l.value, true
		}
	}
	return "", false
}

// set updates an assignment in place or appends a new one.
func (d *document) set(key, value string) {
	for i, l := range d.lines {
		if l.key == key {
			d.lines[i].value = value
			d.lines[i].raw = formatAssignment(key, value)
			return
		}
	}
	d.lines = append(d.lines, line{
		raw:   formatAssignment(key, value),
		key:   key,
		value: value,
	})
}

func (d *document) delete(key string) bool {
	for i, l := range d.lines {
		if l.key == key {
			d.lines = append(d.lines[:i], d.lines[i+1:]...)
			return true
		}
	}
	return false
}

func (d *document) keys() []string {
	var keys []string
	for _, l := range d.lines {
		if l.key != "" {
			keys = append(keys, l.key)
		}
	}
	return keys
}

func (d *document) render() []byte {
	var b strings.Builder
	for _, l := range d.lines {
		b.WriteString(l.raw)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// sortedKeys returns the assignment keys in lexical order, used for
// deterministic reporting.
func (d *document) sortedKeys() []string {
	keys := d.keys()
	sort.Strings(keys)
	return keys
}

func formatAssignment(key, value string) string {
	if strings.ContainsAny(value, " \t#\"\n\r") {
		return key + `="` + escapeValue(value) + `"`
	}
	return key + "=" + value
}

// escapeValue encodes a value for the double-quoted form. Newlines must
// become escape sequences so an assignment always stays one physical
// line of the store file.
func escapeValue(value string) string {
	var b strings.Builder
	for i := 0; i < len(value); i++ {
		switch c := value[i]; c {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func unquoteValue(v string) string {
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		inner := v[1 : len(v)-1]
		var b strings.Builder
		for i := 0; i < len(inner); i++ {
			c := inner[i]
			if c != '\\' || i+1 == len(inner) {
				b.WriteByte(c)
				continue
			}
			i++
			switch inner[i] {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			default:
				b.WriteByte(inner[i])
			}
		}
		return b.String()
	}
	if len(v) >= 2 && v[0] == '\'' && v[len(v)-1] == '\'' {
		return v[1 : len(v)-1]
	}
	return v
}

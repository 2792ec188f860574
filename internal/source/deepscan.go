package source

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"

	credmanerrors "github.com/openclaw/credman/internal/errors"
)

// Match reports a value-shaped secret found in unstructured text. The
// matched value itself is deliberately absent: deep scan output goes to
// terminals and reports.
type Match struct {
	Path    string `json:"path"`
	Line    int    `json:"line"`
	Pattern string `json:"pattern"`
}

// Deep-scan patterns are value matchers only. Source files have no
// key=value structure, so name-based classification does not apply.
var deepPatterns = []struct {
	name string
	re   *regexp.Regexp
}{
	{"private_key", regexp.MustCompile(`\b(0x)?[0-9a-fA-F]{64}\b`)},
	{"token", regexp.MustCompile(`\b(sk_|pk_)[0-9a-zA-Z_]{8,}`)},
	{"bearer", regexp.MustCompile(`Bearer [0-9a-zA-Z._~+/-]{8,}`)},
}

// lowerWords matches text that could be a bare mnemonic phrase.
var lowerWords = regexp.MustCompile(`^[a-z ]+$`)

// maxScanLineLen guards against minified bundles and binary junk.
const maxScanLineLen = 4096

// DeepScan treats a file as unstructured text and reports lines that
// contain value-shaped secrets. Only the path, line number, and pattern
// name are reported, never the matched text.
func DeepScan(path string) ([]Match, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, credmanerrors.SourceError{
			Path: path,
			Err:  fmt.Errorf("%w: %v", credmanerrors.ErrUnreadableSource, err),
		}
	}
	defer f.Close()

	var matches []Match
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if len(line) > maxScanLineLen {
			continue
		}
		for _, p := range deepPatterns {
			if p.re.MatchString(line) {
				matches = append(matches, Match{Path: path, Line: lineNo, Pattern: p.name})
			}
		}
		if isMnemonicText(line) {
			matches = append(matches, Match{Path: path, Line: lineNo, Pattern: "mnemonic"})
		}
	}
	if err := scanner.Err(); err != nil {
		return matches, credmanerrors.SourceError{
			Path: path,
			Err:  fmt.Errorf("%w: %v", credmanerrors.ErrUnreadableSource, err),
		}
	}
	return matches, nil
}

func isMnemonicText(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || !lowerWords.MatchString(trimmed) {
		return false
	}
	n := len(strings.Fields(trimmed))
	return n == 12 || n == 24
}

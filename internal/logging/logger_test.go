package logging

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecret_String(t *testing.T) {
	t.Parallel()

	s := Secret("super-secret-value")
	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%s", s))
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", s))
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%#v", s))
}

func TestRedact(t *testing.T) {
	t.Parallel()

	out := Redact("token is sk_live_abcdef in this line", []string{"sk_live_abcdef"})
	assert.Equal(t, "token is [REDACTED] in this line", out)

	// Trivial secrets are left alone to avoid shredding ordinary text
	out = Redact("a is set", []string{"a"})
	assert.Equal(t, "a is set", out)

	out = Redact("nothing here", nil)
	assert.Equal(t, "nothing here", out)
}

func TestPreview(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "****", Preview("short"))
	assert.Equal(t, "****", Preview(""))

	p := Preview("sk_live_abcdef0123")
	assert.Equal(t, "sk_l…0123", p)
	assert.NotContains(t, p, "live_abcdef")
}

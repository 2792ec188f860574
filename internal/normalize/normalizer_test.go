package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	credmanerrors "github.com/openclaw/credman/internal/errors"
	"github.com/openclaw/credman/internal/services"
	"github.com/openclaw/credman/internal/source"
)

func prov(path string) source.Provenance {
	return source.Provenance{Path: path, Format: source.FormatJSON}
}

func TestNormalize_ServiceMapping(t *testing.T) {
	t.Parallel()

	n := New(services.NewTable())

	key := n.Normalize("custodyPrivateKey", prov("/home/u/.config/farcaster/credentials.json"))
	assert.Equal(t, "FARCASTER_CUSTODY_PRIVATE_KEY", key)

	key = n.Normalize("consumer_key", prov("/home/u/.config/x/credentials.json"))
	assert.Equal(t, "X_CONSUMER_KEY", key)
}

func TestNormalize_ServicePrefixFallback(t *testing.T) {
	t.Parallel()

	n := New(services.NewTable())

	// apiKey is unmapped for molten only under a nested path; the generic
	// rule plus the detected service prefix applies.
	key := n.Normalize("webhookSecret", prov("/home/u/.config/molten/credentials.json"))
	assert.Equal(t, "MOLTEN_WEBHOOK_SECRET", key)

	// Already-prefixed names are not double-prefixed
	key = n.Normalize("MOLTEN_EXTRA_TOKEN", prov("/home/u/.config/molten/credentials.json"))
	assert.Equal(t, "MOLTEN_EXTRA_TOKEN", key)
}

func TestNormalize_NestedFieldUsesLastSegment(t *testing.T) {
	t.Parallel()

	n := New(services.NewTable())

	key := n.Normalize("auth.api_key", prov("/home/u/.config/molten/credentials.json"))
	assert.Equal(t, "MOLTEN_API_KEY", key)
}

func TestNormalize_NoService(t *testing.T) {
	t.Parallel()

	n := New(services.NewTable())

	key := n.Normalize("my-api key", prov("/home/u/notes/creds.json"))
	assert.Equal(t, "MY_API_KEY", key)
}

func TestGeneric(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "CUSTODY_PRIVATE_KEY", Generic("custodyPrivateKey"))
	assert.Equal(t, "MY_API_KEY", Generic("my-api-key"))
	assert.Equal(t, "A_B_C", Generic("a.b.c"))
	assert.Equal(t, "ALREADY_UPPER", Generic("ALREADY_UPPER"))
	assert.Equal(t, "K_4CLAW_KEY", Generic("4claw-key"))
}

func TestIsCanonical(t *testing.T) {
	t.Parallel()

	assert.True(t, IsCanonical("FARCASTER_CUSTODY_PRIVATE_KEY"))
	assert.True(t, IsCanonical("X9"))
	assert.False(t, IsCanonical("lower_case"))
	assert.False(t, IsCanonical("9STARTS_WITH_DIGIT"))
	assert.False(t, IsCanonical("HAS-DASH"))
	assert.False(t, IsCanonical(""))
}

func TestBatch_FirstSeenWins(t *testing.T) {
	t.Parallel()

	n := New(services.NewTable())

	entries := []source.Entry{
		{OriginalKey: "api_key", Value: "first", Provenance: prov("/a/molten/creds.json")},
		{OriginalKey: "apiKey", Value: "second", Provenance: prov("/b/molten/other.json")},
	}

	res := n.Batch(entries)

	require.Len(t, res.Entries, 1)
	assert.Equal(t, "MOLTEN_API_KEY", res.Entries[0].CanonicalKey)
	assert.Equal(t, "first", res.Entries[0].Value)

	require.Len(t, res.Conflicts, 1)
	c := res.Conflicts[0]
	assert.Equal(t, "MOLTEN_API_KEY", c.Key)
	assert.Equal(t, "/a/molten/creds.json", c.Existing.Path)
	assert.Equal(t, "/b/molten/other.json", c.Incoming.Path)
	assert.ErrorIs(t, c, credmanerrors.ErrNormalizationConflict)
}

func TestBatch_IdenticalValuesDeduplicated(t *testing.T) {
	t.Parallel()

	n := New(services.NewTable())

	entries := []source.Entry{
		{OriginalKey: "api_key", Value: "same", Provenance: prov("/a/molten/creds.json")},
		{OriginalKey: "api_key", Value: "same", Provenance: prov("/b/molten/creds.json")},
	}

	res := n.Batch(entries)
	assert.Len(t, res.Entries, 1)
	assert.Empty(t, res.Conflicts)
}

func TestBatch_ConflictNeverEchoesValue(t *testing.T) {
	t.Parallel()

	n := New(services.NewTable())

	entries := []source.Entry{
		{OriginalKey: "token", Value: "secret-one", Provenance: prov("/a/creds.json")},
		{OriginalKey: "token", Value: "secret-two", Provenance: prov("/b/creds.json")},
	}

	res := n.Batch(entries)
	require.Len(t, res.Conflicts, 1)
	msg := res.Conflicts[0].Error()
	assert.NotContains(t, msg, "secret-one")
	assert.NotContains(t, msg, "secret-two")
}

func TestBatch_CanonicalShape(t *testing.T) {
	t.Parallel()

	n := New(services.NewTable())

	entries := []source.Entry{
		{OriginalKey: "weird key-name.here", Value: "v", Provenance: prov("/tmp/c.json")},
		{OriginalKey: "custodyPrivateKey", Value: "v2", Provenance: prov("/home/u/.config/farcaster/c.json")},
	}

	res := n.Batch(entries)
	for _, e := range res.Entries {
		assert.True(t, IsCanonical(e.CanonicalKey), "key %q must be canonical", e.CanonicalKey)
	}
}

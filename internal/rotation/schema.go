package rotation

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	credmanerrors "github.com/openclaw/credman/internal/errors"
)

// metaSchema is the contract for the rotation metadata file. Every
// entry carries both timestamps, a positive interval, and a known risk
// tier; anything else is treated as corruption rather than guessed at.
const metaSchema = `{
  "type": "object",
  "additionalProperties": {
    "type": "object",
    "required": ["created", "lastRotated", "rotationDays", "risk"],
    "properties": {
      "created": {"type": "string", "format": "date-time"},
      "lastRotated": {"type": "string", "format": "date-time"},
      "rotationDays": {"type": "integer", "minimum": 1},
      "risk": {"type": "string", "enum": ["critical", "standard", "low"]}
    },
    "additionalProperties": false
  }
}`

// ValidateMeta checks raw metadata bytes against the schema and
// returns ErrStoreCorrupt with the failing details when they do not
// conform.
func ValidateMeta(data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(metaSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("rotation metadata: %v: %w", err, credmanerrors.ErrStoreCorrupt)
	}
	if !result.Valid() {
		first := result.Errors()[0]
		return fmt.Errorf("rotation metadata: %s: %w", first, credmanerrors.ErrStoreCorrupt)
	}
	return nil
}

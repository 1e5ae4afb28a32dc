// Package cursor implements the opaque pagination marker used by every
// paginated query. A cursor is a composite of (createdAt, id), never a
// positional offset, so pages stay stable under concurrent inserts: a new
// row can only land before or after the keyset boundary, it can never shift
// rows into or out of an already-fetched page.
package cursor

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/Bashy-Codes/wf-server/internal/apperr"
)

// Key is the decoded composite position of the last row of a page.
type Key struct {
	// T is the row's creation time, millisecond precision on the wire.
	T time.Time
	// ID breaks ties between rows created in the same millisecond.
	ID string
}

// wire is the serialized cursor layout. Millisecond timestamps keep the
// token compact and match the precision SQLite round-trips reliably.
type wire struct {
	T  int64  `json:"t"`
	ID string `json:"id"`
}

// Encode serializes k into an opaque URL-safe token. Clients must treat the
// result as opaque.
func Encode(k Key) string {
	b, _ := json.Marshal(wire{T: k.T.UnixMilli(), ID: k.ID})
	return base64.RawURLEncoding.EncodeToString(b)
}

// Decode parses a client-supplied token. An empty token decodes to nil,
// meaning "start from the newest row". Malformed tokens are a validation
// failure, not an internal error.
func Decode(s string) (*Key, error) {
	if s == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, apperr.Validation("cursor", "malformed cursor")
	}
	var w wire
	if err := json.Unmarshal(raw, &w); err != nil || w.ID == "" {
		return nil, apperr.Validation("cursor", "malformed cursor")
	}
	return &Key{T: time.UnixMilli(w.T).UTC(), ID: w.ID}, nil
}

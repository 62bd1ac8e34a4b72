// Package pagination encodes and decodes the opaque cursor tokens handed
// back to API callers and persisted in sync state. Tokens are
// base64url(JSON) so they travel as one query parameter and store as text.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedCursor marks a token that could not be decoded, usually a
// poisoned persisted cursor. Callers log it and fall back to a full resync
// instead of failing the sync.
var ErrMalformedCursor = errors.New("malformed cursor")

// LimitOffset is the page-number style position for providers without any
// incremental filter. Vulnerable to skew if rows are inserted mid-walk.
type LimitOffset struct {
	Offset int `json:"offset"`
}

// LastUpdatedAtID is the watermark position: the next page filters on
// updated_at > last OR (updated_at = last AND id > last_id), which neither
// skips nor duplicates records sharing one modification timestamp.
type LastUpdatedAtID struct {
	LastUpdatedAt string `json:"last_updated_at"`
	LastID        string `json:"last_id"`
}

// LastUpdatedAtNextOffset is the hybrid used by providers whose search API
// sorts by a single field only: a watermark timestamp plus the provider's
// own in-page offset token, valid only while the timestamp is unchanged.
type LastUpdatedAtNextOffset struct {
	LastUpdatedAt string `json:"last_updated_at"`
	NextOffset    string `json:"next_offset,omitempty"`
}

// Encode serializes cursor params into an opaque URL-safe token.
func Encode[T any](params *T) string {
	if params == nil {
		return ""
	}
	b, err := json.Marshal(params)
	if err != nil {
		// The three cursor shapes are plain structs; marshal cannot fail.
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// Decode parses an opaque token. An empty token means "no prior position"
// and yields (nil, nil). A garbled token yields ErrMalformedCursor, never a
// panic, so a corrupted persisted cursor degrades to a full resync.
func Decode[T any](token string) (*T, error) {
	if token == "" {
		return nil, nil
	}
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCursor, err)
	}
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCursor, err)
	}
	return &out, nil
}

package query

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// encodeJSON marshals v compactly without HTML escaping, so that values such as
// "a&b" travel verbatim and serialization stays byte-for-byte reproducible.
func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

package evalmodel

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"golang.org/x/text/unicode/norm"
)

// Canonicalize produces the deterministic byte form used for inputs_hash:
// UTF-8 NFC normalized strings, object keys sorted lexicographically,
// numbers in shortest round-trip form, arrays preserving order. It accepts
// any JSON-marshalable value (typically a map[string]any or a struct with
// json tags) and returns the canonical bytes.
//
// encoding/json already sorts map[string]any keys alphabetically and
// already encodes float64 with the shortest round-trip representation, so
// canonicalization reduces to: decode into generic any, NFC-normalize every
// string leaf, re-encode with a HTML-escaping-disabled encoder (no
// insignificant whitespace).
func Canonicalize(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}

	normalized := normalizeStrings(generic)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return nil, err
	}

	// json.Encoder.Encode appends a trailing newline; trim it so the
	// canonical form has no insignificant whitespace at all.
	out := bytes.TrimRight(buf.Bytes(), "\n")
	return out, nil
}

// normalizeStrings walks a decoded JSON value (map[string]any / []any /
// string / float64 / bool / nil) and NFC-normalizes every string leaf.
// Map key order is not touched here — json.Marshal on map[string]any
// already sorts keys lexicographically by byte value during encoding.
func normalizeStrings(v any) any {
	switch t := v.(type) {
	case string:
		return norm.NFC.String(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeStrings(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[norm.NFC.String(k)] = normalizeStrings(e)
		}
		return out
	default:
		return v
	}
}

// Hash returns the lowercase hex SHA-256 digest (64 chars) of v's
// canonical form. Deterministic across runs, machines, and key orderings,
// per spec §8's determinism property.
func Hash(v any) (string, error) {
	canon, err := Canonicalize(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canon)
	return hex.EncodeToString(sum[:]), nil
}

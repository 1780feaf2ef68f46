// Package hashing implements the Content Hasher (C1): deterministic
// SHA-256 digests over canonicalized JSON, used for RawCapture
// deduplication and LLM extraction-cache keys.
package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// ContentHash returns the hex-encoded SHA-256 digest of v's canonical JSON
// serialization: object keys sorted recursively, no insignificant
// whitespace. Two values that are deep-equal after JSON round-tripping
// always produce the same hash regardless of map iteration order.
func ContentHash(v interface{}) (string, error) {
	canon, err := Canonicalize(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canon)
	return hex.EncodeToString(sum[:]), nil
}

// Canonicalize serializes v to JSON with map keys sorted at every nesting
// level and no extraneous whitespace, so the output is stable across
// differing map-iteration orders and formatting.
func Canonicalize(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}

	return marshalCanonical(generic)
}

func marshalCanonical(v interface{}) ([]byte, error) {
	switch val := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		out := []byte("{")
		for i, k := range keys {
			if i > 0 {
				out = append(out, ',')
			}
			keyJSON, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			out = append(out, keyJSON...)
			out = append(out, ':')

			valJSON, err := marshalCanonical(val[k])
			if err != nil {
				return nil, err
			}
			out = append(out, valJSON...)
		}
		out = append(out, '}')
		return out, nil

	case []interface{}:
		out := []byte("[")
		for i, item := range val {
			if i > 0 {
				out = append(out, ',')
			}
			itemJSON, err := marshalCanonical(item)
			if err != nil {
				return nil, err
			}
			out = append(out, itemJSON...)
		}
		out = append(out, ']')
		return out, nil

	default:
		return json.Marshal(val)
	}
}

// ExtractionHash identifies a (payload, prompt, model) combination so
// repeat extraction work against an unchanged payload under the same
// prompt/model can be served from the ExtractedRecord store instead of
// re-invoking the extractor.
func ExtractionHash(payload interface{}, prompt, model string) (string, error) {
	canon, err := Canonicalize(payload)
	if err != nil {
		return "", err
	}
	h := sha256.New()
	h.Write(canon)
	h.Write([]byte{0})
	h.Write([]byte(prompt))
	h.Write([]byte{0})
	h.Write([]byte(model))
	return hex.EncodeToString(h.Sum(nil)), nil
}

package proof

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Normalize reduces a heterogeneous sequence of proof representations to
// forms the codec can decode. Accepted element shapes:
//
//   - a wrapper map with a string "proof" field: the string is extracted
//   - an already-decoded *Proof, or a map carrying the TypeTag
//     discriminator: passed through unchanged
//   - a string that is valid JSON, base64, or hex text: passed through
//   - raw bytes: passed through
//
// Validation is all-or-nothing: any unrecognizable element fails the whole
// call with ErrInvalidFormat, naming every offending index in one message.
func Normalize(inputs []any) ([]any, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: proofs must be a non-empty sequence", ErrInvalidArgument)
	}

	out := make([]any, 0, len(inputs))
	var bad []string

	for i, in := range inputs {
		switch v := in.(type) {
		case *Proof:
			out = append(out, v)
		case Proof:
			out = append(out, &v)
		case []byte:
			out = append(out, v)
		case string:
			if isDecodableText(v) {
				out = append(out, v)
			} else {
				bad = append(bad, fmt.Sprintf("%d", i))
			}
		case map[string]any:
			if s, ok := v["proof"].(string); ok {
				out = append(out, s)
			} else if isDecodedProofMap(v) {
				out = append(out, v)
			} else {
				bad = append(bad, fmt.Sprintf("%d", i))
			}
		default:
			bad = append(bad, fmt.Sprintf("%d", i))
		}
	}

	if len(bad) > 0 {
		return nil, fmt.Errorf("%w: elements at index %s cannot be normalized",
			ErrInvalidFormat, strings.Join(bad, ", "))
	}

	return out, nil
}

// isDecodedProofMap reports whether a map carries the proof type
// discriminator under either its JSON-LD or plain key.
func isDecodedProofMap(m map[string]any) bool {
	if t, ok := m["@type"].(string); ok && t == TypeTag {
		return true
	}
	if t, ok := m["type"].(string); ok && t == TypeTag {
		return true
	}
	return false
}

// isDecodableText reports whether s is text the codec can decode: JSON,
// base64, or hex.
func isDecodableText(s string) bool {
	if s == "" {
		return false
	}
	if json.Valid([]byte(s)) {
		return true
	}
	if _, err := base64.StdEncoding.DecodeString(s); err == nil {
		return true
	}
	if _, err := hex.DecodeString(s); err == nil {
		return true
	}
	return false
}

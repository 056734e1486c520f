// Package codec transcodes proofs between their wire forms and the
// canonical in-memory shape. Two wire forms exist: a JSON-LD document
// carrying the proof type discriminator, and a self-describing compact
// binary envelope (zlib-compressed canonical JSON), commonly carried as
// base64 or hex text in transit.
//
// Decode sniffs the format: valid JSON text or a decoded map takes the
// JSON-LD path, base64/hex text and raw bytes take the binary path, and a
// *proof.Proof passes through untouched. Both paths produce the identical
// Proof value, so parse(encode(p, binary)) == parse(encode(p, jsonld)) == p.
package codec

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"calpoint/pkg/proof"
)

// Format selects a wire encoding for Encode.
type Format int

const (
	// FormatJSONLD is the textual JSON-LD form.
	FormatJSONLD Format = iota
	// FormatBinary is the compact zlib-compressed form.
	FormatBinary
)

// ContextURI is the JSON-LD context emitted on textual proofs.
const ContextURI = "https://w3id.org/chainpoint/v3"

// ErrUnknownFormat reports input that matches none of the recognized proof
// encodings.
var ErrUnknownFormat = errors.New("codec: unknown proof format")

// jsonLDEnvelope is the textual wire form: the canonical proof fields plus
// the JSON-LD context and type discriminator.
type jsonLDEnvelope struct {
	Context string `json:"@context"`
	Type    string `json:"type"`
	*proof.Proof
}

// Decode parses a proof of unknown encoding into its canonical form.
// Accepted inputs: *proof.Proof, a decoded map, JSON text, base64 or hex
// text wrapping the binary form, or raw binary bytes.
func Decode(raw any) (*proof.Proof, error) {
	switch v := raw.(type) {
	case *proof.Proof:
		return v, nil
	case proof.Proof:
		return &v, nil
	case map[string]any:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", proof.ErrMalformedProof, err)
		}
		return decodeJSON(data)
	case string:
		return decodeText(v)
	case []byte:
		return decodeBinary(v)
	default:
		return nil, fmt.Errorf("%w: unsupported input type %T", ErrUnknownFormat, raw)
	}
}

// Encode serializes a proof into the requested wire form.
func Encode(p *proof.Proof, f Format) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil proof", proof.ErrInvalidArgument)
	}

	data, err := json.Marshal(jsonLDEnvelope{Context: ContextURI, Type: proof.TypeTag, Proof: p})
	if err != nil {
		return nil, fmt.Errorf("codec: marshal proof: %w", err)
	}

	switch f {
	case FormatJSONLD:
		return data, nil
	case FormatBinary:
		var buf bytes.Buffer
		zw := zlib.NewWriter(&buf)
		if _, err := zw.Write(data); err != nil {
			return nil, fmt.Errorf("codec: compress proof: %w", err)
		}
		if err := zw.Close(); err != nil {
			return nil, fmt.Errorf("codec: compress proof: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: format %d", proof.ErrInvalidArgument, f)
	}
}

// decodeText classifies a textual proof: JSON goes straight to the JSON-LD
// path; base64 and hex are unwrapped to binary.
func decodeText(s string) (*proof.Proof, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: empty string", ErrUnknownFormat)
	}
	if json.Valid([]byte(s)) {
		return decodeJSON([]byte(s))
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return decodeBinary(b)
	}
	if b, err := hex.DecodeString(s); err == nil {
		return decodeBinary(b)
	}
	return nil, fmt.Errorf("%w: not JSON, base64, or hex text", ErrUnknownFormat)
}

// decodeBinary unwraps the compressed envelope. The zlib header makes the
// form self-describing.
func decodeBinary(b []byte) (*proof.Proof, error) {
	if len(b) < 2 || b[0] != 0x78 {
		return nil, fmt.Errorf("%w: missing binary envelope header", ErrUnknownFormat)
	}
	zr, err := zlib.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, err)
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: truncated binary proof: %v", proof.ErrMalformedProof, err)
	}
	return decodeJSON(data)
}

// decodeJSON validates the document against the proof schema, then
// unmarshals it. The type discriminator, when present, must match.
func decodeJSON(data []byte) (*proof.Proof, error) {
	if err := validateSchema(data); err != nil {
		return nil, err
	}

	var env jsonLDEnvelope
	env.Proof = &proof.Proof{}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", proof.ErrMalformedProof, err)
	}
	if env.Type != "" && env.Type != proof.TypeTag {
		return nil, fmt.Errorf("%w: unexpected proof type %q", proof.ErrMalformedProof, env.Type)
	}
	return env.Proof, nil
}

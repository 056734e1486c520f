package proof

import (
	"errors"
	"strings"
	"testing"
)

func TestNormalizeEmptyInput(t *testing.T) {
	for _, inputs := range [][]any{nil, {}} {
		_, err := Normalize(inputs)
		if !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("Normalize(%v): expected ErrInvalidArgument, got %v", inputs, err)
		}
	}
}

func TestNormalizeAcceptedForms(t *testing.T) {
	decoded := &Proof{Hash: "ab", HashIDNode: "n1"}

	tests := []struct {
		name  string
		input any
	}{
		{"decoded pointer", decoded},
		{"decoded value", Proof{Hash: "cd"}},
		{"json text", `{"hash":"ab"}`},
		{"base64 text", "eyJoYXNoIjoiYWIifQ=="},
		{"hex text", "78da0102abcd"},
		{"raw bytes", []byte{0x78, 0xda, 0x01}},
		{"wrapper with proof field", map[string]any{"proof": `{"hash":"ab"}`}},
		{"typed map", map[string]any{"@type": TypeTag, "hash": "ab"}},
		{"typed map plain key", map[string]any{"type": TypeTag, "hash": "ab"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := Normalize([]any{tc.input})
			if err != nil {
				t.Fatalf("Normalize failed: %v", err)
			}
			if len(out) != 1 {
				t.Fatalf("expected 1 element, got %d", len(out))
			}
		})
	}
}

func TestNormalizeExtractsWrappedProof(t *testing.T) {
	out, err := Normalize([]any{map[string]any{"proof": "eyJoYXNoIjoiYWIifQ=="}})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	s, ok := out[0].(string)
	if !ok {
		t.Fatalf("expected extracted string, got %T", out[0])
	}
	if s != "eyJoYXNoIjoiYWIifQ==" {
		t.Errorf("unexpected extracted value %q", s)
	}
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	// Neither a recognized wrapper nor valid JSON/base64/hex text.
	_, err := Normalize([]any{"not json", map[string]any{"foo": "bar"}})
	if !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
	// Both offending indexes are named in one message.
	if !strings.Contains(err.Error(), "0, 1") {
		t.Errorf("expected offending indexes in message, got %q", err.Error())
	}
}

func TestNormalizeAllOrNothing(t *testing.T) {
	// A single bad element fails the whole call; good elements are not
	// silently returned.
	_, err := Normalize([]any{`{"hash":"ab"}`, 42})
	if !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
	if !strings.Contains(err.Error(), "1") {
		t.Errorf("expected index 1 in message, got %q", err.Error())
	}
}

func TestNormalizeRejectsHeterogeneousGarbage(t *testing.T) {
	_, err := Normalize([]any{map[string]any{}, map[string]any{"notAProof": 1}})
	if !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
}

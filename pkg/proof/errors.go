package proof

import "errors"

// Errors returned by normalization and flattening. All are detected before
// any I/O and are fatal to the call that raised them.
var (
	// ErrInvalidArgument reports a missing or empty input sequence.
	ErrInvalidArgument = errors.New("proof: invalid argument")

	// ErrInvalidFormat reports input elements that are neither wrapped
	// proofs, decoded proofs, nor JSON/base64/hex text.
	ErrInvalidFormat = errors.New("proof: invalid format")

	// ErrMalformedProof reports a decoded proof whose tree violates the
	// expected shape.
	ErrMalformedProof = errors.New("proof: malformed proof")
)

// Package hashfile computes content digests of files for submission to
// the timestamping network.
package hashfile

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"

	"golang.org/x/crypto/sha3"
)

// Algorithm names accepted by Sum.
const (
	SHA256  = "sha256"
	SHA3256 = "sha3-256"
)

// Sum streams the file at path through the named hash algorithm and
// returns the hex-encoded digest.
func Sum(path, algo string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("hashfile: open %s: %w", path, err)
	}
	defer f.Close()
	return SumReader(f, algo)
}

// SumReader hashes everything read from r with the named algorithm.
func SumReader(r io.Reader, algo string) (string, error) {
	h, err := newHasher(algo)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("hashfile: read content: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func newHasher(algo string) (hash.Hash, error) {
	switch algo {
	case SHA256, "":
		return sha256.New(), nil
	case SHA3256:
		return sha3.New256(), nil
	default:
		return nil, fmt.Errorf("hashfile: unsupported algorithm %q", algo)
	}
}

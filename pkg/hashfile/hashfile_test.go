package hashfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSumSHA256(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.txt")
	if err := os.WriteFile(path, []byte("abc"), 0600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	got, err := Sum(path, SHA256)
	if err != nil {
		t.Fatalf("Sum failed: %v", err)
	}
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Errorf("sha256(abc) = %s, want %s", got, want)
	}
}

func TestSumDefaultsToSHA256(t *testing.T) {
	a, err := SumReader(strings.NewReader("abc"), "")
	if err != nil {
		t.Fatalf("SumReader failed: %v", err)
	}
	b, err := SumReader(strings.NewReader("abc"), SHA256)
	if err != nil {
		t.Fatalf("SumReader failed: %v", err)
	}
	if a != b {
		t.Errorf("empty algorithm should default to sha256: %s != %s", a, b)
	}
}

func TestSumSHA3(t *testing.T) {
	got, err := SumReader(strings.NewReader("abc"), SHA3256)
	if err != nil {
		t.Fatalf("SumReader failed: %v", err)
	}
	want := "3a985da74fe225b2045c172d6bd390bd855f086e3e9d525b46bfe24511431532"
	if got != want {
		t.Errorf("sha3-256(abc) = %s, want %s", got, want)
	}
}

func TestSumUnsupportedAlgorithm(t *testing.T) {
	if _, err := SumReader(strings.NewReader("abc"), "md5"); err == nil {
		t.Error("expected error for unsupported algorithm")
	}
}

func TestSumMissingFile(t *testing.T) {
	if _, err := Sum(filepath.Join(t.TempDir(), "nope"), SHA256); err == nil {
		t.Error("expected error for missing file")
	}
}

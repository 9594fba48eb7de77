package oracle

import (
	"crypto/aes"
	"os"
	"path/filepath"
	"testing"
)

// buildSyntheticDat constructs a Format-2 .dat file whose encrypted
// sample block, once AES-128-ECB decrypted with key, begins with magic.
func buildSyntheticDat(t *testing.T, key []byte, magic []byte) []byte {
	t.Helper()

	plain := make([]byte, aes.BlockSize)
	copy(plain, magic)

	block, err := aes.NewCipher(key)
	if err != nil {
		t.Fatalf("aes.NewCipher: %v", err)
	}
	cipherBlock := make([]byte, aes.BlockSize)
	block.Encrypt(cipherBlock, plain)

	data := make([]byte, format2SampleOffset+aes.BlockSize+4)
	copy(data[:4], format2Header)
	copy(data[format2SampleOffset:], cipherBlock)
	return data
}

func TestImageKeyOracleValidate(t *testing.T) {
	key := make([]byte, 16)
	for i := range key {
		key[i] = byte(i * 3)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "abc.dat")
	if err := os.WriteFile(path, buildSyntheticDat(t, key, jpgMagic), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	oracle, err := NewImageKeyOracle(dir)
	if err != nil {
		t.Fatalf("NewImageKeyOracle: %v", err)
	}

	if !oracle.Validate(key) {
		t.Error("expected the matching key to validate")
	}

	wrong := make([]byte, 16)
	copy(wrong, key)
	wrong[0] ^= 0xFF
	if oracle.Validate(wrong) {
		t.Error("expected a mutated key to fail validation")
	}
}

func TestImageKeyOracleIgnoresThumbnails(t *testing.T) {
	key := make([]byte, 16)
	dir := t.TempDir()
	path := filepath.Join(dir, "abc_t.dat")
	if err := os.WriteFile(path, buildSyntheticDat(t, key, wxgfMagic), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := NewImageKeyOracle(dir); err == nil {
		t.Error("expected construction to fail when only a thumbnail file is present")
	}
}

func TestNewImageKeyOracleNoCandidateFile(t *testing.T) {
	dir := t.TempDir()
	if _, err := NewImageKeyOracle(dir); err == nil {
		t.Error("expected construction to fail on an empty directory")
	}
}

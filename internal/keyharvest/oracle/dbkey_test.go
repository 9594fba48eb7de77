package oracle

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha512"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/pbkdf2"
)

// buildSyntheticPage constructs a valid encrypted-database first page for
// the given key, the reverse of Validate, so the oracle built on it must
// accept that key and reject any other.
func buildSyntheticPage(t *testing.T, key []byte) []byte {
	t.Helper()

	page := make([]byte, pageSize)
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}
	copy(page[:saltSize], salt)

	if _, err := rand.Read(page[saltSize:dataEnd]); err != nil {
		t.Fatalf("rand.Read body: %v", err)
	}

	encKey := pbkdf2.Key(key, salt, iterCount, dbKeySize, sha512.New)
	macSalt := xorBytes(salt, macSaltXor)
	macKey := pbkdf2.Key(encKey, macSalt, macDerive, dbKeySize, sha512.New)

	mac := hmac.New(sha512.New, macKey)
	mac.Write(page[saltSize:dataEnd])
	var pageNo [4]byte
	binary.LittleEndian.PutUint32(pageNo[:], 1)
	mac.Write(pageNo[:])

	copy(page[dataEnd:dataEnd+hmacSize], mac.Sum(nil))
	return page
}

func TestDbKeyOracleValidate(t *testing.T) {
	key := make([]byte, dbKeySize)
	for i := range key {
		key[i] = byte(i)
	}
	page := buildSyntheticPage(t, key)

	dir := t.TempDir()
	path := filepath.Join(dir, "message_0.db")
	if err := os.WriteFile(path, page, 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	oracle, err := NewDbKeyOracle(path)
	if err != nil {
		t.Fatalf("NewDbKeyOracle: %v", err)
	}

	if !oracle.Validate(key) {
		t.Error("expected the matching key to validate")
	}

	wrong := make([]byte, dbKeySize)
	copy(wrong, key)
	wrong[0] ^= 0xFF
	if oracle.Validate(wrong) {
		t.Error("expected a mutated key to fail validation")
	}

	if oracle.Validate(key[:16]) {
		t.Error("expected a short key to fail validation")
	}
}

func TestNewDbKeyOracleRejectsShortFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "message_0.db")
	if err := os.WriteFile(path, make([]byte, 100), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := NewDbKeyOracle(path); err == nil {
		t.Error("expected construction to fail on a file shorter than one page")
	}
}

func TestNewDbKeyOracleRejectsPlaintext(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "message_0.db")
	page := make([]byte, pageSize)
	copy(page, sqliteMagic)
	if err := os.WriteFile(path, page, 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := NewDbKeyOracle(path); err == nil {
		t.Error("expected construction to fail on a plaintext SQLite header")
	}
}

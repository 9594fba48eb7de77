// Package oracle implements the two validation oracles: DbKeyOracle
// turns 32 candidate bytes into a yes/no verdict by recomputing the
// database's own PBKDF2/HMAC derivation chain against its first page;
// ImageKeyOracle turns 16 candidate bytes into a yes/no verdict by
// AES-ECB trial-decrypting a sample image header. Grounded on
// internal/wechat/decrypt/common/common.go and
// internal/wechat/decrypt/windows/v4.go of the teacher repo.
package oracle

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"io"
	"os"

	"golang.org/x/crypto/pbkdf2"

	"github.com/sjzar/keyharvest/internal/errors"
)

const (
	dbKeySize   = 32
	saltSize    = 16
	ivSize      = 16
	hmacSize    = 64 // HMAC-SHA512
	pageSize    = 4096
	iterCount   = 256_000
	macSaltXor  = 0x3A
	macDerive   = 2
	sqliteMagic = "SQLite format 3\x00"
)

// reserve is the trailing per-page area holding IV + MAC, rounded up to
// an AES block boundary — here it already lands on one (16+64=80).
const reserve = ivSize + hmacSize

// dataEnd is the offset of the stored MAC within the first page:
// pageSize - reserve + ivSize, i.e. 4096 - 80 + 16 = 4032.
const dataEnd = pageSize - reserve + ivSize

// DbKeyOracle validates 32-byte database-key candidates against the
// first page of an encrypted message database (spec.md §4.3).
type DbKeyOracle struct {
	firstPage []byte // pageSize bytes
	salt      []byte // firstPage[:saltSize]
}

// NewDbKeyOracle reads the first page of dbPath and stores its salt.
// Construction fails if the file is too short, or if it is already
// plaintext (begins with the literal SQLite header) — there is nothing
// to validate a key against in that case.
func NewDbKeyOracle(dbPath string) (*DbKeyOracle, error) {
	f, err := os.Open(dbPath)
	if err != nil {
		return nil, errors.New(errors.ErrTypeOracle, "failed to open database file", err, 500)
	}
	defer f.Close()

	buf := make([]byte, pageSize)
	n, err := io.ReadFull(f, buf)
	if err != nil || n != pageSize {
		return nil, errors.New(errors.ErrTypeOracle, "database file shorter than one page", err, 400)
	}

	if bytes.Equal(buf[:len(sqliteMagic)], []byte(sqliteMagic)) {
		return nil, errors.ErrPlaintextDatabase
	}

	return &DbKeyOracle{
		firstPage: buf,
		salt:      buf[:saltSize],
	}, nil
}

// Validate reports whether key decrypts/authenticates the stored page
// header. It never panics and never returns an error: any malformed
// input simply yields false.
func (o *DbKeyOracle) Validate(key []byte) bool {
	if len(key) != dbKeySize {
		return false
	}

	encKey := pbkdf2.Key(key, o.salt, iterCount, dbKeySize, sha512.New)
	macSalt := xorBytes(o.salt, macSaltXor)
	macKey := pbkdf2.Key(encKey, macSalt, macDerive, dbKeySize, sha512.New)

	mac := hmac.New(sha512.New, macKey)
	mac.Write(o.firstPage[saltSize:dataEnd])

	var pageNo [4]byte
	binary.LittleEndian.PutUint32(pageNo[:], 1)
	mac.Write(pageNo[:])

	computed := mac.Sum(nil)
	stored := o.firstPage[dataEnd : dataEnd+hmacSize]

	return hmac.Equal(computed, stored)
}

func xorBytes(a []byte, b byte) []byte {
	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i] ^ b
	}
	return out
}

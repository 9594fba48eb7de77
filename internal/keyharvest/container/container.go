// Package container implements ImageContainerDecoder: turning a raw
// WeChat v4 .dat container plus its recovered image key and XOR byte
// back into plaintext image bytes (spec.md §4.5), along with the
// legacy XOR-only fallback for pre-v4 containers and the XorKeyProbe
// collaborator. Grounded on pkg/util/dat2img/dat2img.go and
// pkg/util/dat2img/wxgf.go of the teacher repo.
package container

import (
	"bytes"
	"crypto/aes"
	"encoding/binary"

	"github.com/sjzar/keyharvest/internal/errors"
)

const headerSize = 15

var (
	format1Magic = []byte{0x07, 0x08, 0x56, 0x31}
	format2Magic = []byte{0x07, 0x08, 0x56, 0x32}

	// format1Key is the fixed key used by sibling Format-1 containers;
	// they carry no user-supplied key at all.
	format1Key = []byte("cfcd208495d565ef")
)

// magicEntry is one row of the output-format lookup table (spec.md §4.5
// step 6). Order matters: first match wins.
type magicEntry struct {
	magic []byte
	ext   string
}

var magicTable = []magicEntry{
	{[]byte{0xFF, 0xD8, 0xFF}, "jpg"},
	{[]byte{0x89, 0x50, 0x4E, 0x47}, "png"},
	{[]byte{0x47, 0x49, 0x46, 0x38}, "gif"},
	{[]byte{0x49, 0x49, 0x2A, 0x00}, "tiff"},
	{[]byte{0x42, 0x4D}, "bmp"},
	{[]byte{0x77, 0x78, 0x67, 0x66}, "wxgf"},
}

// Decode turns a raw container's bytes into plaintext image bytes and
// a file extension, given the recovered 16-byte image key and XOR
// byte. If containerBytes does not carry a Format-1/Format-2 header,
// Decode falls back to the legacy whole-file XOR scheme.
func Decode(containerBytes, imageKey []byte, xorByte byte) ([]byte, string, error) {
	if len(containerBytes) < 4 {
		return nil, "", errors.ErrTooShort
	}

	switch {
	case bytes.Equal(containerBytes[:4], format1Magic):
		return decodeV4(containerBytes, format1Key, xorByte)
	case bytes.Equal(containerBytes[:4], format2Magic):
		return decodeV4(containerBytes, imageKey, xorByte)
	default:
		return decodeLegacy(containerBytes)
	}
}

// decodeV4 implements spec.md §4.5 steps 1-6 for a Format-1/Format-2
// container.
func decodeV4(data, key []byte, xorByte byte) ([]byte, string, error) {
	if len(data) < headerSize {
		return nil, "", errors.ErrTooShort
	}

	aesLen := binary.LittleEndian.Uint32(data[6:10])
	xorLen := binary.LittleEndian.Uint32(data[10:14])
	payload := data[headerSize:]

	aesBlockLen := ((uint64(aesLen) + 15) / 16) * 16
	if aesBlockLen > uint64(len(payload)) {
		aesBlockLen = uint64(len(payload))
	}

	var aesPlain []byte
	if aesLen > 0 && aesBlockLen > 0 {
		var err error
		aesPlain, err = decryptAesEcb(payload[:aesBlockLen], key)
		if err != nil {
			return nil, "", errors.New(errors.ErrTypeDecoder, "AES decrypt failed", err, 500)
		}
		aesPlain = stripPKCS7(aesPlain)
		if uint64(len(aesPlain)) > uint64(aesLen) {
			aesPlain = aesPlain[:aesLen]
		}
	}

	midEnd := int64(len(payload)) - int64(xorLen)
	var mid []byte
	if midEnd > int64(aesBlockLen) {
		mid = payload[aesBlockLen:midEnd]
	}

	var tail []byte
	if midEnd < int64(len(payload)) {
		start := midEnd
		if start < 0 {
			start = 0
		}
		tail = append([]byte(nil), payload[start:]...)
		for i := range tail {
			tail[i] ^= xorByte
		}
	}

	out := make([]byte, 0, len(aesPlain)+len(mid)+len(tail))
	out = append(out, aesPlain...)
	out = append(out, mid...)
	out = append(out, tail...)

	return identify(out)
}

// identify matches the concatenated plaintext against magicTable and
// dispatches wxgf sub-decoding.
func identify(data []byte) ([]byte, string, error) {
	for _, entry := range magicTable {
		if len(data) >= len(entry.magic) && bytes.Equal(data[:len(entry.magic)], entry.magic) {
			if entry.ext == "wxgf" {
				return decodeWxgf(data)
			}
			return data, entry.ext, nil
		}
	}
	return nil, "", errors.ErrUnknownImageFormat
}

// decodeLegacy implements the spec.md §4.5 legacy fallback: a
// consistent XOR bit recovered from the leading magic bytes of the
// raw (pre-v4) container.
func decodeLegacy(data []byte) ([]byte, string, error) {
	for _, entry := range magicTable {
		if entry.ext == "wxgf" || len(data) < len(entry.magic) {
			continue
		}
		xorBit := data[0] ^ entry.magic[0]
		match := true
		for i := range entry.magic {
			if data[i]^entry.magic[i] != xorBit {
				match = false
				break
			}
		}
		if !match {
			continue
		}

		out := make([]byte, len(data))
		for i := range data {
			out[i] = data[i] ^ xorBit
		}
		return out, entry.ext, nil
	}
	return nil, "", errors.ErrUnknownImageFormat
}

// decryptAesEcb decrypts data (a multiple of aes.BlockSize) using AES
// in ECB mode, block by block.
func decryptAesEcb(data, key []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if len(data)%aes.BlockSize != 0 {
		return nil, errors.New(errors.ErrTypeDecoder, "ciphertext is not a multiple of the AES block size", nil, 400)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	out := make([]byte, len(data))
	for off := 0; off < len(data); off += aes.BlockSize {
		block.Decrypt(out[off:off+aes.BlockSize], data[off:off+aes.BlockSize])
	}
	return out, nil
}

// stripPKCS7 removes trailing PKCS#7 padding only if the last byte p
// is in [1, 16] and the final p bytes all equal p (spec.md §4.5 step 2).
func stripPKCS7(data []byte) []byte {
	if len(data) == 0 {
		return data
	}
	pad := int(data[len(data)-1])
	if pad < 1 || pad > aes.BlockSize || pad > len(data) {
		return data
	}
	for i := len(data) - pad; i < len(data); i++ {
		if data[i] != byte(pad) {
			return data
		}
	}
	return data[:len(data)-pad]
}

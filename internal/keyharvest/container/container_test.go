package container

import (
	"bytes"
	"crypto/aes"
	"encoding/binary"
	"testing"
)

func encryptEcb(t *testing.T, key, plain []byte) []byte {
	t.Helper()
	block, err := aes.NewCipher(key)
	if err != nil {
		t.Fatalf("aes.NewCipher: %v", err)
	}
	out := make([]byte, len(plain))
	for off := 0; off < len(plain); off += aes.BlockSize {
		block.Encrypt(out[off:off+aes.BlockSize], plain[off:off+aes.BlockSize])
	}
	return out
}

func buildHeader(magic []byte, aesLen, xorLen uint32) []byte {
	h := make([]byte, headerSize)
	copy(h[:4], magic)
	binary.LittleEndian.PutUint32(h[6:10], aesLen)
	binary.LittleEndian.PutUint32(h[10:14], xorLen)
	return h
}

func TestDecodePureAES(t *testing.T) {
	key := bytes.Repeat([]byte{0x42}, 16)

	plain := make([]byte, 13)
	copy(plain, []byte{0xFF, 0xD8, 0xFF})
	pad := byte(aes.BlockSize - len(plain)%aes.BlockSize)
	paddedPlain := append(append([]byte(nil), plain...), bytes.Repeat([]byte{pad}, int(pad))...)
	cipherText := encryptEcb(t, key, paddedPlain)

	container := append(buildHeader(format2Magic, uint32(len(plain)), 0), cipherText...)

	out, ext, err := Decode(container, key, 0x37)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ext != "jpg" {
		t.Errorf("expected ext jpg, got %s", ext)
	}
	if !bytes.HasPrefix(out, []byte{0xFF, 0xD8, 0xFF}) {
		t.Errorf("expected JPEG magic prefix, got %x", out[:4])
	}
}

func TestDecodeMixedZones(t *testing.T) {
	key := bytes.Repeat([]byte{0x11}, 16)
	xorByte := byte(0x5A)

	head := make([]byte, 16)
	copy(head, []byte{0xFF, 0xD8, 0xFF})
	cipherText := encryptEcb(t, key, head)

	mid := []byte("middle-plaintext")
	rawTail := []byte{0x01, 0x02, 0x03, 0x04}
	tail := make([]byte, len(rawTail))
	for i, b := range rawTail {
		tail[i] = b ^ xorByte
	}

	payload := append(append(append([]byte(nil), cipherText...), mid...), tail...)
	container := append(buildHeader(format2Magic, 16, uint32(len(rawTail))), payload...)

	out, ext, err := Decode(container, key, xorByte)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ext != "jpg" {
		t.Errorf("expected ext jpg, got %s", ext)
	}
	if !bytes.Contains(out, mid) {
		t.Error("expected middle plaintext zone to survive verbatim")
	}
	if !bytes.HasSuffix(out, rawTail) {
		t.Errorf("expected recovered tail %x, got suffix %x", rawTail, out[len(out)-4:])
	}
}

func TestDecodeLegacyXOR(t *testing.T) {
	xorBit := byte(0x66)
	plain := append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, []byte("restofimage")...)
	encoded := make([]byte, len(plain))
	for i, b := range plain {
		encoded[i] = b ^ xorBit
	}

	out, ext, err := Decode(encoded, nil, 0)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ext != "jpg" {
		t.Errorf("expected ext jpg, got %s", ext)
	}
	if !bytes.Equal(out, plain) {
		t.Errorf("expected recovered plaintext %x, got %x", plain, out)
	}
}

func TestDecodeTooShort(t *testing.T) {
	if _, _, err := Decode([]byte{1, 2}, nil, 0); err == nil {
		t.Error("expected an error for a too-short container")
	}
}

func TestDecodeUnknownFormat(t *testing.T) {
	if _, _, err := Decode([]byte{0, 1, 2, 3, 4, 5}, nil, 0); err == nil {
		t.Error("expected an error for an unrecognized container")
	}
}

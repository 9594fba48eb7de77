package container

import (
	"bytes"
	"testing"
)

// buildWxgfContainer assembles a minimal wxgf blob: magic + header_len
// byte + header filler + one length-prefixed partition using the given
// start code. The length field counts the start code plus the payload.
func buildWxgfContainer(headerLen int, startCode, payload []byte) []byte {
	data := make([]byte, 5+headerLen)
	copy(data[:4], wxgfMagic)
	data[4] = byte(headerLen)

	partLen := len(startCode) + len(payload)
	length := make([]byte, 4)
	length[0] = byte(partLen >> 24)
	length[1] = byte(partLen >> 16)
	length[2] = byte(partLen >> 8)
	length[3] = byte(partLen)

	data = append(data, length...)
	data = append(data, startCode...)
	data = append(data, payload...)
	return data
}

func TestFindPartitionsLongStartCode(t *testing.T) {
	payload := bytes.Repeat([]byte{0xAB}, 40)
	data := buildWxgfContainer(0, []byte{0x00, 0x00, 0x00, 0x01}, payload)

	partitions, err := findPartitions(data)
	if err != nil {
		t.Fatalf("findPartitions: %v", err)
	}
	if len(partitions) != 1 {
		t.Fatalf("expected 1 partition, got %d", len(partitions))
	}
	if partitions[0].size != len(startCodePatterns[0])+len(payload) {
		t.Errorf("unexpected partition size %d", partitions[0].size)
	}
}

func TestFindPartitionsNoMatch(t *testing.T) {
	data := make([]byte, 5)
	copy(data[:4], wxgfMagic)
	if _, err := findPartitions(data); err == nil {
		t.Error("expected an error when no partition pattern matches")
	}
}

func TestDecodeWxgfFallsBackToRawH265(t *testing.T) {
	// No ffmpeg is assumed available in this sandboxed test environment,
	// so decodeWxgf must degrade to emitting the raw bitstream.
	payload := bytes.Repeat([]byte{0x26, 0x01}, 20)
	data := buildWxgfContainer(0, []byte{0x00, 0x00, 0x00, 0x01}, payload)

	out, ext, err := decodeWxgf(data)
	if err != nil {
		t.Fatalf("decodeWxgf: %v", err)
	}
	if ext != "h265" && ext != "jpg" {
		t.Errorf("unexpected ext %s", ext)
	}
	if ext == "h265" && len(out) == 0 {
		t.Error("expected non-empty raw bitstream fallback")
	}
}

func TestLooksAnimated(t *testing.T) {
	uniform := []partition{{ratio: 0.3}, {ratio: 0.3}, {ratio: 0.3}}
	if !looksAnimated(uniform) {
		t.Error("expected a set of comparably sized partitions to look animated")
	}

	dominant := []partition{{ratio: 0.9}, {ratio: 0.05}}
	if looksAnimated(dominant) {
		t.Error("expected a single dominant partition to not look animated")
	}

	single := []partition{{ratio: 1.0}}
	if looksAnimated(single) {
		t.Error("expected a single partition to never look animated")
	}
}

package container

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
)

// defaultXorByte is returned when no thumbnail confirms a recovered
// key — the value WeChat v4 uses in the overwhelming majority of
// installs (spec.md §4.6).
const defaultXorByte byte = 0x37

var jpegEOI = [2]byte{0xFF, 0xD9}

// ProbeXorKey walks dataDir for "_t.dat" thumbnails and recovers the
// XOR byte from the trailing two bytes of a Format-1/Format-2
// thumbnail's XOR zone, which reliably decode to the JPEG EOI marker
// FF D9. Falls back to defaultXorByte if no thumbnail confirms a key.
// Grounded on pkg/util/dat2img/dat2img.go's calculateXorKeyV4/
// ScanAndSetXorKey of the teacher repo.
func ProbeXorKey(dataDir string) byte {
	found := defaultXorByte

	_ = filepath.Walk(dataDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() || !strings.HasSuffix(info.Name(), "_t.dat") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}

		key, ok := recoverXorByte(data)
		if !ok {
			return nil
		}
		found = key
		return filepath.SkipAll
	})

	return found
}

// recoverXorByte attempts to recover the XOR byte from a single
// thumbnail's header and tail.
func recoverXorByte(data []byte) (byte, bool) {
	if len(data) < headerSize || !(bytes.Equal(data[:4], format1Magic) || bytes.Equal(data[:4], format2Magic)) {
		return 0, false
	}

	xorLen := binary.LittleEndian.Uint32(data[10:14])
	payload := data[headerSize:]
	if xorLen == 0 || uint64(xorLen) > uint64(len(payload)) {
		return 0, false
	}

	tail := payload[uint64(len(payload))-uint64(xorLen):]
	if len(tail) < 2 {
		return 0, false
	}

	last := tail[len(tail)-2:]
	k0 := last[0] ^ jpegEOI[0]
	k1 := last[1] ^ jpegEOI[1]
	if k0 == k1 {
		return k0, true
	}
	return 0, false
}

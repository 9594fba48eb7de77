package oracle

import (
	"bytes"
	"crypto/aes"
	"os"
	"path/filepath"
	"strings"

	"github.com/sjzar/keyharvest/internal/errors"
)

// format2Header identifies a Format-2 container (spec.md §4.1): the
// four magic bytes that precede the AES-encrypted zone.
var format2Header = []byte{0x07, 0x08, 0x56, 0x32}

// jpgMagic and wxgfMagic are the two plaintext headers a successful
// trial decrypt of the AES zone may reveal.
var (
	jpgMagic  = []byte{0xFF, 0xD8, 0xFF}
	wxgfMagic = []byte{0x77, 0x78, 0x67, 0x66}
)

const format2SampleOffset = 15 // offset of the AES-encrypted sample block within a Format-2 container

// ImageKeyOracle validates 16-byte image-key candidates by AES-128-ECB
// trial-decrypting one AES block sampled from a real Format-2
// container and checking the result against known image magics
// (spec.md §4.4).
type ImageKeyOracle struct {
	sample []byte // one aes.BlockSize block
}

// NewImageKeyOracle walks dataDir for the first Format-2 *.dat file
// (excluding *_t.dat thumbnails) and extracts its leading encrypted
// block as the oracle's trial sample. Returns ErrOracleUnavailable if
// no such file exists — the oracle cannot be built without a sample.
func NewImageKeyOracle(dataDir string) (*ImageKeyOracle, error) {
	var sample []byte

	err := filepath.Walk(dataDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // keep walking past unreadable entries
		}
		if info.IsDir() {
			return nil
		}
		name := info.Name()
		if !strings.HasSuffix(name, ".dat") || strings.HasSuffix(name, "_t.dat") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		if len(data) < format2SampleOffset+aes.BlockSize || !bytes.Equal(data[:4], format2Header) {
			return nil
		}

		sample = append([]byte(nil), data[format2SampleOffset:format2SampleOffset+aes.BlockSize]...)
		return filepath.SkipAll
	})
	if err != nil {
		return nil, errors.New(errors.ErrTypeOracle, "failed walking data directory for image sample", err, 500)
	}
	if len(sample) == 0 {
		return nil, errors.ErrOracleUnavailable
	}

	return &ImageKeyOracle{sample: sample}, nil
}

// Validate reports whether key AES-128-ECB-decrypts the stored sample
// into a block beginning with a known image magic.
func (o *ImageKeyOracle) Validate(key []byte) bool {
	if len(key) < 16 {
		return false
	}

	block, err := aes.NewCipher(key[:16])
	if err != nil {
		return false
	}

	decrypted := make([]byte, len(o.sample))
	block.Decrypt(decrypted, o.sample)

	return bytes.HasPrefix(decrypted, jpgMagic) || bytes.HasPrefix(decrypted, wxgfMagic)
}

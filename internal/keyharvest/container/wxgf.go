package container

import (
	"bytes"
	"os/exec"

	"github.com/sjzar/keyharvest/internal/errors"
)

var wxgfMagic = []byte{0x77, 0x78, 0x67, 0x66}

// startCodePatterns are tried in order; the first one that yields any
// partition wins (spec.md §4.5 wxgf sub-decode).
var startCodePatterns = [][]byte{
	{0x00, 0x00, 0x00, 0x01},
	{0x00, 0x00, 0x01},
}

// partition is one candidate H.265 bitstream segment found inside a
// wxgf container.
type partition struct {
	offset int
	size   int
	ratio  float64
}

// decodeWxgf implements the primary wxgf sub-decode path: locate the
// largest partition, hand it to the external ffmpeg transcoder, and
// fall back to emitting the raw H.265 bytes on any transcoder failure.
// Grounded on pkg/util/dat2img/wxgf.go's Wxam2pic/findDataPartition.
func decodeWxgf(data []byte) ([]byte, string, error) {
	if len(data) < 5 || !bytes.Equal(data[:4], wxgfMagic) {
		return nil, "", errors.ErrUnknownImageFormat
	}

	partitions, err := findPartitions(data)
	if err != nil {
		return nil, "", err
	}

	best := largestPartition(partitions)
	raw := data[best.offset : best.offset+best.size]

	jpeg, err := transcodeToJPEG(raw)
	if err != nil {
		return raw, "h265", nil
	}
	return jpeg, "jpg", nil
}

// findPartitions scans data[headerLen:] for start-code-delimited
// segments, each preceded by a 4-byte big-endian length field, per
// spec.md §4.5. Tries each start-code pattern in turn; the first one
// yielding at least one partition is used.
func findPartitions(data []byte) ([]partition, error) {
	headerLen := int(data[4])
	if headerLen >= len(data) {
		return nil, errors.New(errors.ErrTypeDecoder, "wxgf header_len exceeds container size", nil, 400)
	}

	for _, pattern := range startCodePatterns {
		var out []partition
		offset := headerLen
		for {
			if offset > len(data) {
				break
			}
			idx := bytes.Index(data[offset:], pattern)
			if idx == -1 {
				break
			}
			hit := offset + idx

			if hit < 4 {
				offset = hit + 1
				continue
			}

			length := int(data[hit-4])<<24 | int(data[hit-3])<<16 | int(data[hit-2])<<8 | int(data[hit-1])
			if length <= 0 || hit+length > len(data) {
				offset = hit + 1
				continue
			}

			out = append(out, partition{
				offset: hit,
				size:   length,
				ratio:  float64(length) / float64(len(data)),
			})
			offset = hit + length
		}
		if len(out) > 0 {
			return out, nil
		}
	}

	return nil, errors.New(errors.ErrTypeDecoder, "no wxgf partition found", nil, 400)
}

func largestPartition(partitions []partition) partition {
	best := partitions[0]
	for _, p := range partitions[1:] {
		if p.ratio > best.ratio {
			best = p
		}
	}
	return best
}

// transcodeToJPEG shells out to the external ffmpeg collaborator to
// decode one H.265 frame to a JPEG still.
func transcodeToJPEG(h265 []byte) ([]byte, error) {
	cmd := exec.Command("ffmpeg",
		"-i", "-",
		"-vframes", "1",
		"-c:v", "mjpeg",
		"-q:v", "4",
		"-f", "image2",
		"-")

	var stdout, stderr bytes.Buffer
	cmd.Stdin = bytes.NewReader(h265)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, errors.New(errors.ErrTypeDecoder, "ffmpeg transcode failed: "+stderr.String(), err, 500)
	}
	if stdout.Len() == 0 {
		return nil, errors.ErrTranscoderFailure
	}
	return stdout.Bytes(), nil
}

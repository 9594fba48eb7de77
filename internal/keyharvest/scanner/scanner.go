// Package scanner implements KeyScanner: given a freshly read memory
// block, emit candidate key byte slices. The scan strategy is chosen by
// which MemoryBackend variant produced the block — pointer-chasing on
// Windows, direct pattern offsets on macOS — but the strategies
// themselves are pure byte-slice logic with no platform dependency, so
// this package has no build tags.
package scanner

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/hex"

	"github.com/sjzar/keyharvest/internal/keyharvest/backend"
)

const (
	KindDB    = "db"
	KindImage = "image"
)

// Candidate is a freshly extracted, not-yet-validated key byte slice.
type Candidate struct {
	Kind  string
	Bytes []byte
}

// ReadFunc fetches size bytes at addr from the same target the block
// being scanned came from. Only the pointer-chasing strategy uses it.
type ReadFunc func(ctx context.Context, addr, size uint64) ([]byte, error)

// Scanner emits candidates from memory blocks and deduplicates them by
// hex encoding across the lifetime of one extraction (spec.md §4.2).
type Scanner interface {
	Scan(ctx context.Context, block []byte, read ReadFunc) []Candidate
}

// New returns the scan strategy paired with the given backend variant.
func New(variant backend.Variant) Scanner {
	switch variant {
	case backend.VariantPointerChase:
		return &pointerChaseScanner{seen: make(map[string]bool)}
	case backend.VariantPatternScan:
		return &patternScanner{seen: make(map[string]bool)}
	default:
		return &patternScanner{seen: make(map[string]bool)}
	}
}

func dedupe(seen map[string]bool, b []byte) (string, bool) {
	key := hex.EncodeToString(b)
	if seen[key] {
		return key, false
	}
	seen[key] = true
	return key, true
}

// pointerChaseScanner implements the Variant A (Windows V4) strategy:
// find the fixed 24-byte signature, interpret the 8 bytes immediately
// preceding a hit as a little-endian pointer, and follow it up with a
// 32-byte read.
type pointerChaseScanner struct {
	seen map[string]bool
}

var pointerChaseSignature = []byte{
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x20, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x2F, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
}

const (
	minPointer = 0x10000
	maxPointer = 0x7FFF_FFFF_FFFF
)

func (s *pointerChaseScanner) Scan(ctx context.Context, block []byte, read ReadFunc) []Candidate {
	var out []Candidate
	idx := len(block)
	for {
		idx = bytes.LastIndex(block[:idx], pointerChaseSignature)
		if idx == -1 || idx-8 < 0 {
			break
		}

		ptr := binary.LittleEndian.Uint64(block[idx-8 : idx])
		if ptr > minPointer && ptr < maxPointer && read != nil {
			keyBytes, err := read(ctx, ptr, 32)
			if err == nil && len(keyBytes) == 32 {
				if _, fresh := dedupe(s.seen, keyBytes); fresh {
					out = append(out, Candidate{Kind: KindDB, Bytes: keyBytes})
				}
			}
		}
		idx--
	}
	return out
}

// patternScanner implements the Variant B (macOS) strategy: two
// independent right-to-left sub-scans over offsets fixed relative to a
// literal byte pattern, with no follow-up read.
type patternScanner struct {
	seen map[string]bool
}

var dbKeyPattern = []byte{0x20, 0x66, 0x74, 0x73, 0x35, 0x28, 0x25, 0x00} // " fts5(%\0"

var dbKeyOffsets = []int{16, -80, 64}

var imageKeyZeroBlock = make([]byte, 16)

var imageKeyOffsets = []int{-32}

func (s *patternScanner) Scan(ctx context.Context, block []byte, read ReadFunc) []Candidate {
	var out []Candidate
	out = append(out, s.scanDBKeys(block)...)
	out = append(out, s.scanImageKeys(block)...)
	return out
}

func (s *patternScanner) scanDBKeys(block []byte) []Candidate {
	var out []Candidate
	idx := len(block)
	for {
		idx = bytes.LastIndex(block[:idx], dbKeyPattern)
		if idx == -1 {
			break
		}
		for _, off := range dbKeyOffsets {
			start := idx + off
			if start < 0 || start+32 > len(block) {
				continue
			}
			keyBytes := append([]byte(nil), block[start:start+32]...)
			if _, fresh := dedupe(s.seen, keyBytes); fresh {
				out = append(out, Candidate{Kind: KindDB, Bytes: keyBytes})
			}
		}
		idx--
	}
	return out
}

func (s *patternScanner) scanImageKeys(block []byte) []Candidate {
	var out []Candidate
	idx := len(block)
	for {
		idx = bytes.LastIndex(block[:idx], imageKeyZeroBlock)
		if idx == -1 {
			break
		}
		for _, off := range imageKeyOffsets {
			start := idx + off
			if start < 0 || start+16 > len(block) {
				continue
			}
			keyBytes := block[start : start+16]
			if allZero(keyBytes) {
				continue
			}
			dup := append([]byte(nil), keyBytes...)
			if _, fresh := dedupe(s.seen, dup); fresh {
				out = append(out, Candidate{Kind: KindImage, Bytes: dup})
			}
		}
		idx--
	}
	return out
}

func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

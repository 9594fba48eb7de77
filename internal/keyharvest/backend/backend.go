// Package backend implements MemoryBackend: the OS-dependent primitives
// for attaching to a running process, enumerating its writable private
// regions, and reading byte ranges out of it.
//
// Two variants exist, chosen by host OS. Variant A (windows.go) uses the
// kernel's process-VM read and region-query syscalls directly. Variant B
// (darwin.go) has no such syscalls available to unprivileged user code
// and instead drives the system's vmmap utility and an external debugger
// (lldb) as child processes.
package backend

import (
	"context"
	"fmt"

	"github.com/sjzar/keyharvest/internal/errors"
	"github.com/sjzar/keyharvest/internal/keyharvest/model"
)

// Variant identifies which KeyScanner strategy pairs with a backend.
type Variant int

const (
	// VariantPointerChase backs are hosts with direct kernel VM read
	// access (Windows): the scanner follows an adjacent pointer field.
	VariantPointerChase Variant = iota
	// VariantPatternScan backs hosts with no direct read syscall
	// (macOS): the scanner matches fixed byte patterns at known
	// offsets within the block itself.
	VariantPatternScan
)

// RegionIterator yields MemoryRegions lazily, in ascending base-address
// order, exactly once each.
type RegionIterator interface {
	// Next returns the next region. ok is false once the sequence is
	// exhausted; err is non-nil only on an unrecoverable enumeration
	// failure.
	Next(ctx context.Context) (region model.Region, ok bool, err error)
}

// Target is an open reference to a running process's address space.
type Target interface {
	// Regions returns a finite, single-pass enumerator over the
	// target's admissible writable private regions.
	Regions(ctx context.Context) (RegionIterator, error)
	// Read returns exactly len bytes on success, a short read if the
	// backend could only retrieve fewer, or (nil, nil) if the region
	// became unreadable. It never returns a non-nil error for an
	// ordinary unreadable region — that is reported as (nil, nil).
	Read(ctx context.Context, base, size uint64) ([]byte, error)
	// Close releases the target. No further reads are permitted after
	// Close returns.
	Close() error
}

// Backend opens targets on one host OS.
type Backend interface {
	Variant() Variant
	Open(ctx context.Context, pid uint32) (Target, error)
}

// splitRegion applies the >64MiB chunking / >192MiB truncation rule from
// spec.md §3: a source region becomes one or more chunks, capped at
// MaxChunksPerRegion chunks of at most MaxChunkSize each.
func splitRegion(base, size uint64, protect uint32) []model.Region {
	if size <= model.MaxChunkSize {
		return []model.Region{{Base: base, Size: size, ProtectFlags: protect}}
	}

	var out []model.Region
	for off := uint64(0); off < size && len(out) < model.MaxChunksPerRegion; off += model.MaxChunkSize {
		chunkSize := uint64(model.MaxChunkSize)
		if off+chunkSize > size {
			chunkSize = size - off
		}
		out = append(out, model.Region{Base: base + off, Size: chunkSize, ProtectFlags: protect})
	}
	return out
}

// New returns the MemoryBackend for the given platform identifier
// ("windows" or "darwin", per model.Platform*).
func New(platform string) (Backend, error) {
	switch platform {
	case model.PlatformWindows:
		return newWindowsBackend()
	case model.PlatformMacOS:
		return newDarwinBackend()
	default:
		return nil, errors.New(errors.ErrTypeInvalidArg, fmt.Sprintf("unsupported memory backend platform: %s", platform), nil, 400)
	}
}

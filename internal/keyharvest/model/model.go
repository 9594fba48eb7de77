// Package model defines the data shapes shared across the key-extraction
// pipeline: process records handed in by the (out of scope) discovery
// collaborator, and the memory-region description produced by a
// MemoryBackend.
package model

const (
	PlatformWindows = "windows"
	PlatformMacOS   = "darwin"
)

const (
	StatusInit    = ""
	StatusOffline = "offline"
	StatusOnline  = "online"
)

// ProcessRecord is the fixed-shape input the extractor consumes from the
// process-discovery collaborator (out of scope for this system; see
// internal/keyharvest/discovery for a runnable default implementation).
type ProcessRecord struct {
	PID         uint32
	ExePath     string
	DataDir     string
	AccountName string
	Status      string
	Version     int
	FullVersion string
}

// Region describes a single contiguous, readable-writable, private
// region of a target process's address space, as yielded by a
// MemoryBackend's region enumerator.
type Region struct {
	Base         uint64
	Size         uint64
	ProtectFlags uint32
}

// Minimum admissible region size. Regions smaller than this are never
// yielded by a backend.
const MinRegionSize = 1 << 20 // 1 MiB

// MaxChunkSize is the largest single chunk a backend will read out of a
// region; larger regions are split.
const MaxChunkSize = 64 << 20 // 64 MiB

// MaxChunksPerRegion bounds the scanning cost of a single oversized
// region: at most this many MaxChunkSize chunks are read from it.
const MaxChunksPerRegion = 3

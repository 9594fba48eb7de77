package errors

import "net/http"

// Sentinel errors for the extraction pipeline. Compare with errors.Is
// (via RootCause/Unwrap) rather than string matching.
var (
	// ErrPermissionDenied: caller lacks the privilege required to attach
	// to the target process (includes "SIP enabled" on the darwin
	// backend).
	ErrPermissionDenied = New(ErrTypePermission, "permission denied attaching to target process", nil, http.StatusForbidden)

	// ErrTargetGone: the PID disappeared between discovery and open.
	ErrTargetGone = New(ErrTypeNotFound, "target process is gone", nil, http.StatusNotFound)

	// ErrOracleUnavailable: no sample encrypted image could be located
	// for the image-key oracle; that oracle is disabled but extraction
	// of the other key continues.
	ErrOracleUnavailable = New(ErrTypeOracle, "validation oracle unavailable", nil, http.StatusBadRequest)

	// ErrPlaintextDatabase: the database file exists but is not
	// encrypted (it begins with the literal SQLite header).
	ErrPlaintextDatabase = New(ErrTypeOracle, "database file is already plaintext", nil, http.StatusBadRequest)

	// ErrNoValidKey: the region stream was exhausted without a
	// validated candidate.
	ErrNoValidKey = New(ErrTypeOracle, "no valid key found in process memory", nil, http.StatusNotFound)

	// ErrTooShort: an image container is shorter than the fixed header.
	ErrTooShort = New(ErrTypeDecoder, "container shorter than header", nil, http.StatusBadRequest)

	// ErrUnknownImageFormat: decoded bytes matched no known magic.
	ErrUnknownImageFormat = New(ErrTypeDecoder, "unknown image format", nil, http.StatusBadRequest)

	// ErrInvalidPartition: the wxgf sub-decode could not locate any
	// start-code partition.
	ErrInvalidPartition = New(ErrTypeDecoder, "no valid wxgf partition found", nil, http.StatusBadRequest)

	// ErrTranscoderFailure: the external media transcoder failed or
	// produced no output.
	ErrTranscoderFailure = New(ErrTypeDecoder, "media transcoder failed", nil, http.StatusInternalServerError)
)

// RegionUnreadable wraps a single-region read failure. Callers skip the
// region rather than aborting the scan.
func RegionUnreadable(cause error) *AppError {
	return New(ErrTypeMemory, "memory region unreadable", cause, http.StatusInternalServerError)
}

// OpenTargetFailed wraps a platform open_target failure that is neither
// permission nor not-found.
func OpenTargetFailed(cause error) *AppError {
	return New(ErrTypeMemory, "failed to open target process", cause, http.StatusInternalServerError)
}

// PlatformUnsupported reports an (os, version) combination with no
// extractor implementation.
func PlatformUnsupported(platform string, version int) *AppError {
	return Newf(ErrTypeInvalidArg, nil, http.StatusBadRequest, "unsupported platform: %s v%d", platform, version).WithStack()
}

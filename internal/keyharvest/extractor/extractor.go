// Package extractor wires backend, scanner, oracle, and container
// together into the top-level extraction operation (spec.md §4.7).
// Grounded on internal/wechat/key/extractor.go and
// internal/wechat/key/windows/v4_windows.go of the teacher repo, with
// the worker-pool concurrency collapsed into the single-threaded,
// synchronous model spec.md §5 requires.
package extractor

import (
	"context"
	"encoding/hex"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/sjzar/keyharvest/internal/errors"
	"github.com/sjzar/keyharvest/internal/keyharvest/backend"
	"github.com/sjzar/keyharvest/internal/keyharvest/model"
	"github.com/sjzar/keyharvest/internal/keyharvest/oracle"
	"github.com/sjzar/keyharvest/internal/keyharvest/scanner"
)

// Result holds the hex-encoded keys recovered from one extraction.
// Either field may be empty if that key was never found.
type Result struct {
	DbKeyHex    string
	ImageKeyHex string
}

// Extractor orchestrates one extraction run against a single target
// process.
type Extractor struct {
	backend backend.Backend
	scanner scanner.Scanner
}

// New builds an Extractor for the given platform ("windows" or
// "darwin").
func New(platform string) (*Extractor, error) {
	b, err := backend.New(platform)
	if err != nil {
		return nil, err
	}
	return &Extractor{
		backend: b,
		scanner: scanner.New(b.Variant()),
	}, nil
}

// SelectTarget picks the record to extract from, per spec.md §4.7: the
// first online record with a data directory, otherwise the first
// record overall.
func SelectTarget(records []model.ProcessRecord) (model.ProcessRecord, bool) {
	if len(records) == 0 {
		return model.ProcessRecord{}, false
	}
	for _, r := range records {
		if r.Status == model.StatusOnline && r.DataDir != "" {
			return r, true
		}
	}
	return records[0], true
}

// Extract runs the full scan/validate loop against one process record
// and returns whatever keys were recovered. Oracle construction
// failures are swallowed — extraction degrades to surfacing only the
// key whose oracle is available.
func (e *Extractor) Extract(ctx context.Context, proc model.ProcessRecord) (Result, error) {
	dbOracle, err := oracle.NewDbKeyOracle(filepath.Join(proc.DataDir, "db_storage", "message", "message_0.db"))
	if err != nil {
		log.Debug().Err(err).Msg("db key oracle unavailable, db key extraction disabled")
		dbOracle = nil
	}

	imgOracle, err := oracle.NewImageKeyOracle(proc.DataDir)
	if err != nil {
		log.Debug().Err(err).Msg("image key oracle unavailable, image key extraction disabled")
		imgOracle = nil
	}

	target, err := e.backend.Open(ctx, proc.PID)
	if err != nil {
		return Result{}, err
	}
	defer target.Close()

	var result Result
	regions, err := target.Regions(ctx)
	if err != nil {
		return result, err
	}

	readFn := func(ctx context.Context, addr, size uint64) ([]byte, error) {
		return target.Read(ctx, addr, size)
	}

	for {
		if result.DbKeyHex != "" && result.ImageKeyHex != "" {
			break
		}

		region, ok, err := regions.Next(ctx)
		if err != nil {
			return result, err
		}
		if !ok {
			break
		}

		block, err := target.Read(ctx, region.Base, region.Size)
		if err != nil || block == nil {
			continue
		}

		for _, cand := range e.scanner.Scan(ctx, block, readFn) {
			switch cand.Kind {
			case scanner.KindDB:
				if result.DbKeyHex == "" && dbOracle != nil && dbOracle.Validate(cand.Bytes) {
					result.DbKeyHex = hex.EncodeToString(cand.Bytes)
				}
			case scanner.KindImage:
				if result.ImageKeyHex == "" && imgOracle != nil && imgOracle.Validate(cand.Bytes) {
					result.ImageKeyHex = hex.EncodeToString(cand.Bytes[:16])
				}
			}
			if result.DbKeyHex != "" && result.ImageKeyHex != "" {
				break
			}
		}
	}

	if result.DbKeyHex == "" && result.ImageKeyHex == "" {
		return result, errors.ErrNoValidKey
	}
	return result, nil
}

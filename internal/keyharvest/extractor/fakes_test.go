package extractor

import (
	"context"

	"github.com/sjzar/keyharvest/internal/keyharvest/backend"
	"github.com/sjzar/keyharvest/internal/keyharvest/model"
	"github.com/sjzar/keyharvest/internal/keyharvest/scanner"
)

// fakeBackend is a no-op Backend test double: it opens successfully but
// yields zero regions, exercising the "nothing found" extraction path.
type fakeBackend struct{}

func (b *fakeBackend) Variant() backend.Variant { return backend.VariantPatternScan }

func (b *fakeBackend) Open(ctx context.Context, pid uint32) (backend.Target, error) {
	return &fakeTarget{}, nil
}

type fakeTarget struct{}

func (t *fakeTarget) Regions(ctx context.Context) (backend.RegionIterator, error) {
	return &fakeRegionIterator{}, nil
}

func (t *fakeTarget) Read(ctx context.Context, base, size uint64) ([]byte, error) {
	return nil, nil
}

func (t *fakeTarget) Close() error { return nil }

type fakeRegionIterator struct{}

func (it *fakeRegionIterator) Next(ctx context.Context) (model.Region, bool, error) {
	return model.Region{}, false, nil
}

// fakeScanner never produces candidates.
type fakeScanner struct{}

func (fakeScanner) Scan(ctx context.Context, block []byte, read scanner.ReadFunc) []scanner.Candidate {
	return nil
}

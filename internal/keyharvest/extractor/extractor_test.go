package extractor

import (
	"context"
	"testing"

	"github.com/sjzar/keyharvest/internal/errors"
	"github.com/sjzar/keyharvest/internal/keyharvest/model"
)

func TestSelectTargetPrefersOnlineWithDataDir(t *testing.T) {
	records := []model.ProcessRecord{
		{PID: 1, Status: model.StatusOffline, DataDir: "/a"},
		{PID: 2, Status: model.StatusOnline, DataDir: ""},
		{PID: 3, Status: model.StatusOnline, DataDir: "/c"},
	}

	got, ok := SelectTarget(records)
	if !ok {
		t.Fatal("expected a target to be selected")
	}
	if got.PID != 3 {
		t.Errorf("expected PID 3, got %d", got.PID)
	}
}

func TestSelectTargetFallsBackToFirst(t *testing.T) {
	records := []model.ProcessRecord{
		{PID: 1, Status: model.StatusOffline},
		{PID: 2, Status: model.StatusOffline},
	}

	got, ok := SelectTarget(records)
	if !ok {
		t.Fatal("expected a target to be selected")
	}
	if got.PID != 1 {
		t.Errorf("expected fallback to first record (PID 1), got %d", got.PID)
	}
}

func TestSelectTargetEmpty(t *testing.T) {
	if _, ok := SelectTarget(nil); ok {
		t.Error("expected no target to be selected from an empty record list")
	}
}

func TestExtractReturnsErrNoValidKeyWhenNothingFound(t *testing.T) {
	e := &Extractor{
		backend: &fakeBackend{},
		scanner: fakeScanner{},
	}

	proc := model.ProcessRecord{PID: 1, DataDir: t.TempDir(), Status: model.StatusOnline}
	_, err := e.Extract(context.Background(), proc)
	if err != errors.ErrNoValidKey {
		t.Errorf("expected ErrNoValidKey when no keys are found and both oracles are unavailable, got %v", err)
	}
}

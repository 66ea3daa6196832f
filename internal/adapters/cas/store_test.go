package cas_test

import (
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.trai.ch/strata/internal/adapters/cas"
	"go.trai.ch/strata/internal/core/domain"
)

func newStore(t *testing.T) *cas.Store {
	t.Helper()
	store, err := cas.NewStore(filepath.Join(t.TempDir(), "build_records.json"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return store
}

func TestStore_PutAndRecord(t *testing.T) {
	store := newStore(t)

	rec := domain.BuildRecord{
		Package:      "openssl",
		InputHash:    "abc",
		ArtifactHash: "def",
		Timestamp:    time.Now().UTC(),
	}
	if err := store.PutRecord(rec); err != nil {
		t.Fatalf("PutRecord failed: %v", err)
	}

	got, err := store.Record("openssl")
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if got == nil {
		t.Fatal("Record returned nil")
	}
	if got.InputHash != rec.InputHash || got.ArtifactHash != rec.ArtifactHash {
		t.Errorf("record mismatch: got %+v", got)
	}
}

func TestStore_RecordMissing(t *testing.T) {
	store := newStore(t)

	got, err := store.Record("unknown")
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for unknown package, got %+v", got)
	}
}

func TestStore_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "build_records.json")

	store1, err := cas.NewStore(path)
	if err != nil {
		t.Fatalf("NewStore 1 failed: %v", err)
	}
	rec := domain.BuildRecord{Package: "zlib", InputHash: "in", ArtifactHash: "out"}
	if err := store1.PutRecord(rec); err != nil {
		t.Fatalf("PutRecord failed: %v", err)
	}

	store2, err := cas.NewStore(path)
	if err != nil {
		t.Fatalf("NewStore 2 failed: %v", err)
	}
	got, err := store2.Record("zlib")
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if got == nil || got.ArtifactHash != "out" {
		t.Errorf("expected persisted record, got %+v", got)
	}
}

func TestStore_ComputeSetSingleComputation(t *testing.T) {
	store := newStore(t)

	var calls atomic.Int32
	compute := func() (*domain.PackageSet, error) {
		calls.Add(1)
		time.Sleep(10 * time.Millisecond)
		set := domain.NewPackageSet()
		set.Put(domain.PackageDef{Name: domain.NewInternedString("app")})
		return set, nil
	}

	var wg sync.WaitGroup
	results := make([]*domain.PackageSet, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			set, err := store.ComputeSet("key", compute)
			if err != nil {
				t.Errorf("ComputeSet failed: %v", err)
				return
			}
			results[i] = set
		}()
	}
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("expected exactly one computation, got %d", got)
	}
	for i, set := range results {
		if set != results[0] {
			t.Errorf("caller %d got a different set instance", i)
		}
	}
}

func TestStore_ComputeSetCachedAcrossCalls(t *testing.T) {
	store := newStore(t)

	var calls int
	compute := func() (*domain.PackageSet, error) {
		calls++
		return domain.NewPackageSet(), nil
	}

	first, err := store.ComputeSet("k", compute)
	if err != nil {
		t.Fatalf("ComputeSet failed: %v", err)
	}
	second, err := store.ComputeSet("k", compute)
	if err != nil {
		t.Fatalf("ComputeSet failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected one computation, got %d", calls)
	}
	if first != second {
		t.Error("expected identical set instance on repeat call")
	}
}

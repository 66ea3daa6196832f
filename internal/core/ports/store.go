package ports

import "go.trai.ch/strata/internal/core/domain"

// SetMemo is a write-once memoization table for composed package sets.
// Multiple callers racing to compute the same key must share one computation:
// the second caller awaits the first's result instead of recomputing.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type SetMemo interface {
	// ComputeSet returns the cached set for key, running compute at most once
	// per key across all concurrent callers.
	ComputeSet(key string, compute func() (*domain.PackageSet, error)) (*domain.PackageSet, error)
}

// BuildRecordStore persists the results of realized environment packages.
// Implementations must support safe concurrent readers and serialize writers;
// a failed build for one package must not corrupt records of other packages.
type BuildRecordStore interface {
	// Record retrieves the build record for a package name.
	// Returns nil, nil if not found.
	Record(pkg string) (*domain.BuildRecord, error)

	// PutRecord stores a build record.
	PutRecord(rec domain.BuildRecord) error
}

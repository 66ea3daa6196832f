// Package cas implements the content-addressed store: the composed-set memo
// table and persistent build records.
package cas

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

var (
	_ ports.SetMemo          = (*Store)(nil)
	_ ports.BuildRecordStore = (*Store)(nil)
)

// Store is the only shared mutable resource of the engine core. Composed
// package sets live in a write-once in-memory memo table; build records are
// write-through to a flat JSON file so cache hits survive across invocations.
type Store struct {
	path string

	mu      sync.RWMutex
	records map[string]domain.BuildRecord

	setsMu sync.RWMutex
	sets   map[string]*domain.PackageSet
	flight singleflight.Group
}

// NewStore creates a Store backed by the build record file at path.
func NewStore(path string) (*Store, error) {
	s := &Store{
		path:    filepath.Clean(path),
		records: make(map[string]domain.BuildRecord),
		sets:    make(map[string]*domain.PackageSet),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// ComputeSet returns the memoized set for key, running compute at most once.
// Racing callers share a single in-flight computation: the second caller
// awaits the first's result instead of recomputing.
func (s *Store) ComputeSet(key string, compute func() (*domain.PackageSet, error)) (*domain.PackageSet, error) {
	s.setsMu.RLock()
	if set, ok := s.sets[key]; ok {
		s.setsMu.RUnlock()
		return set, nil
	}
	s.setsMu.RUnlock()

	v, err, _ := s.flight.Do(key, func() (any, error) {
		set, err := compute()
		if err != nil {
			return nil, err
		}
		s.setsMu.Lock()
		s.sets[key] = set
		s.setsMu.Unlock()
		return set, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.PackageSet), nil
}

// Record retrieves the build record for a package name.
func (s *Store) Record(pkg string) (*domain.BuildRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[pkg]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// PutRecord stores a build record and persists the table. A write for one
// package never touches other packages' entries.
func (s *Store) PutRecord(rec domain.BuildRecord) error {
	s.mu.Lock()
	s.records[rec.Package] = rec
	s.mu.Unlock()

	return s.save()
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	//nolint:gosec // Path is cleaned and provided by trusted caller
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return zerr.Wrap(domain.ErrStoreReadFailed, err.Error())
	}
	if len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, &s.records); err != nil {
		return zerr.Wrap(domain.ErrStoreReadFailed, err.Error())
	}
	return nil
}

func (s *Store) save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return zerr.Wrap(domain.ErrStoreWriteFailed, err.Error())
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return zerr.Wrap(domain.ErrStoreWriteFailed, err.Error())
	}

	//nolint:gosec // Path is cleaned and provided by trusted caller
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return zerr.Wrap(domain.ErrStoreWriteFailed, err.Error())
	}
	return nil
}

// Package domain contains the core domain models for the overlay composition engine.
package domain

import (
	"iter"
	"maps"
	"slices"
)

// Value is an attribute value carried by a PackageDef. Concrete values are
// strings, bools, numbers, []string or nested string maps; during composition
// an attribute may temporarily hold a Deferred until the fixed point is forced.
type Value any

// Dependency names one package dependency, optionally restricted to a set of
// platform tags. An empty Platforms list means the dependency applies everywhere.
type Dependency struct {
	Name      string
	Platforms []string
}

// AppliesTo reports whether the dependency is active for the given platform tag.
func (d Dependency) AppliesTo(platform string) bool {
	if len(d.Platforms) == 0 {
		return true
	}
	return slices.Contains(d.Platforms, platform)
}

// PackageDef is one package's buildable definition. Definitions are owned by
// the PackageSet that contains them and are superseded, never mutated, by
// overlay layers.
type PackageDef struct {
	Name    InternedString
	Version string
	Source  SourceRef

	BuildDeps []Dependency
	RunDeps   []Dependency

	// Attrs are the extra attributes overlays act on (buildInputs and friends).
	Attrs map[string]Value

	// ExternalResources are opaque references outside the package universe
	// (native libraries, headers). They never resolve to PackageDefs.
	ExternalResources []string
}

// Clone returns a deep copy of the definition.
func (p PackageDef) Clone() PackageDef {
	out := p
	out.BuildDeps = slices.Clone(p.BuildDeps)
	out.RunDeps = slices.Clone(p.RunDeps)
	out.ExternalResources = slices.Clone(p.ExternalResources)
	if p.Attrs != nil {
		out.Attrs = maps.Clone(p.Attrs)
	}
	return out
}

// DependsOn returns the union of build and run dependency names, deduplicated
// and sorted, filtered by platform.
func (p PackageDef) DependsOn(platform string) []string {
	seen := make(map[string]struct{}, len(p.BuildDeps)+len(p.RunDeps))
	var names []string
	for _, dep := range p.BuildDeps {
		if dep.AppliesTo(platform) {
			if _, ok := seen[dep.Name]; !ok {
				seen[dep.Name] = struct{}{}
				names = append(names, dep.Name)
			}
		}
	}
	for _, dep := range p.RunDeps {
		if dep.AppliesTo(platform) {
			if _, ok := seen[dep.Name]; !ok {
				seen[dep.Name] = struct{}{}
				names = append(names, dep.Name)
			}
		}
	}
	slices.Sort(names)
	return names
}

// PackageSet maps package names to their definitions. It is produced by the
// base builder and superseded by each overlay layer; callers never mutate a
// published set in place.
type PackageSet struct {
	pkgs map[InternedString]PackageDef
}

// NewPackageSet creates an empty PackageSet.
func NewPackageSet() *PackageSet {
	return &PackageSet{pkgs: make(map[InternedString]PackageDef)}
}

// Put inserts or replaces a definition.
func (s *PackageSet) Put(def PackageDef) {
	s.pkgs[def.Name] = def
}

// Get returns the definition for a package name.
func (s *PackageSet) Get(name string) (PackageDef, bool) {
	def, ok := s.pkgs[NewInternedString(name)]
	return def, ok
}

// Len returns the number of packages in the set.
func (s *PackageSet) Len() int {
	return len(s.pkgs)
}

// Names returns all package names sorted ascending.
func (s *PackageSet) Names() []string {
	names := make([]string, 0, len(s.pkgs))
	for name := range s.pkgs {
		names = append(names, name.String())
	}
	slices.Sort(names)
	return names
}

// Walk returns an iterator over definitions in ascending name order, so every
// traversal of a set is deterministic.
func (s *PackageSet) Walk() iter.Seq[PackageDef] {
	return func(yield func(PackageDef) bool) {
		for _, name := range s.Names() {
			if !yield(s.pkgs[NewInternedString(name)]) {
				return
			}
		}
	}
}

// Clone returns a deep copy of the set.
func (s *PackageSet) Clone() *PackageSet {
	out := NewPackageSet()
	for _, def := range s.pkgs {
		out.Put(def.Clone())
	}
	return out
}

package domain

import (
	"maps"
	"reflect"
	"slices"
)

// AttrRef names one attribute of one package in the eventual final set.
type AttrRef struct {
	Pkg  string
	Attr string
}

// Deferred is an attribute value computed from the final set once composition
// completes. It is the lazily-evaluated thunk of the fixed-point mechanism:
// an overlay stores a Deferred where it needs another package's
// post-all-overlays value, and the composer forces it in a second phase after
// every overlay has applied.
type Deferred struct {
	// Reads lists the final-set attributes the thunk consumes. The composer
	// uses them to order forcing and to detect reference cycles before any
	// value is evaluated.
	Reads []AttrRef

	// Eval computes the concrete value from the resolved reads.
	Eval func(resolved map[AttrRef]Value) (Value, error)
}

// FinalAttr returns a Deferred that copies one final-set attribute verbatim.
func FinalAttr(pkg, attr string) Deferred {
	ref := AttrRef{Pkg: pkg, Attr: attr}
	return Deferred{
		Reads: []AttrRef{ref},
		Eval: func(resolved map[AttrRef]Value) (Value, error) {
			return resolved[ref], nil
		},
	}
}

// FinalExpr returns a Deferred computing its value from several final-set attributes.
func FinalExpr(eval func(resolved map[AttrRef]Value) (Value, error), reads ...AttrRef) Deferred {
	return Deferred{Reads: reads, Eval: eval}
}

// FinalView is the handle an overlay uses to reference the eventual final set.
// It never yields eager values; every read produces a Deferred.
type FinalView struct{}

// Attr defers a read of pkg's attr in the final set.
func (FinalView) Attr(pkg, attr string) Deferred {
	return FinalAttr(pkg, attr)
}

// Delta describes the changes one overlay makes to one package. Zero-valued
// fields leave the previous definition untouched; an overlay can only add or
// replace what it explicitly names.
type Delta struct {
	// Version replaces the package version when non-empty.
	Version string

	// Source replaces the chosen source form when non-nil.
	Source *SourceRef

	// BuildDeps and RunDeps replace the whole dependency list when non-nil.
	BuildDeps []Dependency
	RunDeps   []Dependency

	// AddBuildDeps and AddRunDeps union into the previous lists. This is the
	// "package needs an extra build dependency" injection pattern.
	AddBuildDeps []Dependency
	AddRunDeps   []Dependency

	// Attrs sets or replaces the named attribute keys. Values may be Deferred.
	Attrs map[string]Value

	// AddExternalResources unions opaque native references into the package.
	AddExternalResources []string
}

// Partial is the package-name → Delta mapping an overlay produces. Naming a
// package absent from the previous set introduces it.
type Partial map[string]Delta

// Overlay is a named, composable transformation over a package set, expressed
// as a function of the eventual final set and the previous partial result.
type Overlay struct {
	Name string

	// ID is the overlay's content identity, derived from the parameters Apply
	// closes over. Two overlays sharing a Name but built from different
	// parameters must carry different IDs: the composition cache keys on
	// (Name, ID) and would otherwise serve one's result for the other.
	ID string

	// Apply computes the overlay's delta. prev is the result of all overlays
	// applied so far; final is a lazy handle on the post-all-overlays set.
	Apply func(final FinalView, prev *PackageSet) (Partial, error)
}

// Diff computes the Delta that turns old into new. Dependency lists that
// merely grew become Add* entries so the delta composes as a union; reordered
// or shrunk lists become whole-list replacements.
func Diff(old, updated PackageDef) Delta {
	var d Delta
	if updated.Version != old.Version {
		d.Version = updated.Version
	}
	if updated.Source != old.Source {
		src := updated.Source
		d.Source = &src
	}
	d.BuildDeps, d.AddBuildDeps = diffDeps(old.BuildDeps, updated.BuildDeps)
	d.RunDeps, d.AddRunDeps = diffDeps(old.RunDeps, updated.RunDeps)

	for key, val := range updated.Attrs {
		if prev, ok := old.Attrs[key]; !ok || !equalValue(prev, val) {
			if d.Attrs == nil {
				d.Attrs = make(map[string]Value)
			}
			d.Attrs[key] = val
		}
	}
	for _, res := range updated.ExternalResources {
		if !slices.Contains(old.ExternalResources, res) {
			d.AddExternalResources = append(d.AddExternalResources, res)
		}
	}
	return d
}

// diffDeps returns either a pure addition (old is a prefix of updated) or a
// whole-list replacement.
func diffDeps(old, updated []Dependency) (replace, add []Dependency) {
	if len(updated) >= len(old) && slices.EqualFunc(old, updated[:len(old)], equalDep) {
		if len(updated) == len(old) {
			return nil, nil
		}
		return nil, slices.Clone(updated[len(old):])
	}
	return slices.Clone(updated), nil
}

func equalDep(a, b Dependency) bool {
	return a.Name == b.Name && slices.Equal(a.Platforms, b.Platforms)
}

func equalValue(a, b Value) bool {
	switch av := a.(type) {
	case []string:
		bv, ok := b.([]string)
		return ok && slices.Equal(av, bv)
	case map[string]string:
		bv, ok := b.(map[string]string)
		return ok && maps.Equal(av, bv)
	case []any, map[string]any:
		// Mixed-type values pass through the loader unnormalized and are not
		// comparable with ==.
		return reflect.DeepEqual(a, b)
	case Deferred:
		// Thunks have no usable identity; treat every occurrence as a change.
		return false
	default:
		return a == b
	}
}

// Package overlay implements overlay composition: the override registry, the
// built-in overlays, and the fixed-point composer.
package overlay

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/zerr"
)

// ConflictPolicy decides what happens when two overlays set the same attribute
// on the same package.
type ConflictPolicy int

const (
	// LastWins lets the later overlay in the composition order win.
	LastWins ConflictPolicy = iota
	// FirstWins keeps the earlier overlay's value.
	FirstWins
	// ErrorOnConflict fails composition instead of picking a winner.
	ErrorOnConflict
)

// Composer applies an ordered overlay sequence to a base package set and
// resolves the fixed point. Composition is a pure, single-threaded evaluation
// over immutable inputs; the only shared resource is the memo table, which
// guarantees racing callers share one computation per key.
type Composer struct {
	memo   ports.SetMemo
	tracer ports.Tracer
	policy ConflictPolicy
}

// Option configures a Composer.
type Option func(*Composer)

// WithConflictPolicy overrides the default last-applied-wins policy.
func WithConflictPolicy(p ConflictPolicy) Option {
	return func(c *Composer) { c.policy = p }
}

// NewComposer creates a Composer.
func NewComposer(memo ports.SetMemo, tracer ports.Tracer, opts ...Option) *Composer {
	c := &Composer{memo: memo, tracer: tracer, policy: LastWins}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compose computes the fixed point of the overlay sequence over base. Results
// are cached by (base set hash, ordered overlay identities); repeated calls
// with identical inputs return the identical set.
func (c *Composer) Compose(ctx context.Context, base *domain.PackageSet, overlays []domain.Overlay) (*domain.PackageSet, error) {
	ctx, span := c.tracer.Start(ctx, "compose")
	defer span.End()
	span.SetAttribute("overlays", overlayNames(overlays))
	span.SetAttribute("base_packages", base.Len())
	_ = ctx

	key := domain.CompositionKey(domain.SetHash(base), overlays)
	set, err := c.memo.ComputeSet(key, func() (*domain.PackageSet, error) {
		return c.compose(base, overlays)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return set, nil
}

// compose is the two-phase evaluation: apply overlays in caller order with a
// right-biased merge, then force all deferred final-set references.
func (c *Composer) compose(base *domain.PackageSet, overlays []domain.Overlay) (*domain.PackageSet, error) {
	working := base.Clone()
	// origins tracks which overlay set each attribute, for conflict policies.
	origins := make(map[domain.AttrRef]string)

	for _, ov := range overlays {
		partial, err := ov.Apply(domain.FinalView{}, working.Clone())
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "overlay application failed"), "overlay", ov.Name)
		}

		for _, name := range sortedKeys(partial) {
			merged, err := c.merge(working, name, partial[name], ov.Name, origins)
			if err != nil {
				return nil, err
			}
			working.Put(merged)
		}
	}

	if err := force(working); err != nil {
		return nil, err
	}
	return working, nil
}

// merge folds one delta into the working definition of name. An absent
// package is introduced; named attributes are added or replaced; everything
// the delta does not name is left untouched.
func (c *Composer) merge(
	working *domain.PackageSet,
	name string,
	delta domain.Delta,
	overlayName string,
	origins map[domain.AttrRef]string,
) (domain.PackageDef, error) {
	def, ok := working.Get(name)
	if !ok {
		def = domain.PackageDef{Name: domain.NewInternedString(name)}
	}
	def = def.Clone()

	if delta.Version != "" {
		def.Version = delta.Version
	}
	if delta.Source != nil {
		def.Source = *delta.Source
	}
	if delta.BuildDeps != nil {
		def.BuildDeps = slices.Clone(delta.BuildDeps)
	}
	if delta.RunDeps != nil {
		def.RunDeps = slices.Clone(delta.RunDeps)
	}
	def.BuildDeps = unionDeps(def.BuildDeps, delta.AddBuildDeps)
	def.RunDeps = unionDeps(def.RunDeps, delta.AddRunDeps)
	for _, res := range delta.AddExternalResources {
		if !slices.Contains(def.ExternalResources, res) {
			def.ExternalResources = append(def.ExternalResources, res)
		}
	}

	for _, key := range sortedKeys(delta.Attrs) {
		ref := domain.AttrRef{Pkg: name, Attr: key}
		if earlier, contested := origins[ref]; contested && earlier != overlayName {
			switch c.policy {
			case FirstWins:
				continue
			case ErrorOnConflict:
				err := zerr.With(domain.ErrOverlayConflict, "package", name)
				err = zerr.With(err, "attribute", key)
				err = zerr.With(err, "first_overlay", earlier)
				return domain.PackageDef{}, zerr.With(err, "second_overlay", overlayName)
			case LastWins:
			}
		}
		if def.Attrs == nil {
			def.Attrs = make(map[string]domain.Value)
		}
		def.Attrs[key] = delta.Attrs[key]
		origins[ref] = overlayName
	}
	return def, nil
}

// unionDeps appends added dependencies not already present by name.
func unionDeps(deps, add []domain.Dependency) []domain.Dependency {
	for _, dep := range add {
		exists := slices.ContainsFunc(deps, func(d domain.Dependency) bool {
			return d.Name == dep.Name
		})
		if !exists {
			deps = append(deps, dep)
		}
	}
	return deps
}

// force resolves all deferred final-set references. It first builds the
// deferred-read graph and orders it, rejecting cycles before any value is
// evaluated, then evaluates in dependency order so every read observes its
// target's post-all-overlays value.
func force(working *domain.PackageSet) error {
	deferred := collectDeferred(working)
	if len(deferred) == 0 {
		return nil
	}

	order, err := forcingOrder(working, deferred)
	if err != nil {
		return err
	}

	for _, ref := range order {
		thunk := deferred[ref]
		resolved := make(map[domain.AttrRef]domain.Value, len(thunk.Reads))
		for _, read := range thunk.Reads {
			def, _ := working.Get(read.Pkg)
			resolved[read] = def.Attrs[read.Attr]
		}
		val, err := thunk.Eval(resolved)
		if err != nil {
			err = zerr.Wrap(err, "deferred attribute evaluation failed")
			return zerr.With(zerr.With(err, "package", ref.Pkg), "attribute", ref.Attr)
		}
		def, _ := working.Get(ref.Pkg)
		def.Attrs[ref.Attr] = val
		working.Put(def)
	}
	return nil
}

func collectDeferred(working *domain.PackageSet) map[domain.AttrRef]domain.Deferred {
	deferred := make(map[domain.AttrRef]domain.Deferred)
	for def := range working.Walk() {
		for key, val := range def.Attrs {
			if thunk, ok := val.(domain.Deferred); ok {
				deferred[domain.AttrRef{Pkg: def.Name.String(), Attr: key}] = thunk
			}
		}
	}
	return deferred
}

// forcingOrder topologically sorts the deferred nodes. Reads of concrete
// attributes are leaves; reads of other deferred nodes are edges; reads of
// attributes that exist nowhere in the final set are errors.
func forcingOrder(working *domain.PackageSet, deferred map[domain.AttrRef]domain.Deferred) ([]domain.AttrRef, error) {
	const (
		unvisited = 0
		visiting  = 1
		visited   = 2
	)
	state := make(map[domain.AttrRef]int, len(deferred))
	order := make([]domain.AttrRef, 0, len(deferred))
	var path []domain.AttrRef

	var visit func(ref domain.AttrRef) error
	visit = func(ref domain.AttrRef) error {
		state[ref] = visiting
		path = append(path, ref)

		for _, read := range deferred[ref].Reads {
			if _, isDeferred := deferred[read]; isDeferred {
				switch state[read] {
				case visiting:
					return cycleError(path, read)
				case unvisited:
					if err := visit(read); err != nil {
						return err
					}
				}
				continue
			}
			def, ok := working.Get(read.Pkg)
			if !ok {
				err := zerr.With(domain.ErrUnknownAttrReference, "package", read.Pkg)
				return zerr.With(err, "attribute", read.Attr)
			}
			if _, ok := def.Attrs[read.Attr]; !ok {
				err := zerr.With(domain.ErrUnknownAttrReference, "package", read.Pkg)
				return zerr.With(err, "attribute", read.Attr)
			}
		}

		state[ref] = visited
		path = path[:len(path)-1]
		order = append(order, ref)
		return nil
	}

	for _, ref := range sortedRefs(deferred) {
		if state[ref] == unvisited {
			if err := visit(ref); err != nil {
				return nil, err
			}
		}
	}
	return order, nil
}

// cycleError reports the offending reference cycle, e.g. "a.x -> b.y -> a.x".
func cycleError(path []domain.AttrRef, repeat domain.AttrRef) error {
	start := slices.Index(path, repeat)
	var b strings.Builder
	for _, ref := range path[start:] {
		fmt.Fprintf(&b, "%s.%s -> ", ref.Pkg, ref.Attr)
	}
	fmt.Fprintf(&b, "%s.%s", repeat.Pkg, repeat.Attr)
	return zerr.With(domain.ErrOverlayCycle, "cycle", b.String())
}

func sortedRefs(m map[domain.AttrRef]domain.Deferred) []domain.AttrRef {
	refs := make([]domain.AttrRef, 0, len(m))
	for ref := range m {
		refs = append(refs, ref)
	}
	slices.SortFunc(refs, func(a, b domain.AttrRef) int {
		if a.Pkg != b.Pkg {
			return strings.Compare(a.Pkg, b.Pkg)
		}
		return strings.Compare(a.Attr, b.Attr)
	})
	return refs
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func overlayNames(overlays []domain.Overlay) []string {
	names := make([]string, len(overlays))
	for i, ov := range overlays {
		names[i] = ov.Name
	}
	return names
}

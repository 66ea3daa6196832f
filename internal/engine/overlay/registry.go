package overlay

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/zerr"
)

// RuleFunc is a pure transformation of one package's build definition. Rules
// must be idempotent: applying a rule twice to the same input yields the same
// result as applying it once, because composition may re-evaluate rules during
// fixed-point resolution. The combinators below all have union semantics and
// therefore satisfy this by construction.
type RuleFunc func(domain.PackageDef) (domain.PackageDef, error)

type rule struct {
	name     string
	targets  []string
	targeted bool
	// params renders the rule's parameters for the compiled overlay's content
	// ID. Empty for rules registered with an opaque closure.
	params string
	fn     RuleFunc
}

// Registry is a mutable-at-construction, immutable-at-use collection of
// override rules, compiled into a single overlay. Registration order does not
// matter for disjoint target sets; for overlapping targets the later
// registration wins, because rules apply sequentially in registration order.
//
// Rules registered through Bulk or Target contribute only their name and
// target set to the compiled overlay's content ID, because a RuleFunc is
// opaque. Two closures registered under the same name and targets are assumed
// to be the same transformation; give differing transformations differing
// names.
type Registry struct {
	rules    []rule
	compiled bool
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Bulk registers one transformation applied identically to a named set of
// packages. Targets absent from the set being composed are skipped: a bulk
// rule fixes the packages that exist, it does not assert their existence.
func (r *Registry) Bulk(name string, targets []string, fn RuleFunc) *Registry {
	if r.compiled {
		panic("overlay: registry modified after compile")
	}
	r.rules = append(r.rules, rule{name: name, targets: slices.Clone(targets), fn: fn})
	return r
}

// Target registers a transformation specific to one package. Unlike a bulk
// rule, a targeted rule fails composition when its package is absent.
func (r *Registry) Target(name, pkg string, fn RuleFunc) *Registry {
	if r.compiled {
		panic("overlay: registry modified after compile")
	}
	r.rules = append(r.rules, rule{name: name, targets: []string{pkg}, targeted: true, fn: fn})
	return r
}

// Compile freezes the registry and returns it as a single overlay. Target-set
// membership is resolved once per composition pass, at apply time.
func (r *Registry) Compile(overlayName string) domain.Overlay {
	r.compiled = true
	rules := slices.Clone(r.rules)

	id := newIdentity()
	for _, rl := range rules {
		id.add(rl.name, strconv.FormatBool(rl.targeted), rl.params)
		id.add(rl.targets...)
	}

	return domain.Overlay{
		Name: overlayName,
		ID:   id.String(),
		Apply: func(_ domain.FinalView, prev *domain.PackageSet) (domain.Partial, error) {
			updated := make(map[string]domain.PackageDef)
			original := make(map[string]domain.PackageDef)

			for _, rl := range rules {
				for _, target := range slices.Sorted(slices.Values(rl.targets)) {
					def, ok := updated[target]
					if !ok {
						def, ok = prev.Get(target)
						if !ok {
							if rl.targeted {
								err := zerr.With(domain.ErrRuleTargetMissing, "rule", rl.name)
								return nil, zerr.With(err, "package", target)
							}
							continue
						}
						original[target] = def
					}
					next, err := rl.fn(def.Clone())
					if err != nil {
						err = zerr.Wrap(err, "override rule failed")
						return nil, zerr.With(zerr.With(err, "rule", rl.name), "package", target)
					}
					updated[target] = next
				}
			}

			partial := make(domain.Partial, len(updated))
			for name, def := range updated {
				partial[name] = domain.Diff(original[name], def)
			}
			return partial, nil
		},
	}
}

// FromDeclared builds a registry from manifest-declared override rules, in
// declaration order. Declared rules are data, so their full parameters feed
// the compiled overlay's content ID.
func FromDeclared(overrides []domain.DeclaredOverride) *Registry {
	r := NewRegistry()
	for _, o := range overrides {
		fns := make([]RuleFunc, 0, 4)
		if len(o.AddBuildDeps) > 0 {
			fns = append(fns, AddBuildDeps(o.AddBuildDeps...))
		}
		if len(o.AddRunDeps) > 0 {
			fns = append(fns, AddRunDeps(o.AddRunDeps...))
		}
		if len(o.SetAttrs) > 0 {
			fns = append(fns, SetAttrs(o.SetAttrs))
		}
		if len(o.ExternalResources) > 0 {
			fns = append(fns, AddExternalResources(o.ExternalResources...))
		}
		r.rules = append(r.rules, rule{
			name:    o.Name,
			targets: slices.Clone(o.Targets),
			params:  renderDeclared(o),
			fn:      Chain(fns...),
		})
	}
	return r
}

// renderDeclared serializes a declared override deterministically, attribute
// keys sorted.
func renderDeclared(o domain.DeclaredOverride) string {
	var b strings.Builder
	fmt.Fprintf(&b, "build:%v|run:%v|res:%v|", o.AddBuildDeps, o.AddRunDeps, o.ExternalResources)
	for _, k := range sortedKeys(o.SetAttrs) {
		fmt.Fprintf(&b, "%s=%v|", k, o.SetAttrs[k])
	}
	return b.String()
}

// AddBuildDeps returns a rule injecting build dependencies a package did not
// declare. Already-present dependencies are left alone, keeping the rule
// idempotent.
func AddBuildDeps(names ...string) RuleFunc {
	return func(def domain.PackageDef) (domain.PackageDef, error) {
		for _, name := range names {
			if !hasDep(def.BuildDeps, name) {
				def.BuildDeps = append(def.BuildDeps, domain.Dependency{Name: name})
			}
		}
		return def, nil
	}
}

// AddRunDeps returns a rule injecting run-time dependencies.
func AddRunDeps(names ...string) RuleFunc {
	return func(def domain.PackageDef) (domain.PackageDef, error) {
		for _, name := range names {
			if !hasDep(def.RunDeps, name) {
				def.RunDeps = append(def.RunDeps, domain.Dependency{Name: name})
			}
		}
		return def, nil
	}
}

// SetAttrs returns a rule setting or replacing the named attributes.
func SetAttrs(attrs map[string]domain.Value) RuleFunc {
	frozen := maps.Clone(attrs)
	return func(def domain.PackageDef) (domain.PackageDef, error) {
		if def.Attrs == nil {
			def.Attrs = make(map[string]domain.Value, len(frozen))
		}
		for k, v := range frozen {
			def.Attrs[k] = v
		}
		return def, nil
	}
}

// AddExternalResources returns a rule tagging opaque native-library
// references onto a package. These live outside the package universe and are
// never resolved as PackageDefs.
func AddExternalResources(refs ...string) RuleFunc {
	return func(def domain.PackageDef) (domain.PackageDef, error) {
		for _, ref := range refs {
			if !slices.Contains(def.ExternalResources, ref) {
				def.ExternalResources = append(def.ExternalResources, ref)
			}
		}
		return def, nil
	}
}

// Chain composes rules left to right.
func Chain(fns ...RuleFunc) RuleFunc {
	return func(def domain.PackageDef) (domain.PackageDef, error) {
		var err error
		for _, fn := range fns {
			def, err = fn(def)
			if err != nil {
				return domain.PackageDef{}, err
			}
		}
		return def, nil
	}
}

func hasDep(deps []domain.Dependency, name string) bool {
	return slices.ContainsFunc(deps, func(d domain.Dependency) bool {
		return d.Name == name
	})
}

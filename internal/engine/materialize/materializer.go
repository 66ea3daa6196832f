// Package materialize turns a final package set into an ordered environment.
package materialize

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/zerr"
)

// Materializer selects and orders packages from a final, fully-forced package
// set. Environments are built fresh per request and never mutated.
type Materializer struct {
	set    *domain.PackageSet
	groups map[string][]string
}

// New creates a Materializer over a final set and the workspace's dependency
// groups.
func New(set *domain.PackageSet, groups map[string][]string) *Materializer {
	return &Materializer{set: set, groups: groups}
}

// Materialize computes the environment for a dependency group on a platform:
// the group's transitive closure with platform-filtered optional dependencies
// removed, in stable topological build order. Output is byte-for-byte
// reproducible: ties are broken by package name ascending.
func (m *Materializer) Materialize(group, platform string) (*domain.Environment, error) {
	roots, err := m.groupRoots(group)
	if err != nil {
		return nil, err
	}

	selected, err := m.closure(roots, platform)
	if err != nil {
		return nil, err
	}

	ordered, err := m.sort(selected, platform)
	if err != nil {
		return nil, err
	}

	env := &domain.Environment{Group: group, Platform: platform}
	for i, name := range ordered {
		def, _ := m.set.Get(name)
		env.Packages = append(env.Packages, domain.EnvPackage{
			Name:              name,
			Version:           def.Version,
			Source:            def.Source,
			Attrs:             maps.Clone(def.Attrs),
			ExternalResources: slices.Clone(def.ExternalResources),
			DependsOn:         def.DependsOn(platform),
			Order:             i,
		})
	}
	return env, nil
}

func (m *Materializer) groupRoots(group string) ([]string, error) {
	if group == domain.GroupAll {
		return m.set.Names(), nil
	}
	roots, ok := m.groups[group]
	if !ok {
		return nil, zerr.With(domain.ErrMissingGroup, "group", group)
	}
	return roots, nil
}

// closure walks the platform-filtered dependency edges from the roots.
func (m *Materializer) closure(roots []string, platform string) (map[string]struct{}, error) {
	selected := make(map[string]struct{})
	queue := slices.Clone(roots)

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if _, seen := selected[name]; seen {
			continue
		}

		def, ok := m.set.Get(name)
		if !ok {
			return nil, zerr.With(domain.ErrUnresolvedPackage, "package", name)
		}
		selected[name] = struct{}{}
		queue = append(queue, def.DependsOn(platform)...)
	}
	return selected, nil
}

// sort is a stable Kahn's algorithm: a package appears after all of its
// dependencies, and among simultaneously-ready packages the lexicographically
// smallest name goes first.
func (m *Materializer) sort(selected map[string]struct{}, platform string) ([]string, error) {
	inDegree := make(map[string]int, len(selected))
	dependents := make(map[string][]string, len(selected))

	for name := range selected {
		def, _ := m.set.Get(name)
		deps := def.DependsOn(platform)
		inDegree[name] = len(deps)
		for _, dep := range deps {
			dependents[dep] = append(dependents[dep], name)
		}
	}

	var ready []string
	for name, degree := range inDegree {
		if degree == 0 {
			ready = append(ready, name)
		}
	}
	slices.Sort(ready)

	ordered := make([]string, 0, len(selected))
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		ordered = append(ordered, name)

		unblocked := dependents[name]
		slices.Sort(unblocked)
		for _, dependent := range unblocked {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				ready = insertSorted(ready, dependent)
			}
		}
	}

	if len(ordered) != len(selected) {
		return nil, m.cycleError(selected, ordered, platform)
	}
	return ordered, nil
}

func insertSorted(s []string, v string) []string {
	i, _ := slices.BinarySearch(s, v)
	return slices.Insert(s, i, v)
}

// cycleError extracts one concrete cycle from the leftover packages so the
// failure pinpoints its cause.
func (m *Materializer) cycleError(selected map[string]struct{}, ordered []string, platform string) error {
	done := make(map[string]bool, len(ordered))
	for _, name := range ordered {
		done[name] = true
	}

	var leftover []string
	for name := range selected {
		if !done[name] {
			leftover = append(leftover, name)
		}
	}
	slices.Sort(leftover)

	// Every leftover package sits on or leads into a cycle; follow unfinished
	// edges from the first one until a name repeats.
	var path []string
	seen := make(map[string]int)
	current := leftover[0]
	for {
		if idx, ok := seen[current]; ok {
			var b strings.Builder
			for _, name := range path[idx:] {
				fmt.Fprintf(&b, "%s -> ", name)
			}
			b.WriteString(current)
			return zerr.With(domain.ErrCyclicDependency, "cycle", b.String())
		}
		seen[current] = len(path)
		path = append(path, current)

		def, _ := m.set.Get(current)
		for _, dep := range def.DependsOn(platform) {
			if _, isSelected := selected[dep]; isSelected && !done[dep] {
				current = dep
				break
			}
		}
	}
}

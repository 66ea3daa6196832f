// Package baseset builds the base package set from a loaded workspace.
package baseset

import (
	"slices"

	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/zerr"
)

// Build constructs the base PackageSet: one PackageDef per lock entry, with
// the source form chosen once by the preference policy. Member declarations
// contribute dependencies and attributes; lock entries without a declaration
// (pinned transitive dependencies) become leaf definitions.
//
// The source preference is decided here, deterministically, and not re-decided
// by later overlays. An overlay may still override a specific package's
// chosen form.
func Build(ws *domain.Workspace, pref domain.SourcePreference) (*domain.PackageSet, error) {
	set := domain.NewPackageSet()

	for _, name := range lockNames(ws) {
		entry := ws.Lock[name]
		src, err := pickSource(name, entry, pref)
		if err != nil {
			return nil, err
		}

		def := domain.PackageDef{
			Name:    domain.NewInternedString(name),
			Version: entry.Version,
			Source:  src,
		}
		if decl, ok := ws.Decls[name]; ok {
			def.BuildDeps = decl.BuildDeps
			def.RunDeps = decl.RunDeps
			if len(decl.Attrs) > 0 {
				def.Attrs = make(map[string]domain.Value, len(decl.Attrs))
				for k, v := range decl.Attrs {
					def.Attrs[k] = v
				}
			}
		}
		set.Put(def)
	}

	if err := checkResolvable(ws, set); err != nil {
		return nil, err
	}
	return set, nil
}

// pickSource selects the entry's source form: the preferred form if present,
// otherwise the first reference listed. Editable references are never chosen
// implicitly; switching a package to its editable form is the editable
// overlay's job.
func pickSource(name string, entry domain.LockEntry, pref domain.SourcePreference) (domain.SourceRef, error) {
	want := domain.FormPrebuilt
	if pref == domain.PreferSource {
		want = domain.FormSource
	}

	for _, src := range entry.Sources {
		if src.Form == want {
			return src, nil
		}
	}
	for _, src := range entry.Sources {
		if src.Form != domain.FormEditable {
			return src, nil
		}
	}
	return domain.SourceRef{}, zerr.With(zerr.With(domain.ErrNoSourceForPreference,
		"package", name), "preference", string(pref))
}

// checkResolvable walks every declared dependency and fails if any has no
// lock entry anywhere in the transitive closure.
func checkResolvable(ws *domain.Workspace, set *domain.PackageSet) error {
	for def := range set.Walk() {
		for _, dep := range append(append([]domain.Dependency{}, def.BuildDeps...), def.RunDeps...) {
			if _, ok := set.Get(dep.Name); !ok {
				err := zerr.With(domain.ErrUnresolvedPackage, "package", def.Name.String())
				return zerr.With(err, "dependency", dep.Name)
			}
		}
	}
	return nil
}

func lockNames(ws *domain.Workspace) []string {
	names := make([]string, 0, len(ws.Lock))
	for name := range ws.Lock {
		names = append(names, name)
	}
	// Sorted for deterministic set construction.
	slices.Sort(names)
	return names
}

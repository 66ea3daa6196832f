package overlay

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/zerr"
)

// Editable returns an overlay switching the named packages to local editable
// paths. A package absent from the set so far is introduced as a synthetic
// local member, which is how an in-development package that was never locked
// joins an environment.
func Editable(name string, paths map[string]string) domain.Overlay {
	id := newIdentity()
	for _, pkg := range sortedKeys(paths) {
		id.add(pkg, paths[pkg])
	}
	return domain.Overlay{
		Name: name,
		ID:   id.String(),
		Apply: func(_ domain.FinalView, prev *domain.PackageSet) (domain.Partial, error) {
			partial := make(domain.Partial, len(paths))
			for _, pkg := range sortedKeys(paths) {
				src := domain.SourceRef{Form: domain.FormEditable, Ref: paths[pkg]}
				delta := domain.Delta{Source: &src}
				if _, ok := prev.Get(pkg); !ok {
					delta.Version = "0.0.0+editable"
				}
				partial[pkg] = delta
			}
			return partial, nil
		},
	}
}

// PreferForms returns an overlay flipping specific packages to another source
// form from their lock entry, overriding the workspace-wide preference the
// base builder applied.
func PreferForms(name string, forms map[string]domain.SourceForm, lock map[string]domain.LockEntry) domain.Overlay {
	id := newIdentity()
	for _, pkg := range sortedKeys(forms) {
		id.add(pkg, string(forms[pkg]))
		for _, src := range lock[pkg].Sources {
			id.add(string(src.Form), src.Ref)
		}
	}
	return domain.Overlay{
		Name: name,
		ID:   id.String(),
		Apply: func(_ domain.FinalView, prev *domain.PackageSet) (domain.Partial, error) {
			partial := make(domain.Partial, len(forms))
			for _, pkg := range sortedKeys(forms) {
				entry, ok := lock[pkg]
				if !ok {
					return nil, zerr.With(domain.ErrUnresolvedPackage, "package", pkg)
				}
				var src *domain.SourceRef
				for _, candidate := range entry.Sources {
					if candidate.Form == forms[pkg] {
						ref := candidate
						src = &ref
						break
					}
				}
				if src == nil {
					err := zerr.With(domain.ErrNoSourceForPreference, "package", pkg)
					return nil, zerr.With(err, "form", string(forms[pkg]))
				}
				partial[pkg] = domain.Delta{Source: src}
			}
			return partial, nil
		},
	}
}

// identity accumulates an overlay's parameters into its content ID. Callers
// must feed fields in a deterministic order.
type identity struct {
	h *xxhash.Digest
}

func newIdentity() *identity {
	return &identity{h: xxhash.New()}
}

func (id *identity) add(parts ...string) {
	for _, p := range parts {
		_, _ = id.h.WriteString(p)
		_, _ = id.h.Write([]byte{0})
	}
}

func (id *identity) String() string {
	return fmt.Sprintf("%016x", id.h.Sum64())
}

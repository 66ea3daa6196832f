package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/strata/internal/core/domain"
)

func buildSet(attrsOrder bool) *domain.PackageSet {
	set := domain.NewPackageSet()
	attrs := map[string]domain.Value{}
	if attrsOrder {
		attrs["cflags"] = "-O2"
		attrs["features"] = []string{"ssl", "zlib"}
	} else {
		attrs["features"] = []string{"ssl", "zlib"}
		attrs["cflags"] = "-O2"
	}
	set.Put(domain.PackageDef{
		Name:    domain.NewInternedString("libfoo"),
		Version: "1.2.3",
		Source:  domain.SourceRef{Form: domain.FormSource, Ref: "vendor/libfoo"},
		Attrs:   attrs,
	})
	set.Put(domain.PackageDef{
		Name:      domain.NewInternedString("app"),
		Version:   "0.1.0",
		Source:    domain.SourceRef{Form: domain.FormPrebuilt, Ref: "https://example.com/app.tar"},
		BuildDeps: []domain.Dependency{{Name: "libfoo"}},
	})
	return set
}

func TestSetHash_Deterministic(t *testing.T) {
	a := domain.SetHash(buildSet(true))
	b := domain.SetHash(buildSet(false))
	require.Equal(t, a, b, "map insertion order must not affect the hash")
	require.Len(t, a, 16)
}

func TestSetHash_SensitiveToContent(t *testing.T) {
	base := buildSet(true)
	changed := buildSet(true)
	def, ok := changed.Get("libfoo")
	require.True(t, ok)
	def.Version = "1.2.4"
	changed.Put(def)

	assert.NotEqual(t, domain.SetHash(base), domain.SetHash(changed))
}

func TestCompositionKey_OrderMatters(t *testing.T) {
	o1 := domain.Overlay{Name: "o1"}
	o2 := domain.Overlay{Name: "o2"}
	base := domain.SetHash(buildSet(true))

	k12 := domain.CompositionKey(base, []domain.Overlay{o1, o2})
	k21 := domain.CompositionKey(base, []domain.Overlay{o2, o1})
	assert.NotEqual(t, k12, k21)
	assert.Equal(t, k12, domain.CompositionKey(base, []domain.Overlay{o1, o2}))
}

func TestCompositionKey_ContentIDMatters(t *testing.T) {
	base := domain.SetHash(buildSet(true))

	one := domain.Overlay{Name: "editable", ID: "aaaa"}
	two := domain.Overlay{Name: "editable", ID: "bbbb"}
	assert.NotEqual(t,
		domain.CompositionKey(base, []domain.Overlay{one}),
		domain.CompositionKey(base, []domain.Overlay{two}),
		"same-named overlays with different parameters must key different compositions")
}

func TestBuildInputHash_DependencyEdgeIncluded(t *testing.T) {
	pkg := domain.EnvPackage{
		Name:      "app",
		Version:   "0.1.0",
		Source:    domain.SourceRef{Form: domain.FormSource, Ref: "app"},
		DependsOn: []string{"libfoo"},
	}
	withoutDep := pkg
	withoutDep.DependsOn = nil

	assert.NotEqual(t, domain.BuildInputHash(pkg), domain.BuildInputHash(withoutDep))
	assert.Equal(t, domain.BuildInputHash(pkg), domain.BuildInputHash(pkg))
}

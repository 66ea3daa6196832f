package materialize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/engine/materialize"
)

func pkg(name string, buildDeps []domain.Dependency, runDeps []domain.Dependency) domain.PackageDef {
	return domain.PackageDef{
		Name:      domain.NewInternedString(name),
		Version:   "1.0.0",
		Source:    domain.SourceRef{Form: domain.FormSource, Ref: "pkgs/" + name},
		BuildDeps: buildDeps,
		RunDeps:   runDeps,
	}
}

func deps(names ...string) []domain.Dependency {
	out := make([]domain.Dependency, len(names))
	for i, n := range names {
		out[i] = domain.Dependency{Name: n}
	}
	return out
}

func testSet() *domain.PackageSet {
	set := domain.NewPackageSet()
	set.Put(pkg("app", deps("libfoo", "libbar"), nil))
	set.Put(pkg("libfoo", deps("zlib"), nil))
	set.Put(pkg("libbar", deps("zlib"), nil))
	set.Put(pkg("zlib", nil, nil))
	set.Put(pkg("standalone", nil, nil))
	return set
}

func orderIndex(env *domain.Environment) map[string]int {
	idx := make(map[string]int, len(env.Packages))
	for _, p := range env.Packages {
		idx[p.Name] = p.Order
	}
	return idx
}

func TestMaterialize_TopologicalOrder(t *testing.T) {
	m := materialize.New(testSet(), map[string][]string{"main": {"app"}})
	env, err := m.Materialize("main", "linux-amd64")
	require.NoError(t, err)

	require.Len(t, env.Packages, 4, "standalone is outside the closure")
	idx := orderIndex(env)
	assert.Less(t, idx["zlib"], idx["libfoo"])
	assert.Less(t, idx["zlib"], idx["libbar"])
	assert.Less(t, idx["libfoo"], idx["app"])
	assert.Less(t, idx["libbar"], idx["app"])

	for i, p := range env.Packages {
		assert.Equal(t, i, p.Order)
	}
}

func TestMaterialize_DeterministicTieBreak(t *testing.T) {
	m := materialize.New(testSet(), map[string][]string{"main": {"app"}})

	first, err := m.Materialize("main", "linux-amd64")
	require.NoError(t, err)
	second, err := m.Materialize("main", "linux-amd64")
	require.NoError(t, err)

	for i := range first.Packages {
		assert.Equal(t, first.Packages[i].Name, second.Packages[i].Name)
	}

	// libbar and libfoo are simultaneously ready; name order decides.
	idx := orderIndex(first)
	assert.Less(t, idx["libbar"], idx["libfoo"])
}

func TestMaterialize_ImplicitAllGroup(t *testing.T) {
	m := materialize.New(testSet(), nil)
	env, err := m.Materialize(domain.GroupAll, "linux-amd64")
	require.NoError(t, err)
	assert.Len(t, env.Packages, 5)
}

func TestMaterialize_MissingGroup(t *testing.T) {
	m := materialize.New(testSet(), map[string][]string{"main": {"app"}})
	_, err := m.Materialize("nope", "linux-amd64")
	require.ErrorIs(t, err, domain.ErrMissingGroup)
}

func TestMaterialize_PlatformFiltering(t *testing.T) {
	set := domain.NewPackageSet()
	set.Put(pkg("trainer", nil, []domain.Dependency{
		{Name: "runtime"},
		{Name: "cuda", Platforms: []string{"linux-gpu"}},
	}))
	set.Put(pkg("runtime", nil, nil))
	set.Put(pkg("cuda", nil, nil))

	m := materialize.New(set, map[string][]string{"train": {"trainer"}})

	cpu, err := m.Materialize("train", "linux-cpu")
	require.NoError(t, err)
	assert.Len(t, cpu.Packages, 2)

	gpu, err := m.Materialize("train", "linux-gpu")
	require.NoError(t, err)
	assert.Len(t, gpu.Packages, 3)

	for _, p := range cpu.Packages {
		assert.NotEqual(t, "cuda", p.Name)
	}
}

func TestMaterialize_UnresolvedDependency(t *testing.T) {
	set := domain.NewPackageSet()
	set.Put(pkg("app", deps("ghost"), nil))

	m := materialize.New(set, nil)
	_, err := m.Materialize(domain.GroupAll, "linux-amd64")
	require.ErrorIs(t, err, domain.ErrUnresolvedPackage)
}

func TestMaterialize_CycleDetection(t *testing.T) {
	set := domain.NewPackageSet()
	set.Put(pkg("a", deps("b"), nil))
	set.Put(pkg("b", deps("a"), nil))

	m := materialize.New(set, nil)
	_, err := m.Materialize(domain.GroupAll, "linux-amd64")
	require.ErrorIs(t, err, domain.ErrCyclicDependency)
	assert.Contains(t, err.Error(), "a -> b -> a")
}

func TestMaterialize_EnvPackageShape(t *testing.T) {
	set := domain.NewPackageSet()
	def := pkg("app", deps("zlib"), nil)
	def.Attrs = map[string]domain.Value{"cflags": "-O2"}
	def.ExternalResources = []string{"libnative.so"}
	set.Put(def)
	set.Put(pkg("zlib", nil, nil))

	m := materialize.New(set, nil)
	env, err := m.Materialize(domain.GroupAll, "linux-amd64")
	require.NoError(t, err)

	var app domain.EnvPackage
	for _, p := range env.Packages {
		if p.Name == "app" {
			app = p
		}
	}
	assert.Equal(t, []string{"zlib"}, app.DependsOn)
	assert.Equal(t, "-O2", app.Attrs["cflags"])
	assert.Equal(t, []string{"libnative.so"}, app.ExternalResources)
}

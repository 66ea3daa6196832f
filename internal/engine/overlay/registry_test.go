package overlay_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/engine/overlay"
)

func TestRegistry_BulkSkipsAbsentTargets(t *testing.T) {
	reg := overlay.NewRegistry()
	reg.Bulk("harden", []string{"app", "ghost"}, overlay.SetAttrs(map[string]domain.Value{
		"hardening": "full",
	}))

	final, err := newComposer().Compose(context.Background(), baseSet(), []domain.Overlay{
		reg.Compile("hardening"),
	})
	require.NoError(t, err)

	app, _ := final.Get("app")
	assert.Equal(t, "full", app.Attrs["hardening"])
	_, ok := final.Get("ghost")
	assert.False(t, ok, "bulk rules must not introduce packages")
}

func TestRegistry_TargetedRuleFailsOnMissing(t *testing.T) {
	reg := overlay.NewRegistry()
	reg.Target("pin-ghost", "ghost", overlay.SetAttrs(map[string]domain.Value{"v": "1"}))

	_, err := newComposer().Compose(context.Background(), baseSet(), []domain.Overlay{
		reg.Compile("pins"),
	})
	require.ErrorIs(t, err, domain.ErrRuleTargetMissing)
}

func TestRegistry_LaterRegistrationWins(t *testing.T) {
	reg := overlay.NewRegistry()
	reg.Bulk("first", []string{"app"}, overlay.SetAttrs(map[string]domain.Value{"cflags": "-O1"}))
	reg.Bulk("second", []string{"app"}, overlay.SetAttrs(map[string]domain.Value{"cflags": "-O3"}))

	final, err := newComposer().Compose(context.Background(), baseSet(), []domain.Overlay{
		reg.Compile("opt"),
	})
	require.NoError(t, err)

	app, _ := final.Get("app")
	assert.Equal(t, "-O3", app.Attrs["cflags"])
}

func TestRegistry_PanicsAfterCompile(t *testing.T) {
	reg := overlay.NewRegistry()
	reg.Compile("frozen")

	assert.Panics(t, func() {
		reg.Bulk("late", []string{"app"}, overlay.SetAttrs(nil))
	})
}

func TestCombinators_Idempotent(t *testing.T) {
	rule := overlay.Chain(
		overlay.AddBuildDeps("openssl"),
		overlay.AddRunDeps("zlib"),
		overlay.AddExternalResources("libcuda.so"),
	)

	def := domain.PackageDef{Name: domain.NewInternedString("app")}
	once, err := rule(def.Clone())
	require.NoError(t, err)
	twice, err := rule(once.Clone())
	require.NoError(t, err)

	assert.Equal(t, once.BuildDeps, twice.BuildDeps)
	assert.Equal(t, once.RunDeps, twice.RunDeps)
	assert.Equal(t, once.ExternalResources, twice.ExternalResources)
	require.Len(t, twice.BuildDeps, 1)
	require.Len(t, twice.ExternalResources, 1)
}

func TestFromDeclared(t *testing.T) {
	overrides := []domain.DeclaredOverride{
		{
			Name:              "gpu",
			Targets:           []string{"app"},
			AddBuildDeps:      []string{"openssl"},
			SetAttrs:          map[string]domain.Value{"accel": "cuda"},
			ExternalResources: []string{"libcudart.so"},
		},
	}

	final, err := newComposer().Compose(context.Background(), baseSet(), []domain.Overlay{
		overlay.FromDeclared(overrides).Compile("workspace-overrides"),
	})
	require.NoError(t, err)

	app, _ := final.Get("app")
	require.Len(t, app.BuildDeps, 1)
	assert.Equal(t, "openssl", app.BuildDeps[0].Name)
	assert.Equal(t, "cuda", app.Attrs["accel"])
	assert.Equal(t, []string{"libcudart.so"}, app.ExternalResources)
}

func TestOverlayContentIdentity(t *testing.T) {
	one := overlay.Editable("editable", map[string]string{"app": "/checkout/one"})
	two := overlay.Editable("editable", map[string]string{"app": "/checkout/two"})
	assert.NotEqual(t, one.ID, two.ID, "different paths under the same name")
	assert.Equal(t, one.ID, overlay.Editable("editable", map[string]string{"app": "/checkout/one"}).ID)

	declared := func(cflags string) domain.Overlay {
		return overlay.FromDeclared([]domain.DeclaredOverride{{
			Name:     "opt",
			Targets:  []string{"app"},
			SetAttrs: map[string]domain.Value{"cflags": cflags},
		}}).Compile("workspace-overrides")
	}
	assert.NotEqual(t, declared("-O2").ID, declared("-O3").ID,
		"declared rule parameters feed the compiled identity")
	assert.Equal(t, declared("-O2").ID, declared("-O2").ID)
}

func TestEditableOverlay(t *testing.T) {
	ov := overlay.Editable("editable", map[string]string{
		"app":    "/home/dev/app",
		"newpkg": "/home/dev/newpkg",
	})

	final, err := newComposer().Compose(context.Background(), baseSet(), []domain.Overlay{ov})
	require.NoError(t, err)

	app, _ := final.Get("app")
	assert.Equal(t, domain.FormEditable, app.Source.Form)
	assert.Equal(t, "/home/dev/app", app.Source.Ref)
	assert.Equal(t, "1.0.0", app.Version, "existing version survives the redirect")

	introduced, ok := final.Get("newpkg")
	require.True(t, ok)
	assert.Equal(t, "0.0.0+editable", introduced.Version)
}

func TestPreferFormsOverlay(t *testing.T) {
	lock := map[string]domain.LockEntry{
		"app": {
			Version: "1.0.0",
			Sources: []domain.SourceRef{
				{Form: domain.FormPrebuilt, Ref: "https://example.com/app.tar"},
				{Form: domain.FormSource, Ref: "pkgs/app"},
			},
			Hash: "aa",
		},
	}

	ov := overlay.PreferForms("flip", map[string]domain.SourceForm{"app": domain.FormPrebuilt}, lock)
	final, err := newComposer().Compose(context.Background(), baseSet(), []domain.Overlay{ov})
	require.NoError(t, err)

	app, _ := final.Get("app")
	assert.Equal(t, domain.FormPrebuilt, app.Source.Form)

	missing := overlay.PreferForms("flip", map[string]domain.SourceForm{"app": domain.FormEditable}, lock)
	_, err = newComposer().Compose(context.Background(), baseSet(), []domain.Overlay{missing})
	require.ErrorIs(t, err, domain.ErrNoSourceForPreference)
}

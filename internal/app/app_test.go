package app_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/strata/internal/adapters/cas"
	"go.trai.ch/strata/internal/adapters/telemetry"
	"go.trai.ch/strata/internal/app"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports/mocks"
	"go.trai.ch/strata/internal/engine/build"
	"go.trai.ch/strata/internal/engine/overlay"
	"go.uber.org/mock/gomock"
)

type nopLogger struct{}

func (nopLogger) Info(string) {}
func (nopLogger) Error(error) {}

func testWorkspace() *domain.Workspace {
	return &domain.Workspace{
		Root:    "/ws",
		Members: []string{"app"},
		Decls: map[string]domain.PackageDecl{
			"app": {
				BuildDeps: []domain.Dependency{{Name: "zlib"}},
				Attrs:     map[string]domain.Value{"cflags": "-O2"},
			},
		},
		Groups: map[string][]string{"minimal": {"app"}},
		Lock: map[string]domain.LockEntry{
			"app": {
				Version: "1.0.0",
				Sources: []domain.SourceRef{{Form: domain.FormSource, Ref: "pkgs/app"}},
				Hash:    "aa",
			},
			"zlib": {
				Version: "1.3.1",
				Sources: []domain.SourceRef{{Form: domain.FormPrebuilt, Ref: "https://example.com/zlib.tar"}},
				Hash:    "bb",
			},
		},
		Overrides: []domain.DeclaredOverride{
			{
				Name:     "opt",
				Targets:  []string{"app"},
				SetAttrs: map[string]domain.Value{"cflags": "-O3"},
			},
		},
		SourcePreference: domain.PreferPrebuilt,
	}
}

func newApp(t *testing.T, loaderWorkspace *domain.Workspace) (*app.App, *mocks.MockArtifactBuilder) {
	t.Helper()
	ctrl := gomock.NewController(t)

	loader := mocks.NewMockWorkspaceLoader(ctrl)
	loader.EXPECT().Load(gomock.Any()).Return(loaderWorkspace, nil).AnyTimes()

	store, err := cas.NewStore(filepath.Join(t.TempDir(), "records.json"))
	require.NoError(t, err)

	builder := mocks.NewMockArtifactBuilder(ctrl)
	composer := overlay.NewComposer(store, telemetry.NoopTracer{})
	runner := build.NewRunner(builder, store, telemetry.NoopTelemetry{})
	return app.New(loader, composer, runner, nopLogger{}), builder
}

func TestEnvironment_AppliesDeclaredOverrides(t *testing.T) {
	a, _ := newApp(t, testWorkspace())

	env, err := a.Environment(context.Background(), app.EnvRequest{Root: "/ws", Group: "minimal"})
	require.NoError(t, err)

	require.Len(t, env.Packages, 2)
	assert.Equal(t, "zlib", env.Packages[0].Name)
	assert.Equal(t, "app", env.Packages[1].Name)
	assert.Equal(t, "-O3", env.Packages[1].Attrs["cflags"], "declared override wins over the declaration")
}

func TestEnvironment_DefaultsToAllGroup(t *testing.T) {
	a, _ := newApp(t, testWorkspace())

	env, err := a.Environment(context.Background(), app.EnvRequest{Root: "/ws"})
	require.NoError(t, err)
	assert.Equal(t, domain.GroupAll, env.Group)
	assert.NotEmpty(t, env.Platform)
	assert.Len(t, env.Packages, 2)
}

func TestEnvironment_EditableOverlayWins(t *testing.T) {
	a, _ := newApp(t, testWorkspace())

	env, err := a.Environment(context.Background(), app.EnvRequest{
		Root:     "/ws",
		Editable: map[string]string{"app": "/home/dev/app"},
	})
	require.NoError(t, err)

	var appPkg domain.EnvPackage
	for _, p := range env.Packages {
		if p.Name == "app" {
			appPkg = p
		}
	}
	assert.Equal(t, domain.FormEditable, appPkg.Source.Form)
	assert.Equal(t, "/home/dev/app", appPkg.Source.Ref)
}

func TestBuild_RealizesAllPackages(t *testing.T) {
	a, builder := newApp(t, testWorkspace())
	builder.EXPECT().Build(gomock.Any(), "/ws", gomock.Any()).Return("h", nil).Times(2)

	err := a.Build(context.Background(), app.EnvRequest{Root: "/ws"}, app.BuildOptions{})
	require.NoError(t, err)
}

func TestEnvironment_DistinctEditablePathsRecompose(t *testing.T) {
	a, _ := newApp(t, testWorkspace())

	first, err := a.Environment(context.Background(), app.EnvRequest{
		Root:     "/ws",
		Editable: map[string]string{"app": "/checkout/one"},
	})
	require.NoError(t, err)

	second, err := a.Environment(context.Background(), app.EnvRequest{
		Root:     "/ws",
		Editable: map[string]string{"app": "/checkout/two"},
	})
	require.NoError(t, err)

	assert.Equal(t, "/checkout/one", sourceRefOf(first, "app"))
	assert.Equal(t, "/checkout/two", sourceRefOf(second, "app"),
		"a different editable path must not hit the first request's cached composition")
}

func sourceRefOf(env *domain.Environment, name string) string {
	for _, p := range env.Packages {
		if p.Name == name {
			return p.Source.Ref
		}
	}
	return ""
}

func TestVerify(t *testing.T) {
	a, _ := newApp(t, testWorkspace())

	ws, err := a.Verify("/ws")
	require.NoError(t, err)
	assert.Equal(t, []string{"app"}, ws.Members)
}

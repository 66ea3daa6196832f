package build_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/strata/internal/adapters/cas"
	"go.trai.ch/strata/internal/adapters/telemetry"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports/mocks"
	"go.trai.ch/strata/internal/engine/build"
	"go.uber.org/mock/gomock"
)

func newRecordStore(t *testing.T) *cas.Store {
	t.Helper()
	store, err := cas.NewStore(filepath.Join(t.TempDir(), "records.json"))
	require.NoError(t, err)
	return store
}

func envOf(pkgs ...domain.EnvPackage) *domain.Environment {
	for i := range pkgs {
		pkgs[i].Order = i
	}
	return &domain.Environment{Group: "all", Platform: "linux-amd64", Packages: pkgs}
}

func TestRun_BuildsAndRecords(t *testing.T) {
	ctrl := gomock.NewController(t)
	builder := mocks.NewMockArtifactBuilder(ctrl)
	store := newRecordStore(t)

	pkg := domain.EnvPackage{Name: "zlib", Version: "1.3.1"}
	builder.EXPECT().Build(gomock.Any(), gomock.Any(), gomock.Any()).Return("artifact-hash", nil).Times(1)

	runner := build.NewRunner(builder, store, telemetry.NoopTelemetry{})
	require.NoError(t, runner.Run(context.Background(), envOf(pkg)))

	rec, err := store.Record("zlib")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "artifact-hash", rec.ArtifactHash)
	assert.Equal(t, domain.BuildInputHash(pkg), rec.InputHash)
}

func TestRun_PassesWorkspaceRoot(t *testing.T) {
	ctrl := gomock.NewController(t)
	builder := mocks.NewMockArtifactBuilder(ctrl)
	store := newRecordStore(t)

	env := envOf(domain.EnvPackage{Name: "zlib"})
	env.Root = "/work/ws"
	builder.EXPECT().Build(gomock.Any(), "/work/ws", gomock.Any()).Return("h", nil).Times(1)

	runner := build.NewRunner(builder, store, telemetry.NoopTelemetry{})
	require.NoError(t, runner.Run(context.Background(), env))
}

func TestRun_CacheHitSkipsBuilder(t *testing.T) {
	ctrl := gomock.NewController(t)
	builder := mocks.NewMockArtifactBuilder(ctrl)
	store := newRecordStore(t)

	pkg := domain.EnvPackage{Name: "zlib", Version: "1.3.1"}
	require.NoError(t, store.PutRecord(domain.BuildRecord{
		Package:      "zlib",
		InputHash:    domain.BuildInputHash(pkg),
		ArtifactHash: "cached",
	}))

	runner := build.NewRunner(builder, store, telemetry.NoopTelemetry{})
	require.NoError(t, runner.Run(context.Background(), envOf(pkg)))
}

func TestRun_StaleRecordRebuilds(t *testing.T) {
	ctrl := gomock.NewController(t)
	builder := mocks.NewMockArtifactBuilder(ctrl)
	store := newRecordStore(t)

	pkg := domain.EnvPackage{Name: "zlib", Version: "1.3.2"}
	require.NoError(t, store.PutRecord(domain.BuildRecord{
		Package:      "zlib",
		InputHash:    "stale",
		ArtifactHash: "old",
	}))
	builder.EXPECT().Build(gomock.Any(), gomock.Any(), gomock.Any()).Return("fresh", nil).Times(1)

	runner := build.NewRunner(builder, store, telemetry.NoopTelemetry{})
	require.NoError(t, runner.Run(context.Background(), envOf(pkg)))

	rec, err := store.Record("zlib")
	require.NoError(t, err)
	assert.Equal(t, "fresh", rec.ArtifactHash)
}

func TestRun_DependencyOrdering(t *testing.T) {
	ctrl := gomock.NewController(t)
	builder := mocks.NewMockArtifactBuilder(ctrl)
	store := newRecordStore(t)

	var mu sync.Mutex
	var started []string
	builder.EXPECT().Build(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, pkg domain.EnvPackage) (string, error) {
			mu.Lock()
			started = append(started, pkg.Name)
			mu.Unlock()
			return "h", nil
		}).Times(3)

	env := envOf(
		domain.EnvPackage{Name: "zlib"},
		domain.EnvPackage{Name: "libfoo", DependsOn: []string{"zlib"}},
		domain.EnvPackage{Name: "app", DependsOn: []string{"libfoo"}},
	)

	runner := build.NewRunner(builder, store, telemetry.NoopTelemetry{})
	require.NoError(t, runner.Run(context.Background(), env))

	require.Equal(t, []string{"zlib", "libfoo", "app"}, started)
}

func TestRun_FailureStopsDependents(t *testing.T) {
	ctrl := gomock.NewController(t)
	builder := mocks.NewMockArtifactBuilder(ctrl)
	store := newRecordStore(t)

	boom := errors.New("compiler exploded")
	builder.EXPECT().Build(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, pkg domain.EnvPackage) (string, error) {
			if pkg.Name == "libfoo" {
				return "", boom
			}
			return "h", nil
		}).MinTimes(1)

	env := envOf(
		domain.EnvPackage{Name: "zlib"},
		domain.EnvPackage{Name: "libfoo", DependsOn: []string{"zlib"}},
		domain.EnvPackage{Name: "app", DependsOn: []string{"libfoo"}},
	)

	runner := build.NewRunner(builder, store, telemetry.NoopTelemetry{})
	err := runner.Run(context.Background(), env)
	require.ErrorIs(t, err, boom)

	// zlib completed before the failure; its record is intact.
	rec, recErr := store.Record("zlib")
	require.NoError(t, recErr)
	assert.NotNil(t, rec)

	// app never built.
	rec, recErr = store.Record("app")
	require.NoError(t, recErr)
	assert.Nil(t, rec)
}

func TestRun_Cancellation(t *testing.T) {
	ctrl := gomock.NewController(t)
	builder := mocks.NewMockArtifactBuilder(ctrl)
	store := newRecordStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The first build cancels the run and blocks until the context dies.
	builder.EXPECT().Build(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string, _ domain.EnvPackage) (string, error) {
			cancel()
			<-ctx.Done()
			return "", ctx.Err()
		}).MinTimes(1)

	env := envOf(
		domain.EnvPackage{Name: "zlib"},
		domain.EnvPackage{Name: "app", DependsOn: []string{"zlib"}},
	)

	runner := build.NewRunner(builder, store, telemetry.NoopTelemetry{})
	err := runner.Run(ctx, env)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRun_EmptyEnvironment(t *testing.T) {
	ctrl := gomock.NewController(t)
	builder := mocks.NewMockArtifactBuilder(ctrl)
	store := newRecordStore(t)

	runner := build.NewRunner(builder, store, telemetry.NoopTelemetry{})
	require.NoError(t, runner.Run(context.Background(), envOf()))
}

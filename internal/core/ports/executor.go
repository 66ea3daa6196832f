package ports

import (
	"context"

	"go.trai.ch/strata/internal/core/domain"
)

// ArtifactBuilder realizes one environment package into a built artifact.
// It is the engine's extension point for the external build-execution layer;
// the core never compiles anything itself.
//
//go:generate go run go.uber.org/mock/mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type ArtifactBuilder interface {
	// Build realizes the package and returns the artifact's content hash.
	// Relative source references resolve against root, the workspace root
	// directory. Implementations must honor ctx cancellation and abort
	// in-flight work.
	Build(ctx context.Context, root string, pkg domain.EnvPackage) (artifactHash string, err error)
}

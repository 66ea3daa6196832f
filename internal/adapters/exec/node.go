package exec

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/strata/internal/adapters/fs"
	"go.trai.ch/strata/internal/adapters/logger"
	"go.trai.ch/strata/internal/core/ports"
)

// NodeID is the unique identifier for the artifact builder Graft node.
const NodeID graft.ID = "adapter.artifact_builder"

func init() {
	graft.Register(graft.Node[ports.ArtifactBuilder]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			fs.HasherNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (ports.ArtifactBuilder, error) {
			hasher, err := graft.Dep[ports.ContentHasher](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewBuilder(hasher, log), nil
		},
	})
}

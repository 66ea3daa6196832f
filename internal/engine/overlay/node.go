package overlay

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/strata/internal/adapters/cas"       //nolint:depguard // Wired in engine wiring
	"go.trai.ch/strata/internal/adapters/telemetry" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/strata/internal/core/ports"
)

// NodeID is the unique identifier for the composer Graft node.
const NodeID graft.ID = "engine.composer"

func init() {
	graft.Register(graft.Node[*Composer]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			cas.NodeID,
			telemetry.TracerNodeID,
		},
		Run: func(ctx context.Context) (*Composer, error) {
			memo, err := graft.Dep[*cas.Store](ctx)
			if err != nil {
				return nil, err
			}
			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}
			return NewComposer(memo, tracer), nil
		},
	})
}

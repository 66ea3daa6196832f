package build

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/strata/internal/adapters/cas"       //nolint:depguard // Wired in engine wiring
	"go.trai.ch/strata/internal/adapters/exec"      //nolint:depguard // Wired in engine wiring
	"go.trai.ch/strata/internal/adapters/telemetry" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/strata/internal/core/ports"
)

// NodeID is the unique identifier for the build runner Graft node.
const NodeID graft.ID = "engine.build_runner"

func init() {
	graft.Register(graft.Node[*Runner]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			exec.NodeID,
			cas.NodeID,
			telemetry.RecorderNodeID,
		},
		Run: func(ctx context.Context) (*Runner, error) {
			builder, err := graft.Dep[ports.ArtifactBuilder](ctx)
			if err != nil {
				return nil, err
			}
			store, err := graft.Dep[*cas.Store](ctx)
			if err != nil {
				return nil, err
			}
			recorder, err := graft.Dep[ports.Telemetry](ctx)
			if err != nil {
				return nil, err
			}
			return NewRunner(builder, store, recorder), nil
		},
	})
}

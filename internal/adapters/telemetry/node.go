package telemetry

import (
	"context"

	"github.com/grindlemire/graft"
	progrockadapter "go.trai.ch/strata/internal/adapters/telemetry/progrock"
	"go.trai.ch/strata/internal/core/ports"
)

const (
	// TracerNodeID is the unique identifier for the tracer Graft node.
	TracerNodeID graft.ID = "adapter.tracer"
	// RecorderNodeID is the unique identifier for the progress recorder Graft node.
	RecorderNodeID graft.ID = "adapter.recorder"
)

func init() {
	graft.Register(graft.Node[ports.Tracer]{
		ID:        TracerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Tracer, error) {
			return NewOTelTracer("strata"), nil
		},
	})

	graft.Register(graft.Node[ports.Telemetry]{
		ID:        RecorderNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Telemetry, error) {
			return progrockadapter.New(), nil
		},
	})
}

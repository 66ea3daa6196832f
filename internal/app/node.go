package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/strata/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/strata/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/strata/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/strata/internal/engine/build"
	"go.trai.ch/strata/internal/engine/overlay"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components bundles everything the CLI entry point needs from the graph.
type Components struct {
	App       *App
	Logger    ports.Logger
	Loader    ports.WorkspaceLoader
	Telemetry ports.Telemetry
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			overlay.NodeID,
			build.NodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*App, error) {
			loader, err := graft.Dep[ports.WorkspaceLoader](ctx)
			if err != nil {
				return nil, err
			}
			composer, err := graft.Dep[*overlay.Composer](ctx)
			if err != nil {
				return nil, err
			}
			runner, err := graft.Dep[*build.Runner](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return New(loader, composer, runner, log), nil
		},
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
			config.NodeID,
			telemetry.RecorderNodeID,
		},
		Run: runComponentsNode,
	})
}

func runComponentsNode(ctx context.Context) (*Components, error) {
	application, err := graft.Dep[*App](ctx)
	if err != nil {
		return nil, err
	}
	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}
	loader, err := graft.Dep[ports.WorkspaceLoader](ctx)
	if err != nil {
		return nil, err
	}
	recorder, err := graft.Dep[ports.Telemetry](ctx)
	if err != nil {
		return nil, err
	}
	return &Components{
		App:       application,
		Logger:    log,
		Loader:    loader,
		Telemetry: recorder,
	}, nil
}

// Package ports defines the core interfaces for the application.
package ports

import "go.trai.ch/strata/internal/core/domain"

// WorkspaceLoader parses a workspace root into member packages and pinned lock
// data. Loading has no side effects beyond reading the declared sources and
// must reject a workspace whose lock hashes fail integrity verification.
//
//go:generate go run go.uber.org/mock/mockgen -source=workspace_loader.go -destination=mocks/mock_workspace_loader.go -package=mocks
type WorkspaceLoader interface {
	// Load reads the workspace manifest and lock file under root.
	Load(root string) (*domain.Workspace, error)
}

package domain

// EnvPackage is one entry of a materialized environment: a package with its
// resolved attributes and its position in the build order.
type EnvPackage struct {
	Name    string
	Version string
	Source  SourceRef

	// Attrs are the fully-forced attributes; never contain Deferred values.
	Attrs map[string]Value

	// ExternalResources carries opaque native references through to the
	// downstream build executor.
	ExternalResources []string

	// DependsOn lists the package's dependencies within this environment,
	// platform-filtered and sorted ascending.
	DependsOn []string

	// Order is the package's index in the topological build order.
	Order int
}

// Environment is a concrete, ordered, platform-filtered package closure ready
// for activation or build execution. Environments are derived, never a source
// of truth, and are recomputed whenever the group or platform changes.
type Environment struct {
	Group    string
	Platform string

	// Root is the workspace root directory; relative package source
	// references resolve against it, the same way the loader resolves them.
	Root string

	// Packages in topological build order: every package appears after all of
	// its build-time and run-time dependencies.
	Packages []EnvPackage
}

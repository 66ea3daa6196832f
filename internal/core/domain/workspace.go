package domain

// SourceForm identifies how a package's content is obtained.
type SourceForm string

const (
	// FormPrebuilt is a ready-made artifact (no build step required).
	FormPrebuilt SourceForm = "prebuilt"
	// FormSource is a source archive or tree that must be built.
	FormSource SourceForm = "source"
	// FormEditable is a local, mutable path used for in-place development.
	FormEditable SourceForm = "editable"
)

// SourceRef points at one concrete form of a package's content.
type SourceRef struct {
	Form SourceForm
	// Ref is a path relative to the workspace root, or a URL for remote artifacts.
	Ref string
}

// LockEntry pins a single package to a version, one or more source references,
// and a content hash. Entries are immutable once loaded.
type LockEntry struct {
	Version string
	// Sources lists the available forms in preference-neutral manifest order.
	// The PackageSetBuilder picks one according to the source preference policy.
	Sources []SourceRef
	// Hash is the pinned content hash of the package's source reference.
	Hash string
}

// PackageDecl is the metadata a workspace member declares for itself:
// its dependencies and any extra attributes overlays may act on.
type PackageDecl struct {
	BuildDeps []Dependency
	RunDeps   []Dependency
	Attrs     map[string]Value
}

// DeclaredOverride is an override rule declared in the workspace manifest.
// It is compiled into the override registry before composition.
type DeclaredOverride struct {
	Name         string
	Targets      []string
	AddBuildDeps []string
	AddRunDeps   []string
	SetAttrs     map[string]Value
	// ExternalResources are opaque native-library references that live outside
	// the package universe (tagged as resources, never as PackageDefs).
	ExternalResources []string
}

// Workspace is the declared set of member packages plus their pinned lock data.
// It is loaded once per invocation and treated as an immutable input.
type Workspace struct {
	// Root is the workspace root identifier (usually an absolute directory path).
	Root string

	// Members lists member package names in manifest order.
	Members []string

	// Decls holds each member's declared metadata, keyed by package name.
	Decls map[string]PackageDecl

	// Groups maps dependency group names to their root package names.
	// The "all" group is implicit and always contains every member.
	Groups map[string][]string

	// Lock maps package names to their pinned lock entries.
	Lock map[string]LockEntry

	// Overrides are the manifest-declared override rules, in declaration order.
	Overrides []DeclaredOverride

	// SourcePreference is the workspace-wide source form policy.
	SourcePreference SourcePreference
}

// SourcePreference selects which source form the base set prefers when a lock
// entry offers more than one.
type SourcePreference string

const (
	// PreferPrebuilt picks a prebuilt artifact over a source build where both exist.
	PreferPrebuilt SourcePreference = "prebuilt"
	// PreferSource picks a source build over a prebuilt artifact where both exist.
	PreferSource SourcePreference = "source"
)

// GroupAll is the implicit dependency group containing every member package.
const GroupAll = "all"

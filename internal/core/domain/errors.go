package domain

import "errors"

var (
	// ErrWorkspaceManifestMissing is returned when the workspace manifest cannot be found.
	ErrWorkspaceManifestMissing = errors.New("workspace manifest not found")

	// ErrWorkspaceManifestInvalid is returned when the workspace manifest cannot be parsed.
	ErrWorkspaceManifestInvalid = errors.New("failed to parse workspace manifest")

	// ErrLockfileMissing is returned when the workspace lock file cannot be found.
	ErrLockfileMissing = errors.New("workspace lock file not found")

	// ErrLockfileInvalid is returned when the workspace lock file cannot be parsed.
	ErrLockfileInvalid = errors.New("failed to parse workspace lock file")

	// ErrMemberNotLocked is returned when a workspace member has no lock entry.
	ErrMemberNotLocked = errors.New("member package missing from lock file")

	// ErrLockEntryIncomplete is returned when a lock entry is missing its version,
	// source references, or content hash.
	ErrLockEntryIncomplete = errors.New("lock entry is incomplete")

	// ErrIntegrityMismatch is returned when a lock entry's content hash does not
	// match the recomputed hash of its source reference.
	ErrIntegrityMismatch = errors.New("lock content hash does not match source reference")

	// ErrDuplicateMember is returned when a manifest group lists the same member
	// twice. Duplicate member declarations themselves are caught by the YAML
	// decoder, which rejects repeated mapping keys.
	ErrDuplicateMember = errors.New("duplicate member package")

	// ErrInvalidPackageName is returned when a package name contains invalid characters.
	ErrInvalidPackageName = errors.New("package name can only contain alphanumeric characters, hyphens and underscores")

	// ErrUnresolvedPackage is returned when a declared dependency has no lock entry
	// anywhere in the transitive closure.
	ErrUnresolvedPackage = errors.New("dependency references an unknown package")

	// ErrNoSourceForPreference is returned when a lock entry has no source reference
	// satisfying the requested source preference and no fallback form.
	ErrNoSourceForPreference = errors.New("no usable source reference for package")

	// ErrOverlayCycle is returned when forcing deferred final-set references does not
	// terminate because two or more attributes depend on each other with no base value.
	ErrOverlayCycle = errors.New("overlay fixed point does not terminate")

	// ErrOverlayConflict is returned under the error-on-conflict policy when two
	// overlays set the same attribute on the same package.
	ErrOverlayConflict = errors.New("conflicting overlay definitions for attribute")

	// ErrUnknownAttrReference is returned when a deferred reference names a package
	// or attribute that does not exist in the final set.
	ErrUnknownAttrReference = errors.New("deferred reference to unknown package attribute")

	// ErrRuleTargetMissing is returned when a targeted override rule names a package
	// absent from the set it is applied to.
	ErrRuleTargetMissing = errors.New("override rule targets unknown package")

	// ErrMissingGroup is returned when a requested dependency group is not defined.
	ErrMissingGroup = errors.New("dependency group not defined")

	// ErrCyclicDependency is returned when the dependency graph among selected
	// packages is not a DAG.
	ErrCyclicDependency = errors.New("cyclic package dependency")

	// ErrStoreReadFailed is returned when the build record store cannot be read.
	ErrStoreReadFailed = errors.New("failed to read build record store")

	// ErrStoreWriteFailed is returned when the build record store cannot be written.
	ErrStoreWriteFailed = errors.New("failed to write build record store")

	// ErrBuildFailed is returned when realizing an environment package fails.
	ErrBuildFailed = errors.New("package build failed")
)

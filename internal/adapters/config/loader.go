// Package config provides the workspace manifest and lock file loader.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultManifestName is the workspace manifest filename.
	DefaultManifestName = "workspace.yaml"
	// DefaultLockName is the workspace lock filename.
	DefaultLockName = "workspace.lock.yaml"
)

var packageNameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

var _ ports.WorkspaceLoader = (*Loader)(nil)

// Loader implements ports.WorkspaceLoader from a YAML manifest/lock pair.
type Loader struct {
	ManifestName string
	LockName     string

	hasher ports.ContentHasher
}

// NewLoader creates a Loader with the default filenames.
func NewLoader(hasher ports.ContentHasher) *Loader {
	return &Loader{
		ManifestName: DefaultManifestName,
		LockName:     DefaultLockName,
		hasher:       hasher,
	}
}

// Load reads, validates and cross-checks the manifest and lock file under root.
// The returned Workspace is immutable by convention: the loader is the only
// writer and it hands the value off fully populated.
func (l *Loader) Load(root string) (*domain.Workspace, error) {
	manifest, err := l.readManifest(root)
	if err != nil {
		return nil, err
	}
	lock, err := l.readLock(root)
	if err != nil {
		return nil, err
	}

	ws := &domain.Workspace{
		Root:   root,
		Decls:  make(map[string]domain.PackageDecl, len(manifest.Packages)),
		Groups: make(map[string][]string, len(manifest.Groups)),
		Lock:   make(map[string]domain.LockEntry, len(lock.Packages)),
	}

	if err := l.applyPreference(ws, manifest); err != nil {
		return nil, err
	}
	if err := l.applyMembers(ws, manifest); err != nil {
		return nil, err
	}
	if err := l.applyGroups(ws, manifest); err != nil {
		return nil, err
	}
	l.applyOverrides(ws, manifest)
	if err := l.applyLock(ws, lock); err != nil {
		return nil, err
	}
	if err := l.verifyIntegrity(ws); err != nil {
		return nil, err
	}
	return ws, nil
}

func (l *Loader) readManifest(root string) (*Manifest, error) {
	path := filepath.Join(root, l.ManifestName)
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, zerr.With(domain.ErrWorkspaceManifestMissing, "path", path)
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to read workspace manifest"), "path", path)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrWorkspaceManifestInvalid, err.Error()), "path", path)
	}
	return &manifest, nil
}

func (l *Loader) readLock(root string) (*LockFile, error) {
	path := filepath.Join(root, l.LockName)
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, zerr.With(domain.ErrLockfileMissing, "path", path)
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to read lock file"), "path", path)
	}

	var lock LockFile
	if err := yaml.Unmarshal(data, &lock); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrLockfileInvalid, err.Error()), "path", path)
	}
	return &lock, nil
}

func (l *Loader) applyPreference(ws *domain.Workspace, manifest *Manifest) error {
	switch manifest.SourcePreference {
	case "", string(domain.PreferPrebuilt):
		ws.SourcePreference = domain.PreferPrebuilt
	case string(domain.PreferSource):
		ws.SourcePreference = domain.PreferSource
	default:
		return zerr.With(domain.ErrWorkspaceManifestInvalid,
			"source_preference", manifest.SourcePreference)
	}
	return nil
}

// applyMembers validates package names and collects declarations. Members are
// sorted ascending so every downstream traversal is deterministic.
func (l *Loader) applyMembers(ws *domain.Workspace, manifest *Manifest) error {
	for name, dto := range manifest.Packages {
		if !packageNameRe.MatchString(name) {
			return zerr.With(domain.ErrInvalidPackageName, "package", name)
		}
		ws.Members = append(ws.Members, name)
		ws.Decls[name] = domain.PackageDecl{
			BuildDeps: toDeps(dto.BuildDeps),
			RunDeps:   toDeps(dto.RunDeps),
			Attrs:     toAttrs(dto.Attrs),
		}
	}
	slices.Sort(ws.Members)
	return nil
}

func (l *Loader) applyGroups(ws *domain.Workspace, manifest *Manifest) error {
	for group, roots := range manifest.Groups {
		if group == domain.GroupAll {
			return zerr.With(zerr.With(domain.ErrWorkspaceManifestInvalid,
				"group", group), "reason", "group name 'all' is reserved")
		}
		seen := make(map[string]bool, len(roots))
		for _, pkg := range roots {
			if _, ok := ws.Decls[pkg]; !ok {
				err := zerr.With(domain.ErrUnresolvedPackage, "group", group)
				return zerr.With(err, "package", pkg)
			}
			if seen[pkg] {
				err := zerr.With(domain.ErrDuplicateMember, "group", group)
				return zerr.With(err, "package", pkg)
			}
			seen[pkg] = true
		}
		ws.Groups[group] = slices.Clone(roots)
	}
	return nil
}

func (l *Loader) applyOverrides(ws *domain.Workspace, manifest *Manifest) {
	for _, dto := range manifest.Overrides {
		ws.Overrides = append(ws.Overrides, domain.DeclaredOverride{
			Name:              dto.Name,
			Targets:           slices.Clone(dto.Targets),
			AddBuildDeps:      slices.Clone(dto.AddBuildDeps),
			AddRunDeps:        slices.Clone(dto.AddRunDeps),
			SetAttrs:          toAttrs(dto.SetAttrs),
			ExternalResources: slices.Clone(dto.ExternalResources),
		})
	}
}

// applyLock cross-checks members against lock entries. Every member must be
// locked; entries must be complete.
func (l *Loader) applyLock(ws *domain.Workspace, lock *LockFile) error {
	for _, member := range ws.Members {
		dto, ok := lock.Packages[member]
		if !ok {
			return zerr.With(domain.ErrMemberNotLocked, "package", member)
		}
		if dto.Version == "" || len(dto.Sources) == 0 || dto.Hash == "" {
			return zerr.With(domain.ErrLockEntryIncomplete, "package", member)
		}

		entry := domain.LockEntry{Version: dto.Version, Hash: dto.Hash}
		for _, src := range dto.Sources {
			form := domain.SourceForm(src.Form)
			switch form {
			case domain.FormPrebuilt, domain.FormSource, domain.FormEditable:
			default:
				err := zerr.With(domain.ErrLockfileInvalid, "package", member)
				return zerr.With(err, "source_form", src.Form)
			}
			entry.Sources = append(entry.Sources, domain.SourceRef{Form: form, Ref: src.Ref})
		}
		ws.Lock[member] = entry
	}

	// Lock entries for non-members are allowed: they pin transitive
	// dependencies that are not workspace members themselves.
	for name, dto := range lock.Packages {
		if _, ok := ws.Lock[name]; ok {
			continue
		}
		if dto.Version == "" || len(dto.Sources) == 0 || dto.Hash == "" {
			return zerr.With(domain.ErrLockEntryIncomplete, "package", name)
		}
		entry := domain.LockEntry{Version: dto.Version, Hash: dto.Hash}
		for _, src := range dto.Sources {
			entry.Sources = append(entry.Sources, domain.SourceRef{
				Form: domain.SourceForm(src.Form), Ref: src.Ref,
			})
		}
		ws.Lock[name] = entry
	}
	return nil
}

// verifyIntegrity recomputes the content hash of each lock entry's canonical
// source reference and compares it to the pinned hash. The canonical reference
// is the first local, non-editable source; remote references carry the pinned
// hash forward to the build layer, and editable paths are mutable by
// definition, so neither is checked here.
func (l *Loader) verifyIntegrity(ws *domain.Workspace) error {
	for _, name := range sortedKeys(ws.Lock) {
		entry := ws.Lock[name]
		for _, src := range entry.Sources {
			if src.Form == domain.FormEditable || isRemote(src.Ref) {
				continue
			}
			actual, err := l.hasher.HashPath(filepath.Join(ws.Root, src.Ref))
			if err != nil {
				err = zerr.Wrap(err, "failed to hash source reference")
				return zerr.With(zerr.With(err, "package", name), "ref", src.Ref)
			}
			if actual != entry.Hash {
				err := zerr.With(domain.ErrIntegrityMismatch, "package", name)
				err = zerr.With(err, "ref", src.Ref)
				err = zerr.With(err, "locked_hash", entry.Hash)
				return zerr.With(err, "actual_hash", actual)
			}
			break
		}
	}
	return nil
}

func isRemote(ref string) bool {
	return strings.Contains(ref, "://")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func toDeps(dtos []DependencyDTO) []domain.Dependency {
	if len(dtos) == 0 {
		return nil
	}
	deps := make([]domain.Dependency, len(dtos))
	for i, dto := range dtos {
		deps[i] = domain.Dependency{Name: dto.Name, Platforms: slices.Clone(dto.Platforms)}
	}
	return deps
}

// toAttrs normalizes YAML-decoded values into the domain's Value kinds.
func toAttrs(raw map[string]any) map[string]domain.Value {
	if len(raw) == 0 {
		return nil
	}
	attrs := make(map[string]domain.Value, len(raw))
	for k, v := range raw {
		attrs[k] = normalizeValue(v)
	}
	return attrs
}

func normalizeValue(v any) domain.Value {
	switch val := v.(type) {
	case []any:
		strs := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				strs = append(strs, s)
				continue
			}
			return val
		}
		return strs
	case map[string]any:
		strs := make(map[string]string, len(val))
		for k, item := range val {
			if s, ok := item.(string); ok {
				strs[k] = s
				continue
			}
			return val
		}
		return strs
	default:
		return val
	}
}

// Package exec provides the command-running artifact builder adapter.
package exec

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/zerr"
)

// Attribute keys the builder understands. Everything else in Attrs is passed
// to the build command as environment variables.
const (
	// AttrBuildCommand holds the package's build command, either a single
	// shell-free string or a []string argv.
	AttrBuildCommand = "build_command"
	// AttrBuildDir holds the working directory for the build command.
	AttrBuildDir = "build_dir"
)

// Builder realizes packages by running their declared build command via
// os/exec. Prebuilt packages, which carry no command, are hashed directly
// from their source reference.
type Builder struct {
	hasher ports.ContentHasher
	logger ports.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(hasher ports.ContentHasher, logger ports.Logger) *Builder {
	return &Builder{hasher: hasher, logger: logger}
}

// Build runs the package's build command, if any, and returns the artifact's
// content hash. Relative source references and build dirs resolve against
// root. Command output streams to the package's progress vertex when one is
// attached to the context.
func (b *Builder) Build(ctx context.Context, root string, pkg domain.EnvPackage) (string, error) {
	argv, err := buildCommand(pkg)
	if err != nil {
		return "", err
	}
	if len(argv) == 0 {
		return b.prebuiltHash(root, pkg)
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...) //nolint:gosec // workspace-declared command
	cmd.Dir = workingDir(root, pkg)
	cmd.Env = buildEnv(pkg)

	if vertex, ok := ports.VertexFromContext(ctx); ok {
		cmd.Stdout = vertex.Stdout()
		cmd.Stderr = vertex.Stdout()
	} else {
		cmd.Stdout = &logWriter{logger: b.logger}
		cmd.Stderr = &logWriter{logger: b.logger}
	}

	b.logger.Info(fmt.Sprintf("building %s@%s", pkg.Name, pkg.Version))
	if err := cmd.Run(); err != nil {
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		err = zerr.Wrap(err, "build command failed")
		return "", zerr.With(zerr.With(err, "package", pkg.Name), "exit_code", exitCode)
	}

	if dir := workingDir(root, pkg); dir != "" {
		return b.hasher.HashPath(dir)
	}
	return fmt.Sprintf("%016x", xxhash.Sum64String(pkg.Name+"\x00"+pkg.Version)), nil
}

// prebuiltHash derives an artifact hash without running anything. Local
// sources hash their content; remote sources hash their reference.
func (b *Builder) prebuiltHash(root string, pkg domain.EnvPackage) (string, error) {
	ref := pkg.Source.Ref
	if ref != "" && !strings.Contains(ref, "://") {
		path := resolveRef(root, ref)
		if _, err := os.Stat(path); err == nil {
			return b.hasher.HashPath(path)
		}
	}
	return fmt.Sprintf("%016x", xxhash.Sum64String(string(pkg.Source.Form)+"\x00"+ref)), nil
}

func buildCommand(pkg domain.EnvPackage) ([]string, error) {
	raw, ok := pkg.Attrs[AttrBuildCommand]
	if !ok {
		return nil, nil
	}
	switch v := raw.(type) {
	case string:
		return strings.Fields(v), nil
	case []string:
		return v, nil
	default:
		err := zerr.With(domain.ErrBuildFailed, "package", pkg.Name)
		return nil, zerr.With(err, "reason", fmt.Sprintf("build_command has unsupported type %T", raw))
	}
}

func workingDir(root string, pkg domain.EnvPackage) string {
	if dir, ok := pkg.Attrs[AttrBuildDir].(string); ok {
		return resolveRef(root, dir)
	}
	if pkg.Source.Form == domain.FormEditable {
		return resolveRef(root, pkg.Source.Ref)
	}
	return ""
}

// resolveRef anchors a relative local reference to the workspace root, so
// builds behave the same regardless of the process working directory.
func resolveRef(root, ref string) string {
	if root == "" || ref == "" || filepath.IsAbs(ref) || strings.Contains(ref, "://") {
		return ref
	}
	return filepath.Join(root, ref)
}

// buildEnv projects the package's scalar attributes into the command
// environment as STRATA_ATTR_<KEY> variables, on top of the process
// environment. Keys are emitted in sorted order so the environment slice is
// deterministic.
func buildEnv(pkg domain.EnvPackage) []string {
	env := os.Environ()
	env = append(env,
		"STRATA_PACKAGE="+pkg.Name,
		"STRATA_VERSION="+pkg.Version,
	)

	keys := make([]string, 0, len(pkg.Attrs))
	for k := range pkg.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if k == AttrBuildCommand || k == AttrBuildDir {
			continue
		}
		if s, ok := pkg.Attrs[k].(string); ok {
			env = append(env, "STRATA_ATTR_"+strings.ToUpper(k)+"="+s)
		}
	}
	return env
}

type logWriter struct {
	logger ports.Logger
}

func (w *logWriter) Write(p []byte) (int, error) {
	for line := range strings.Lines(strings.TrimSuffix(string(p), "\n")) {
		w.logger.Info(strings.TrimSuffix(line, "\n"))
	}
	return len(p), nil
}

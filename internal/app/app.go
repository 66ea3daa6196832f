// Package app implements the application layer for strata.
package app

import (
	"context"
	"fmt"
	"runtime"

	tea "github.com/charmbracelet/bubbletea"
	"go.trai.ch/strata/internal/adapters/tui"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/strata/internal/engine/baseset"
	"go.trai.ch/strata/internal/engine/build"
	"go.trai.ch/strata/internal/engine/materialize"
	"go.trai.ch/strata/internal/engine/overlay"
	"go.trai.ch/zerr"
)

// App represents the main application logic: it strings the workspace loader,
// base-set builder, overlay composer, materializer, and build runner into the
// operations the CLI exposes.
type App struct {
	loader     ports.WorkspaceLoader
	composer   *overlay.Composer
	runner     *build.Runner
	logger     ports.Logger
	teaOptions []tea.ProgramOption
}

// New creates a new App instance.
func New(loader ports.WorkspaceLoader, composer *overlay.Composer, runner *build.Runner, log ports.Logger) *App {
	return &App{
		loader:   loader,
		composer: composer,
		runner:   runner,
		logger:   log,
	}
}

// WithTeaOptions adds bubbletea program options to the App.
// This is primarily used for testing to disable input/output.
func (a *App) WithTeaOptions(opts ...tea.ProgramOption) *App {
	a.teaOptions = append(a.teaOptions, opts...)
	return a
}

// EnvRequest describes one environment computation.
type EnvRequest struct {
	// Root is the workspace root directory.
	Root string
	// Group selects the dependency group; empty means the implicit "all" group.
	Group string
	// Platform filters optional dependencies; empty means the host platform.
	Platform string
	// Editable maps package names to local checkout paths, applied as the last
	// overlay so editable sources win over every declared override.
	Editable map[string]string
	// SourceForms flips individual packages to another locked source form,
	// overriding the workspace-wide source preference.
	SourceForms map[string]domain.SourceForm
}

// HostPlatform is the default platform string for environment requests.
func HostPlatform() string {
	return runtime.GOOS + "-" + runtime.GOARCH
}

func (r EnvRequest) withDefaults() EnvRequest {
	if r.Group == "" {
		r.Group = domain.GroupAll
	}
	if r.Platform == "" {
		r.Platform = HostPlatform()
	}
	return r
}

// Environment computes the materialized environment for the request: load the
// workspace, build the base set from the lock, compose the overlay stack, and
// materialize the requested group for the requested platform.
func (a *App) Environment(ctx context.Context, req EnvRequest) (*domain.Environment, error) {
	req = req.withDefaults()

	ws, err := a.loader.Load(req.Root)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load workspace")
	}

	base, err := baseset.Build(ws, ws.SourcePreference)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to build base package set")
	}

	final, err := a.composer.Compose(ctx, base, a.overlayStack(ws, req))
	if err != nil {
		return nil, zerr.Wrap(err, "overlay composition failed")
	}

	env, err := materialize.New(final, ws.Groups).Materialize(req.Group, req.Platform)
	if err != nil {
		return nil, zerr.Wrap(err, "environment materialization failed")
	}
	env.Root = ws.Root

	a.logger.Info(fmt.Sprintf("materialized %d packages for group %q on %s", len(env.Packages), env.Group, env.Platform))
	return env, nil
}

// BuildOptions configuration for the Build method.
type BuildOptions struct {
	// TUI renders an interactive progress display instead of linear output.
	TUI bool
}

// Build materializes the environment and realizes every package in
// topological order through the build runner.
func (a *App) Build(ctx context.Context, req EnvRequest, opts BuildOptions) error {
	env, err := a.Environment(ctx, req)
	if err != nil {
		return err
	}

	if opts.TUI {
		err = a.buildInteractive(ctx, env)
	} else {
		err = a.runner.Run(ctx, env)
	}
	if err != nil {
		return zerr.Wrap(err, "environment build failed")
	}
	return nil
}

// buildInteractive runs the build with the bubbletea progress display. The
// program and the build run concurrently; the build side shuts the display
// down when it finishes either way.
func (a *App) buildInteractive(ctx context.Context, env *domain.Environment) error {
	progOpts := append([]tea.ProgramOption{tea.WithContext(ctx)}, a.teaOptions...)
	prog := tea.NewProgram(tui.NewModel(), progOpts...)
	recorder := tui.NewRecorder(prog)

	names := make([]string, len(env.Packages))
	for i, pkg := range env.Packages {
		names[i] = pkg.Name
	}

	progDone := make(chan error, 1)
	go func() {
		_, err := prog.Run()
		progDone <- err
	}()

	recorder.Announce(names)
	buildErr := a.runner.RunWith(ctx, env, recorder)
	_ = recorder.Close()

	// The display's own failure only matters when the build itself succeeded.
	if progErr := <-progDone; progErr != nil && buildErr == nil {
		return progErr
	}
	return buildErr
}

// Verify loads the workspace, which runs full manifest validation and lock
// integrity checking, and reports the result without computing anything else.
func (a *App) Verify(root string) (*domain.Workspace, error) {
	ws, err := a.loader.Load(root)
	if err != nil {
		return nil, err
	}
	a.logger.Info(fmt.Sprintf("workspace ok: %d members, %d locked packages", len(ws.Members), len(ws.Lock)))
	return ws, nil
}

// overlayStack assembles the composition order: workspace-declared overrides
// first, then per-request source form flips, then editable redirects last.
func (a *App) overlayStack(ws *domain.Workspace, req EnvRequest) []domain.Overlay {
	var overlays []domain.Overlay
	if len(ws.Overrides) > 0 {
		overlays = append(overlays, overlay.FromDeclared(ws.Overrides).Compile("workspace-overrides"))
	}
	if len(req.SourceForms) > 0 {
		overlays = append(overlays, overlay.PreferForms("source-forms", req.SourceForms, ws.Lock))
	}
	if len(req.Editable) > 0 {
		overlays = append(overlays, overlay.Editable("editable", req.Editable))
	}
	return overlays
}

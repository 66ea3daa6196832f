// Package build executes a materialized environment: it realizes each package
// through the artifact builder, honoring the environment's topological order
// and skipping packages whose inputs are unchanged since their last build.
package build

import (
	"context"
	"time"

	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// DefaultParallelism bounds concurrent package builds when the caller does not
// set a limit.
const DefaultParallelism = 4

// Runner drives the build of an environment. Packages build concurrently up
// to the parallelism limit, but never before their in-environment dependencies
// have finished.
type Runner struct {
	builder     ports.ArtifactBuilder
	store       ports.BuildRecordStore
	telemetry   ports.Telemetry
	parallelism int
}

// Option configures a Runner.
type Option func(*Runner)

// WithParallelism sets the maximum number of concurrently building packages.
func WithParallelism(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.parallelism = n
		}
	}
}

// NewRunner creates a Runner.
func NewRunner(builder ports.ArtifactBuilder, store ports.BuildRecordStore, telemetry ports.Telemetry, opts ...Option) *Runner {
	r := &Runner{
		builder:     builder,
		store:       store,
		telemetry:   telemetry,
		parallelism: DefaultParallelism,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run builds every package of the environment. A package failure cancels
// packages that have not started and prevents its dependents from starting,
// but records of already-completed packages remain intact.
func (r *Runner) Run(ctx context.Context, env *domain.Environment) error {
	return r.RunWith(ctx, env, r.telemetry)
}

// RunWith is Run with an alternate progress recorder, letting the caller
// substitute an interactive display for the default one.
func (r *Runner) RunWith(ctx context.Context, env *domain.Environment, recorder ports.Telemetry) error {
	group, ctx := errgroup.WithContext(ctx)

	// One channel per package, closed on successful completion. Dependents
	// wait on these before acquiring a build slot, so the semaphore is never
	// held by a goroutine that is still blocked on its dependencies.
	done := make(map[string]chan struct{}, len(env.Packages))
	for _, pkg := range env.Packages {
		done[pkg.Name] = make(chan struct{})
	}
	slots := make(chan struct{}, r.parallelism)

	for _, pkg := range env.Packages {
		group.Go(func() error {
			for _, dep := range pkg.DependsOn {
				select {
				case <-done[dep]:
				case <-ctx.Done():
					return ctx.Err()
				}
			}

			select {
			case slots <- struct{}{}:
			case <-ctx.Done():
				return ctx.Err()
			}
			defer func() { <-slots }()

			if err := r.buildOne(ctx, env.Root, pkg, recorder); err != nil {
				return zerr.With(err, "package", pkg.Name)
			}
			close(done[pkg.Name])
			return nil
		})
	}
	return group.Wait()
}

// buildOne realizes a single package, consulting the record store first. A
// record whose input hash matches the package's current inputs is a cache hit
// and skips the builder entirely.
func (r *Runner) buildOne(ctx context.Context, root string, pkg domain.EnvPackage, recorder ports.Telemetry) error {
	ctx, vertex := recorder.Record(ctx, pkg.Name)

	inputHash := domain.BuildInputHash(pkg)
	rec, err := r.store.Record(pkg.Name)
	if err != nil {
		vertex.Complete(err)
		return err
	}
	if rec != nil && rec.InputHash == inputHash {
		vertex.Cached()
		vertex.Complete(nil)
		return nil
	}

	artifactHash, err := r.builder.Build(ports.ContextWithVertex(ctx, vertex), root, pkg)
	if err != nil {
		err = zerr.Wrap(err, "build failed")
		vertex.Complete(err)
		return err
	}

	err = r.store.PutRecord(domain.BuildRecord{
		Package:      pkg.Name,
		InputHash:    inputHash,
		ArtifactHash: artifactHash,
		Timestamp:    time.Now().UTC(),
	})
	vertex.Complete(err)
	return err
}

package telemetry

import (
	"context"
	"io"

	"go.trai.ch/strata/internal/core/ports"
)

// NoopTracer discards all spans. Used when tracing is disabled.
type NoopTracer struct{}

// Start returns a span that does nothing.
func (NoopTracer) Start(ctx context.Context, _ string, _ ...ports.SpanOption) (context.Context, ports.Span) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End()                        {}
func (noopSpan) RecordError(error)           {}
func (noopSpan) SetAttribute(string, any)    {}
func (noopSpan) Write(p []byte) (int, error) { return len(p), nil }

// NoopTelemetry discards all vertexes. Used when no progress display is attached.
type NoopTelemetry struct{}

// Record returns a vertex that does nothing.
func (NoopTelemetry) Record(ctx context.Context, _ string) (context.Context, ports.Vertex) {
	return ctx, noopVertex{}
}

// Close is a no-op.
func (NoopTelemetry) Close() error { return nil }

type noopVertex struct{}

func (noopVertex) Stdout() io.Writer { return io.Discard }
func (noopVertex) Cached()           {}
func (noopVertex) Complete(error)    {}

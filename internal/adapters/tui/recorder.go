package tui

import (
	"context"
	"io"
	"slices"

	tea "github.com/charmbracelet/bubbletea"
	"go.trai.ch/strata/internal/core/ports"
)

// Recorder implements ports.Telemetry by feeding messages into a running
// bubbletea program. It is safe for concurrent vertices: tea.Program.Send is
// goroutine-safe and the model applies messages sequentially.
type Recorder struct {
	prog *tea.Program
}

// NewRecorder creates a Recorder sending into prog.
func NewRecorder(prog *tea.Program) *Recorder {
	return &Recorder{prog: prog}
}

// Announce publishes the full package list so the display shows pending
// entries before anything starts.
func (r *Recorder) Announce(packages []string) {
	r.prog.Send(MsgInitPackages{Packages: slices.Clone(packages)})
}

// Record starts a vertex for one package build.
func (r *Recorder) Record(ctx context.Context, name string) (context.Context, ports.Vertex) {
	r.prog.Send(MsgPackageStart{Name: name})
	return ctx, &vertex{name: name, prog: r.prog}
}

// Close stops the program.
func (r *Recorder) Close() error {
	r.prog.Quit()
	return nil
}

type vertex struct {
	name string
	prog *tea.Program
}

func (v *vertex) Stdout() io.Writer {
	return &logSender{name: v.name, prog: v.prog}
}

func (v *vertex) Cached() {
	v.prog.Send(MsgPackageCached{Name: v.name})
}

func (v *vertex) Complete(err error) {
	v.prog.Send(MsgPackageComplete{Name: v.name, Err: err})
}

type logSender struct {
	name string
	prog *tea.Program
}

func (s *logSender) Write(p []byte) (int, error) {
	// Send copies the message asynchronously; the caller may reuse p.
	data := slices.Clone(p)
	s.prog.Send(MsgPackageLog{Name: s.name, Data: data})
	return len(p), nil
}

// Package logger provides the standard error logger adapter.
package logger

import (
	"fmt"
	"os"

	"go.trai.ch/strata/internal/core/ports"
)

var _ ports.Logger = (*Logger)(nil)

// Logger writes informational messages to stdout and errors to stderr.
type Logger struct{}

// New creates a new Logger.
func New() *Logger {
	return &Logger{}
}

// Info writes a message to stdout.
func (l *Logger) Info(msg string) {
	_, _ = fmt.Fprintln(os.Stdout, msg)
}

// Error writes an error report to stderr. zerr prints stack trace and
// metadata when formatted with %+v.
func (l *Logger) Error(err error) {
	_, _ = fmt.Fprintf(os.Stderr, "%+v\n", err)
}

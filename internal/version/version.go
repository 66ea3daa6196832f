// Package version carries build-time metadata injected via ldflags.
package version

var (
	// Version is the release version, set at build time.
	Version = "dev"
	// Commit is the git commit the binary was built from.
	Commit = "none"
	// Date is the build timestamp.
	Date = "unknown"
)

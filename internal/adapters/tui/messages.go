// Package tui provides a textual user interface for environment builds.
package tui

// MsgInitPackages announces the full build order before any package starts.
type MsgInitPackages struct {
	Packages []string
}

// MsgPackageStart marks a package as building.
type MsgPackageStart struct {
	Name string
}

// MsgPackageLog carries a chunk of build output for a package.
type MsgPackageLog struct {
	Name string
	Data []byte
}

// MsgPackageCached marks a package as skipped via cache hit.
type MsgPackageCached struct {
	Name string
}

// MsgPackageComplete marks a package as finished.
type MsgPackageComplete struct {
	Name string
	Err  error
}

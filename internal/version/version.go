// Package version carries the build identity stamped into release binaries.
package version

// Populated at link time via -ldflags; a plain `go build` reports "dev".
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info returns the version string, commit hash and build date.
func Info() (string, string, string) {
	return Version, GitCommit, BuildDate
}

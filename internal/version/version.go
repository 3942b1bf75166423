// Package version carries the build identity stamped in with -ldflags.
package version

import "fmt"

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String reports the build identity on one line, e.g. for -version.
func String() string {
	return fmt.Sprintf("tray-align %s (commit %s, built %s)", Version, GitSHA, BuildTime)
}

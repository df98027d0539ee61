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

// String returns the version line printed by -version and stamped into exports.
func String() string {
	return fmt.Sprintf("smp.report %s (%s, built %s)", Version, GitSHA, BuildTime)
}

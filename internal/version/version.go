// Package version holds build metadata stamped in at link time via
// -ldflags "-X".
package version

var (
	// Version is the framebot release version.
	Version = "dev"
	// GitSHA is the git commit SHA of the build.
	GitSHA = "unknown"
	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)

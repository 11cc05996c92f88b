package version

import "fmt"

// AppName is the application name used in log prefixes and notification titles.
const AppName = "homeIotServer"

var (
	// Version is the semantic version of the build. It can be overridden via ldflags.
	Version = "3.0.0"
	// Commit is the short git SHA embedded at build time (or "none").
	Commit = "none"
	// BuildTime is the UTC build timestamp embedded at build time.
	BuildTime = "unknown"
)

// Short returns only the semantic version string.
func Short() string {
	return Version
}

// Full returns a human-readable version string with commit and build time.
func Full() string {
	return fmt.Sprintf("%s version: %s, commit: %s, built at: %s", AppName, Version, Commit, BuildTime)
}

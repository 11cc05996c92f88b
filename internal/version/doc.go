// Package version exposes build metadata for the project.
//
// Variables Version, Commit, and BuildTime are injected at build time via
// Go ldflags and default to sensible values for local builds. Short is what
// failure notifications report as the running engine version; Full is
// printed by the `version` subcommand of every binary.
package version

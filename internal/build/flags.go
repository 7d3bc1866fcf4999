// SPDX-License-Identifier: MIT
//
// Package build manages build information embedded into the binary at
// compile time using linker flags: application name, build timestamp,
// Git commit hash, and semantic version.
package build

import "fmt"

type ldFlags struct {
	Name    string // Application name
	Time    string // Build timestamp
	Commit  string // Git commit hash
	Version string // Semantic version
}

// Package-level variables for build information. These are populated by
// -ldflags during compilation, for example:
//
//	go build -ldflags "-X grfnn/internal/build.buildName=grfnn"
//
// Default values of "unknown" are used during development.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = &ldFlags{
		Name:    "unknown",
		Time:    "unknown",
		Commit:  "unknown",
		Version: "unknown",
	}
)

// Initialize validates and copies build information from ldflags variables
// into the buildFlags struct. This must be called early in program startup.
// Returns an error if any required build flag is missing.
func Initialize() error {
	if buildName == "" {
		return fmt.Errorf("BuildName is required")
	}
	if buildTime == "" {
		return fmt.Errorf("BuildTime is required")
	}
	if buildCommit == "" {
		return fmt.Errorf("BuildCommit is required")
	}
	if buildVersion == "" {
		return fmt.Errorf("BuildVersion is required")
	}

	buildFlags.Name = buildName
	buildFlags.Time = buildTime
	buildFlags.Commit = buildCommit
	buildFlags.Version = buildVersion

	return nil
}

// GetBuildFlags returns the current build information. Safe to call before
// Initialize; the fields then carry their development defaults.
func GetBuildFlags() *ldFlags {
	return buildFlags
}

// Package version reports the build version stamped in by the linker.
package version

import (
	"strings"

	"golang.org/x/mod/semver"
)

// Set with -ldflags "-X github.com/blink-inc/blink/internal/shared/version.Version=v1.2.3".
var (
	Version = "dev"
	Commit  = ""
)

// Normalize ensures version string has "v" prefix for semver compatibility.
// Examples: "1.2.3" -> "v1.2.3", "v1.2.3" -> "v1.2.3"
func Normalize(version string) string {
	version = strings.TrimSpace(version)
	if version == "" {
		return ""
	}
	if !strings.HasPrefix(version, "v") {
		return "v" + version
	}
	return version
}

// Current returns the normalized build version, or "dev" for unstamped builds.
func Current() string {
	v := Normalize(Version)
	if !semver.IsValid(v) {
		return "dev"
	}
	return semver.Canonical(v)
}

// String is the human readable form used by the CLI and the health endpoint.
func String() string {
	if Commit == "" {
		return Current()
	}
	return Current() + " (" + Commit + ")"
}

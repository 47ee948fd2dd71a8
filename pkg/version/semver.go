package version

import (
	"github.com/Masterminds/semver/v3"
)

var (
	parsedVersion  *semver.Version
	parseAttempted bool
)

func resetParsedVersion() {
	parsedVersion = nil
	parseAttempted = false
}

// Parsed returns the build's semantic version, or nil when the version
// string does not parse (development builds). Cached after the first call.
func Parsed() *semver.Version {
	if parsedVersion != nil || parseAttempted {
		return parsedVersion
	}
	parseAttempted = true

	v, err := semver.NewVersion(Version)
	if err != nil {
		return nil
	}
	parsedVersion = v
	return parsedVersion
}

// IsDevBuild reports whether this binary carries no valid release version.
func IsDevBuild() bool {
	return Parsed() == nil
}

// Compare orders the current version against another version string:
// -1 when older, 0 when equal, 1 when newer. Unparseable input compares
// equal.
func Compare(other string) int {
	current := Parsed()
	if current == nil {
		return 0
	}

	otherV, err := semver.NewVersion(other)
	if err != nil {
		return 0
	}
	return current.Compare(otherV)
}

// IsNewerThan reports whether the current version is strictly newer.
func IsNewerThan(other string) bool {
	return Compare(other) > 0
}

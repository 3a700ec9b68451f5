// Package versions reports build information and compares plugin versions.
package versions

import "github.com/Masterminds/semver/v3"

// IsNewerVersion reports whether newVersion is strictly greater than oldVersion.
// It uses semantic versioning for comparison when both strings are valid semver,
// and falls back to lexicographic string comparison otherwise.
func IsNewerVersion(newVersion, oldVersion string) bool {
	newSemver, errNew := semver.NewVersion(newVersion)
	oldSemver, errOld := semver.NewVersion(oldVersion)

	if errNew != nil || errOld != nil {
		return newVersion > oldVersion
	}

	return newSemver.GreaterThan(oldSemver)
}

// Changed reports whether two plugin versions differ. Semver strings that
// only differ in formatting, such as "v1.2.0" and "1.2.0", are equal.
func Changed(oldVersion, newVersion string) bool {
	oldSemver, errOld := semver.NewVersion(oldVersion)
	newSemver, errNew := semver.NewVersion(newVersion)
	if errOld != nil || errNew != nil {
		return oldVersion != newVersion
	}
	return !oldSemver.Equal(newSemver)
}

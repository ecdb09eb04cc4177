package domain

import (
	"strings"

	"golang.org/x/mod/semver"
)

// IsNewerVersion compares two version strings and returns true if candidate
// is newer than current. Falls back to string comparison when either side is
// not valid semver.
func IsNewerVersion(current, candidate string) bool {
	cur := normalizeVersion(current)
	cand := normalizeVersion(candidate)

	if semver.IsValid(cur) && semver.IsValid(cand) {
		return semver.Compare(cand, cur) > 0
	}

	return candidate > current
}

// normalizeVersion ensures the version has a 'v' prefix for semver compatibility.
func normalizeVersion(version string) string {
	version = strings.TrimSpace(version)
	if strings.HasPrefix(version, "v") {
		return version
	}
	return "v" + version
}

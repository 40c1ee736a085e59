package predicate

import (
	"strings"

	"golang.org/x/mod/semver"
)

// Value predicates for the *Matching clauses.

// OneOf matches any of the given values exactly.
func OneOf(values ...string) func(string) bool {
	return func(v string) bool {
		for _, want := range values {
			if v == want {
				return true
			}
		}
		return false
	}
}

// EqualFold matches want ignoring ASCII and Unicode case.
func EqualFold(want string) func(string) bool {
	return func(v string) bool { return strings.EqualFold(v, want) }
}

// VersionAtLeast matches semantic versions greater than or equal to min.
// A leading "v" is optional on both sides; invalid versions never match.
//
//	ContainsHeaderMatching("X-Api-Version", VersionAtLeast("1.2"))
func VersionAtLeast(min string) func(string) bool {
	floor := canonicalVersion(min)
	if !semver.IsValid(floor) {
		panic("predicate: invalid minimum version " + min)
	}
	return func(v string) bool {
		v = canonicalVersion(v)
		return semver.IsValid(v) && semver.Compare(v, floor) >= 0
	}
}

// VersionMajor matches semantic versions whose major component equals
// major, e.g. VersionMajor("v2") matches "2.4.1" and "v2".
func VersionMajor(major string) func(string) bool {
	want := canonicalVersion(major)
	return func(v string) bool {
		v = canonicalVersion(v)
		return semver.IsValid(v) && semver.Major(v) == semver.Major(want)
	}
}

func canonicalVersion(v string) string {
	v = strings.TrimSpace(v)
	if v != "" && !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

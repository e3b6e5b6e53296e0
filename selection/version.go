package selection

import "regexp"

var (
	reMajorOnly  = regexp.MustCompile(`^\d+$`)
	reMajorMinor = regexp.MustCompile(`^(\d+\.\d+)([+-].*)?$`)
)

// NormalizeVersion canonicalizes a partial client-supplied app-version
// string into a full three-segment form so it can be used in a semver
// range comparison. Empty input is returned unchanged.
func NormalizeVersion(input string) string {
	if input == "" {
		return input
	}
	if reMajorOnly.MatchString(input) {
		return input + ".0.0"
	}
	if m := reMajorMinor.FindStringSubmatch(input); m != nil {
		return m[1] + ".0" + m[2]
	}
	return input
}

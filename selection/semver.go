package selection

import "github.com/Masterminds/semver/v3"

// satisfiesRange reports whether version satisfies the given semver range
// (or exact version). A malformed version or range is treated as
// non-satisfying rather than propagated as an error — the engine should
// degrade to "does not apply", not fail the request.
func satisfiesRange(version, rng string) bool {
	if version == "" || rng == "" {
		return false
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return false
	}
	c, err := semver.NewConstraint(rng)
	if err != nil {
		return false
	}
	return c.Check(v)
}

// AppVersionRangeWellFormed reports whether rng parses as a semver
// constraint at all, independent of any particular request version. The
// cacheable-response builder uses it to drop releases that could never
// match any request.
func AppVersionRangeWellFormed(rng string) bool {
	if rng == "" {
		return false
	}
	_, err := semver.NewConstraint(rng)
	return err == nil
}

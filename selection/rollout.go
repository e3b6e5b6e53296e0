package selection

import (
	"math"
	"time"
)

// stringHash is the 32-bit signed recurrence h = (h<<5) - h + c with
// wraparound on overflow. It determines rollout cohort membership, so it
// must stay bit-exact; widening to 64 bits would re-shuffle every
// in-progress rollout.
func stringHash(s string) int32 {
	var h int32
	for _, r := range s {
		h = (h << 5) - h + int32(r)
	}
	return h
}

// IsSelectedForRollout deterministically decides whether clientID falls
// inside the rollout cohort for releaseTag at the given percentage.
func IsSelectedForRollout(clientID string, rollout float64, releaseTag string) bool {
	h := stringHash(clientID + "-" + releaseTag)
	abs := int64(h)
	if abs < 0 {
		abs = -abs
	}
	return float64(abs%100) < rollout
}

// IsUnfinishedRollout reports whether r names an in-progress rollout
// (present and not yet at 100).
func IsUnfinishedRollout(r *int) bool {
	return r != nil && *r != 100
}

// RolloutParams are the time-ramp inputs for a single release.
type RolloutParams struct {
	Rollout                    *int
	RolloutHoldDurationMinutes *int
	RolloutRampDurationMinutes *int
	RolloutUploadTime          *time.Time
}

// EffectiveRollout computes the time-ramped effective rollout percentage
// for a release at instant now: the base percentage through the hold
// window, then a linear ramp to 100 over the ramp window.
func EffectiveRollout(p RolloutParams, now time.Time) float64 {
	if p.Rollout == nil {
		return 100
	}
	if !IsUnfinishedRollout(p.Rollout) {
		return float64(*p.Rollout)
	}

	base := float64(*p.Rollout)

	if p.RolloutUploadTime == nil {
		return base
	}

	holdMs := int64(0)
	if p.RolloutHoldDurationMinutes != nil {
		holdMs = int64(*p.RolloutHoldDurationMinutes) * 60_000
	}
	rampMs := int64(0)
	if p.RolloutRampDurationMinutes != nil {
		rampMs = int64(*p.RolloutRampDurationMinutes) * 60_000
	}

	elapsed := now.Sub(*p.RolloutUploadTime).Milliseconds()

	if (holdMs > 0 && elapsed < holdMs) || (holdMs == 0 && elapsed < 0) {
		return base
	}
	if rampMs <= 0 {
		return base
	}

	progress := float64(elapsed-holdMs) / float64(rampMs)
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}

	computed := base + (100-base)*progress
	rounded := math.Round(computed*1000) / 1000

	if rounded < base {
		rounded = base
	}
	if rounded > 100 {
		rounded = 100
	}
	return rounded
}

// RolloutTag picks the randomness-input tag for cohort hashing: the
// release label, falling back to its package hash. A release with
// neither is effectively not rollout-gated.
func RolloutTag(label, packageHash string) string {
	if label != "" {
		return label
	}
	return packageHash
}

package selection

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/blitzstudios/code-push-server/utils"
)

func TestStringHashFixedPoints(t *testing.T) {
	// Cohort membership depends on these exact values; if one of them
	// moves, every in-progress rollout re-shuffles.
	cases := map[string]int32{
		"":              0,
		"a":             97,
		"abc":           96354,
		"c1-v2":         92935291,
		"hello world":   1794106052,
		"client-42-v17": 1574926735,
	}
	for in, want := range cases {
		assert.Equal(t, want, stringHash(in), "stringHash(%q)", in)
	}
}

func TestIsSelectedForRollout(t *testing.T) {
	// abs(hash("c1-v2")) % 100 == 91, abs(hash("clientA-v2")) % 100 == 27
	assert.False(t, IsSelectedForRollout("c1", 50, "v2"))
	assert.True(t, IsSelectedForRollout("clientA", 50, "v2"))
	assert.True(t, IsSelectedForRollout("c1", 100, "v2"))
	assert.False(t, IsSelectedForRollout("clientA", 0, "v2"))
}

func TestIsSelectedForRolloutDeterministic(t *testing.T) {
	for i := 0; i < 100; i++ {
		id := fmt.Sprintf("client-%d", i)
		first := IsSelectedForRollout(id, 37, "v9")
		for j := 0; j < 5; j++ {
			assert.Equal(t, first, IsSelectedForRollout(id, 37, "v9"))
		}
	}
}

func TestIsSelectedForRolloutConvergence(t *testing.T) {
	const n = 10000
	selected := 0
	for i := 0; i < n; i++ {
		if IsSelectedForRollout(fmt.Sprintf("client-%d", i), 25, "v2") {
			selected++
		}
	}
	assert.InDelta(t, 0.25, float64(selected)/n, 0.02)
}

func TestIsUnfinishedRollout(t *testing.T) {
	assert.False(t, IsUnfinishedRollout(nil))
	assert.False(t, IsUnfinishedRollout(utils.Ptr(100)))
	assert.True(t, IsUnfinishedRollout(utils.Ptr(50)))
}

func TestEffectiveRollout(t *testing.T) {
	upload := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	base, hundred := 20, 100
	hold, ramp := 60, 100

	tests := []struct {
		name string
		p    RolloutParams
		now  time.Time
		want float64
	}{
		{"absent rollout", RolloutParams{}, upload, 100},
		{"finished rollout", RolloutParams{Rollout: &hundred}, upload, 100},
		{"no upload time", RolloutParams{Rollout: &base}, upload, 20},
		{
			"within hold window",
			RolloutParams{Rollout: &base, RolloutHoldDurationMinutes: &hold, RolloutRampDurationMinutes: &ramp, RolloutUploadTime: &upload},
			upload.Add(30 * time.Minute),
			20,
		},
		{
			"no ramp configured",
			RolloutParams{Rollout: &base, RolloutHoldDurationMinutes: &hold, RolloutUploadTime: &upload},
			upload.Add(90 * time.Minute),
			20,
		},
		{
			"mid ramp",
			RolloutParams{Rollout: &base, RolloutHoldDurationMinutes: &hold, RolloutRampDurationMinutes: &ramp, RolloutUploadTime: &upload},
			upload.Add(110 * time.Minute),
			60,
		},
		{
			"past ramp",
			RolloutParams{Rollout: &base, RolloutHoldDurationMinutes: &hold, RolloutRampDurationMinutes: &ramp, RolloutUploadTime: &upload},
			upload.Add(10 * time.Hour),
			100,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, EffectiveRollout(tt.p, tt.now), 0.0005)
		})
	}
}

func TestEffectiveRolloutMonotonic(t *testing.T) {
	upload := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	base, hold, ramp := 10, 30, 120
	p := RolloutParams{
		Rollout:                    &base,
		RolloutHoldDurationMinutes: &hold,
		RolloutRampDurationMinutes: &ramp,
		RolloutUploadTime:          &upload,
	}

	prev := 0.0
	for m := 0; m <= 200; m += 5 {
		got := EffectiveRollout(p, upload.Add(time.Duration(m)*time.Minute))
		assert.GreaterOrEqual(t, got, prev, "at minute %d", m)
		assert.GreaterOrEqual(t, got, float64(base))
		assert.LessOrEqual(t, got, 100.0)
		prev = got
	}
	assert.Equal(t, 100.0, prev)
}

func TestRolloutTag(t *testing.T) {
	assert.Equal(t, "v3", RolloutTag("v3", "H3"))
	assert.Equal(t, "H3", RolloutTag("", "H3"))
	assert.Equal(t, "", RolloutTag("", ""))
}

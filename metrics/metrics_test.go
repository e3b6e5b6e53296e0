package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitField(t *testing.T) {
	tests := []struct {
		in     string
		label  string
		status string
		ok     bool
	}{
		{"v17:Active", "v17", "Active", true},
		{"v17:DeploymentSucceeded", "v17", "DeploymentSucceeded", true},
		// labels may themselves contain colons; the status is always the
		// last segment
		{"a:b:Downloaded", "a:b", "Downloaded", true},
		{"nodelimiter", "", "", false},
	}
	for _, tt := range tests {
		label, status, ok := splitField(tt.in)
		assert.Equal(t, tt.ok, ok, "splitField(%q)", tt.in)
		assert.Equal(t, tt.label, label)
		assert.Equal(t, tt.status, status)
	}
}

func TestDisabledStoreIsInert(t *testing.T) {
	s := New(nil)
	ctx := context.Background()

	assert.False(t, s.Enabled())
	assert.NotPanics(t, func() {
		s.IncrementLabelStatusCount(ctx, "D", "v1", StatusDownloaded)
		s.RecordUpdate(ctx, "D", "v2", "D", "v1")
		s.UpdateActiveAppForClient(ctx, "D", "c1", "v2", "v1")
		s.RemoveDeploymentKeyClientActiveLabel(ctx, "D", "c1")
	})

	label, ok := s.GetCurrentActiveLabel(ctx, "D", "c1")
	assert.False(t, ok)
	assert.Empty(t, label)

	assert.Nil(t, s.GetMetricsWithDeploymentKey(ctx, "D"))
	assert.NoError(t, s.ClearMetricsForDeploymentKey(ctx, "D"))
}

func TestKeyLayout(t *testing.T) {
	assert.Equal(t, "deploymentKeyLabels:D1", labelsKey("D1"))
	assert.Equal(t, "deploymentKeyClients:D1", clientsKey("D1"))
	assert.Equal(t, "v17:Downloaded", field("v17", StatusDownloaded))
}

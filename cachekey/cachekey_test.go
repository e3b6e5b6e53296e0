package cachekey

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildDropsClientIdentifyingFields(t *testing.T) {
	base, err := Build("/updateCheck?deploymentKey=D1&appVersion=1.0.0", "v2")
	assert.NoError(t, err)

	variants := []string{
		"/updateCheck?deploymentKey=D1&appVersion=1.0.0&clientUniqueId=c1",
		"/updateCheck?deploymentKey=D1&appVersion=1.0.0&client_unique_id=c2",
		"/updateCheck?deploymentKey=D1&appVersion=1.0.0&beta=true",
		"/updateCheck?deploymentKey=D1&appVersion=1.0.0&packageHash=H1",
		"/updateCheck?deploymentKey=D1&appVersion=1.0.0&package_hash=H2",
		"/updateCheck?deploymentKey=D1&appVersion=1.0.0&label=v17",
	}
	for _, u := range variants {
		got, err := Build(u, "v2")
		assert.NoError(t, err)
		assert.Equal(t, base, got, "url %s", u)
	}
}

func TestBuildNormalizesAppVersion(t *testing.T) {
	short, err := Build("/updateCheck?deploymentKey=D1&appVersion=2", "v2")
	assert.NoError(t, err)
	full, err := Build("/updateCheck?deploymentKey=D1&appVersion=2.0.0", "v2")
	assert.NoError(t, err)
	assert.Equal(t, full, short)

	snake, err := Build("/updateCheck?deploymentKey=D1&app_version=2", "v2")
	assert.NoError(t, err)
	snakeFull, err := Build("/updateCheck?deploymentKey=D1&app_version=2.0.0", "v2")
	assert.NoError(t, err)
	assert.Equal(t, snakeFull, snake)
}

func TestBuildSchemaBumpChangesKey(t *testing.T) {
	v2, err := Build("/updateCheck?deploymentKey=D1&appVersion=1.0.0", "v2")
	assert.NoError(t, err)
	v3, err := Build("/updateCheck?deploymentKey=D1&appVersion=1.0.0", "v3")
	assert.NoError(t, err)
	assert.NotEqual(t, v2, v3)
}

func TestBuildIsDeterministic(t *testing.T) {
	const u = "/updateCheck?deploymentKey=D1&appVersion=1.2&isCompanion=true"
	first, err := Build(u, "v2")
	assert.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Build(u, "v2")
		assert.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestBuildDeploymentKeySelects(t *testing.T) {
	a, err := Build("/updateCheck?deploymentKey=D1&appVersion=1.0.0", "v2")
	assert.NoError(t, err)
	b, err := Build("/updateCheck?deploymentKey=D2&appVersion=1.0.0", "v2")
	assert.NoError(t, err)
	assert.NotEqual(t, a, b)
}

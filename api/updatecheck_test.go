package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blitzstudios/code-push-server/cache"
	"github.com/blitzstudios/code-push-server/config"
	"github.com/blitzstudios/code-push-server/database/dbcore"
	"github.com/blitzstudios/code-push-server/database/releases"
	"github.com/blitzstudios/code-push-server/metrics"
	"github.com/blitzstudios/code-push-server/selection"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := dbcore.Init("sqlite", "file::memory:?cache=shared"); err != nil {
		panic(err)
	}
	if err := releases.Migrate(dbcore.GetDBInstance()); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// newTestRouter wires a Server with disabled caches and metrics so
// handler behavior is exercised straight against storage.
func newTestRouter() *gin.Engine {
	cfg := &config.Config{CacheSchemaVersion: "v2"}
	s := NewServer(cfg, cache.NewResponseCache(nil), cache.NewDiffMapCache(nil), metrics.New(nil))
	router := gin.New()
	s.RegisterRoutes(router)
	return router
}

func doGET(t *testing.T, router *gin.Engine, url string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req, _ := http.NewRequest("GET", url, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var body map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func TestUpdateCheckValidation(t *testing.T) {
	router := newTestRouter()

	tests := []struct {
		name string
		url  string
	}{
		{"missing deploymentKey", "/updateCheck?appVersion=1.0.0"},
		{"missing appVersion", "/updateCheck?deploymentKey=dep-missing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := doGET(t, router, tt.url)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "error", body["status"])
		})
	}
}

func TestUpdateCheckEmptyHistory(t *testing.T) {
	router := newTestRouter()

	w, body := doGET(t, router, "/updateCheck?deploymentKey=dep-empty&appVersion=1.0.0&clientUniqueId=c1")
	assert.Equal(t, http.StatusOK, w.Code)

	info := body["updateInfo"].(map[string]any)
	assert.Equal(t, false, info["isAvailable"])
	assert.Equal(t, "1.0.0", info["appVersion"])
	assert.Equal(t, "1.0.0", info["target_binary_range"])
}

func TestUpdateCheckLegacyShape(t *testing.T) {
	require.NoError(t, releases.CommitRelease("dep-legacy", selection.Release{
		Label:       "v1",
		AppVersion:  "1.0.0",
		PackageHash: "H1",
		BlobURL:     "https://blob.example.com/v1.zip",
		Size:        1234,
	}))
	router := newTestRouter()

	w, body := doGET(t, router, "/updateCheck?deploymentKey=dep-legacy&appVersion=1.0.0&clientUniqueId=c1")
	assert.Equal(t, http.StatusOK, w.Code)

	info := body["updateInfo"].(map[string]any)
	assert.Equal(t, true, info["isAvailable"])
	assert.Equal(t, "v1", info["label"])
	assert.Equal(t, "H1", info["packageHash"])
	assert.Equal(t, "https://blob.example.com/v1.zip", info["downloadURL"])
	assert.Equal(t, float64(1234), info["packageSize"])
}

func TestUpdateCheckAlreadyCurrent(t *testing.T) {
	require.NoError(t, releases.CommitRelease("dep-current", selection.Release{
		Label:       "v1",
		AppVersion:  "1.0.0",
		PackageHash: "H1",
		BlobURL:     "https://blob.example.com/v1.zip",
		Size:        1234,
	}))
	router := newTestRouter()

	w, body := doGET(t, router, "/updateCheck?deploymentKey=dep-current&appVersion=1.0.0&packageHash=H1&clientUniqueId=c1")
	assert.Equal(t, http.StatusOK, w.Code)

	info := body["updateInfo"].(map[string]any)
	assert.Equal(t, false, info["isAvailable"])
}

func TestUpdateCheckNewShape(t *testing.T) {
	require.NoError(t, releases.CommitRelease("dep-new", selection.Release{
		Label:       "v1",
		AppVersion:  "1.0.0",
		PackageHash: "H1",
		BlobURL:     "https://blob.example.com/v1.zip",
		Size:        1234,
	}))
	router := newTestRouter()

	// snake_case query fields on the new path
	w, body := doGET(t, router, "/v0.1/public/codepush/update_check?deployment_key=dep-new&app_version=1.0.0&client_unique_id=c1")
	assert.Equal(t, http.StatusOK, w.Code)

	info := body["update_info"].(map[string]any)
	assert.Equal(t, true, info["is_available"])
	assert.Equal(t, "v1", info["label"])
	assert.Equal(t, "H1", info["package_hash"])
	assert.Equal(t, "https://blob.example.com/v1.zip", info["download_url"])
}

func TestUpdateCheckPartialAppVersionNormalized(t *testing.T) {
	require.NoError(t, releases.CommitRelease("dep-partial", selection.Release{
		Label:       "v1",
		AppVersion:  "1.0.0",
		PackageHash: "H1",
		BlobURL:     "https://blob.example.com/v1.zip",
		Size:        1234,
	}))
	router := newTestRouter()

	// appVersion "1" normalizes to "1.0.0" for range matching, but the
	// raw form is echoed back
	w, body := doGET(t, router, "/updateCheck?deploymentKey=dep-partial&appVersion=1&clientUniqueId=c1")
	assert.Equal(t, http.StatusOK, w.Code)

	info := body["updateInfo"].(map[string]any)
	assert.Equal(t, true, info["isAvailable"])
	assert.Equal(t, "1", info["appVersion"])
}

func TestUpdateCheckProxyRewrite(t *testing.T) {
	require.NoError(t, releases.CommitRelease("dep-proxy", selection.Release{
		Label:       "v1",
		AppVersion:  "1.0.0",
		PackageHash: "H1",
		BlobURL:     "https://blob.example.com/bundles/v1.zip",
		Size:        1234,
	}))

	cfg := &config.Config{CacheSchemaVersion: "v2", UpdateCheckProxyURL: "https://proxy.example.net"}
	s := NewServer(cfg, cache.NewResponseCache(nil), cache.NewDiffMapCache(nil), metrics.New(nil))
	router := gin.New()
	s.RegisterRoutes(router)

	w, body := doGET(t, router, "/updateCheck?deploymentKey=dep-proxy&appVersion=1.0.0&clientUniqueId=c1")
	assert.Equal(t, http.StatusOK, w.Code)

	info := body["updateInfo"].(map[string]any)
	assert.Equal(t, "https://proxy.example.net/bundles/v1.zip", info["downloadURL"])
}

func TestUpdateCheckMicrocacheServesRepeat(t *testing.T) {
	require.NoError(t, releases.CommitRelease("dep-micro", selection.Release{
		Label:       "v1",
		AppVersion:  "1.0.0",
		PackageHash: "H1",
		BlobURL:     "https://blob.example.com/v1.zip",
		Size:        1234,
	}))

	cfg := &config.Config{CacheSchemaVersion: "v2", UpdateCheckMemTTL: 30 * time.Second}
	s := NewServer(cfg, cache.NewResponseCache(nil), cache.NewDiffMapCache(nil), metrics.New(nil))
	router := gin.New()
	s.RegisterRoutes(router)

	const u = "/updateCheck?deploymentKey=dep-micro&appVersion=1.0.0&clientUniqueId=c1"
	_, first := doGET(t, router, u)

	// commit a newer release; the microcached body should still answer
	// with the old one until its TTL lapses
	require.NoError(t, releases.CommitRelease("dep-micro", selection.Release{
		Label:       "v2",
		AppVersion:  "1.0.0",
		PackageHash: "H2",
		BlobURL:     "https://blob.example.com/v2.zip",
		Size:        5678,
	}))
	_, second := doGET(t, router, u)

	assert.Equal(t, first["updateInfo"], second["updateInfo"])
}

package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/blitzstudios/code-push-server/cache"
	"github.com/blitzstudios/code-push-server/cachekey"
	"github.com/blitzstudios/code-push-server/database/releases"
	"github.com/blitzstudios/code-push-server/selection"
)

type cacheableBody struct {
	Releases []selection.Release `json:"releases"`
}

// handleUpdateCheck implements the tiered read path for both the legacy
// and new wire shapes: microcache, then distributed cache, then storage,
// with write-back sequenced after the response is sent.
func (s *Server) handleUpdateCheck(legacy bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		deploymentKey := queryDual(c, "deploymentKey", "deployment_key")
		rawAppVersion := queryDual(c, "appVersion", "app_version")
		if deploymentKey == "" || rawAppVersion == "" {
			RespondError(c, http.StatusBadRequest, "deploymentKey and appVersion are required")
			return
		}

		req := selection.CheckRequest{
			ClientUniqueID:       queryDual(c, "clientUniqueId", "client_unique_id"),
			BetaRequested:        boolDual(c, "beta", "beta"),
			RequestLabel:         queryDual(c, "label", "label"),
			RequestPackageHash:   queryDual(c, "packageHash", "package_hash"),
			RawAppVersion:        rawAppVersion,
			NormalizedAppVersion: selection.NormalizeVersion(rawAppVersion),
			RequestIsCompanion:   boolDual(c, "isCompanion", "is_companion"),
		}

		distributedKey := deploymentKey
		urlKey, err := cachekey.Build(c.Request.URL.String(), s.cfg.CacheSchemaVersion)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "malformed request url")
			return
		}
		memKey := distributedKey + "|" + urlKey

		ctx := c.Request.Context()
		diffMapFetcher := s.buildDiffMapFetcher(ctx, deploymentKey)
		now := nowFunc()

		if cached, ok := s.updateCheckMicro.Get(memKey); ok {
			body := cached.(cacheableBody)
			s.respondUpdateCheck(c, legacy, body, req, diffMapFetcher, now)
			slog.Debug("update check served", "deploymentKey", deploymentKey, "tier", "micro")
			return
		}

		var body cacheableBody
		fromStorage := false

		if entry, ok := s.responseCache.Get(ctx, distributedKey, urlKey); ok {
			if err := json.Unmarshal(entry.Body, &body); err != nil {
				slog.Warn("cached response body unmarshal failed", "error", err)
				fromStorage = true
			}
		} else {
			fromStorage = true
		}

		if fromStorage {
			history, err := releases.GetPackageHistoryFromDeploymentKey(deploymentKey)
			if err != nil {
				RespondError(c, http.StatusInternalServerError, "failed to load release history")
				return
			}
			body = buildCacheableResponse(ctx, history, deploymentKey, s.diffMapCache)
		}

		s.respondUpdateCheck(c, legacy, body, req, diffMapFetcher, now)
		tier := "distributed"
		if fromStorage {
			tier = "storage"
		}
		slog.Debug("update check served", "deploymentKey", deploymentKey, "tier", tier)

		s.updateCheckMicro.Set(memKey, body)
		if fromStorage {
			if payload, err := json.Marshal(body); err != nil {
				slog.Warn("cacheable response marshal failed", "error", err)
			} else {
				s.responseCache.Set(ctx, distributedKey, urlKey, cache.CachedResponse{StatusCode: http.StatusOK, Body: payload})
			}
		}
	}
}

// respondUpdateCheck runs the selection engine over body and writes the
// serialized answer, in the legacy or new wire shape.
func (s *Server) respondUpdateCheck(c *gin.Context, legacy bool, body cacheableBody, req selection.CheckRequest, diffMapFetcher selection.DiffMapFetcher, now time.Time) {
	resp := selection.SelectUpdate(body.Releases, req, diffMapFetcher, now)
	resp.DownloadURL = selection.RewriteDownloadURL(resp.DownloadURL, s.cfg.UpdateCheckProxyURL)

	if legacy {
		c.JSON(http.StatusOK, gin.H{"updateInfo": toLegacy(resp)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"update_info": toNew(resp)})
}

// buildDiffMapFetcher closes over deploymentKey and returns a fetcher
// that consults the process-local diff-map microcache before falling
// back to the distributed diff-map cache, memoizing the result.
func (s *Server) buildDiffMapFetcher(ctx context.Context, deploymentKey string) selection.DiffMapFetcher {
	return func(targetPackageHash string) (map[string]selection.DiffEntry, error) {
		// s.diffMapMicro is shared across deployments; the same bundle
		// hash promoted to two deployments must not share an entry.
		memKey := deploymentKey + ":" + targetPackageHash
		if cached, ok := s.diffMapMicro.Get(memKey); ok {
			return cached.(map[string]selection.DiffEntry), nil
		}
		m, ok := s.diffMapCache.Get(ctx, deploymentKey, targetPackageHash)
		if !ok {
			m = map[string]selection.DiffEntry{}
		}
		s.diffMapMicro.Set(memKey, m)
		return m, nil
	}
}

// buildCacheableResponse filters history to the shape stored verbatim in
// the distributed cache, priming the diff-map cache for every release
// that carries one.
func buildCacheableResponse(ctx context.Context, history []selection.Release, deploymentKey string, diffMapCache *cache.DiffMapCache) cacheableBody {
	out := make([]selection.Release, 0, len(history))
	for _, r := range history {
		if !selection.AppVersionRangeWellFormed(r.AppVersion) {
			continue
		}
		out = append(out, r)
		if len(r.DiffPackageMap) > 0 {
			diffMapCache.Set(ctx, deploymentKey, r.PackageHash, r.DiffPackageMap)
		}
	}
	return cacheableBody{Releases: out}
}

package cache

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/blitzstudios/code-push-server/selection"
)

const (
	responseCacheTTL = time.Hour
	diffMapCacheTTL  = 5 * time.Minute
)

// CachedResponse is the distributed-cache-stored shape of an update-check
// answer, pre-selection: a status code and the filtered release list.
type CachedResponse struct {
	StatusCode int             `json:"statusCode"`
	Body       json.RawMessage `json:"body"`
}

// ResponseCache is the ops-namespace distributed response cache, keyed by
// deployment and field-addressed by canonical URL. A nil underlying
// client puts it in the disabled state: every operation is then a
// no-op/miss, never an error.
type ResponseCache struct {
	client *redis.Client
}

// NewResponseCache wraps client. Passing nil yields a disabled cache.
func NewResponseCache(client *redis.Client) *ResponseCache {
	return &ResponseCache{client: client}
}

func (c *ResponseCache) Enabled() bool { return c.client != nil }

// Ping reports whether the underlying connection is reachable, for the
// health endpoint.
func (c *ResponseCache) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

// Get looks up urlKey in the hash for deploymentKeyHash. Any I/O error is
// logged and treated as a miss — cache errors are never surfaced to
// request handling.
func (c *ResponseCache) Get(ctx context.Context, deploymentKeyHash, urlKey string) (*CachedResponse, bool) {
	if !c.Enabled() {
		return nil, false
	}
	raw, err := c.client.HGet(ctx, responseCacheKey(deploymentKeyHash), urlKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("response cache read failed", "error", err)
		}
		return nil, false
	}
	var resp CachedResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		slog.Warn("response cache entry unmarshal failed", "error", err)
		return nil, false
	}
	return &resp, true
}

// Set writes resp into the hash for deploymentKeyHash under urlKey. The
// first write to a key sets a one-hour TTL; later writes before expiry
// extend nothing. Write errors are logged and swallowed — the request has
// already been answered.
func (c *ResponseCache) Set(ctx context.Context, deploymentKeyHash, urlKey string, resp CachedResponse) {
	if !c.Enabled() {
		return
	}
	payload, err := json.Marshal(resp)
	if err != nil {
		slog.Warn("response cache entry marshal failed", "error", err)
		return
	}
	key := responseCacheKey(deploymentKeyHash)
	if err := c.client.HSet(ctx, key, urlKey, payload).Err(); err != nil {
		slog.Warn("response cache write failed", "error", err)
		return
	}
	if ttl, err := c.client.TTL(ctx, key).Result(); err == nil && ttl < 0 {
		if err := c.client.Expire(ctx, key, responseCacheTTL).Err(); err != nil {
			slog.Warn("response cache ttl set failed", "error", err)
		}
	}
}

// Invalidate deletes every cached entry for deploymentKeyHash. Called by
// the management surface when it mutates a deployment.
func (c *ResponseCache) Invalidate(ctx context.Context, deploymentKeyHash string) error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Del(ctx, responseCacheKey(deploymentKeyHash)).Err()
}

func responseCacheKey(deploymentKeyHash string) string {
	return "deploymentKey:" + deploymentKeyHash
}

// DiffMapCache is the per-release diff-map sub-cache keyed by
// (deploymentKey, targetPackageHash), with its own medium TTL so
// selection runs can hydrate diff payloads without reloading full
// release history.
type DiffMapCache struct {
	client *redis.Client
}

func NewDiffMapCache(client *redis.Client) *DiffMapCache {
	return &DiffMapCache{client: client}
}

func (c *DiffMapCache) Enabled() bool { return c.client != nil }

// Get returns the diff map for (deploymentKeyHash, packageHash), or a
// miss. Never raises to callers.
func (c *DiffMapCache) Get(ctx context.Context, deploymentKeyHash, packageHash string) (map[string]selection.DiffEntry, bool) {
	if !c.Enabled() {
		return nil, false
	}
	raw, err := c.client.Get(ctx, diffMapKey(deploymentKeyHash, packageHash)).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("diff map cache read failed", "error", err)
		}
		return nil, false
	}
	var m map[string]selection.DiffEntry
	if err := json.Unmarshal(raw, &m); err != nil {
		slog.Warn("diff map cache entry unmarshal failed", "error", err)
		return nil, false
	}
	return m, true
}

// Set populates the diff map for (deploymentKeyHash, packageHash) with a
// medium TTL. Called by the management surface on release commit, and by
// the cacheable-response builder for every release with a non-empty diff
// map.
func (c *DiffMapCache) Set(ctx context.Context, deploymentKeyHash, packageHash string, m map[string]selection.DiffEntry) {
	if !c.Enabled() || len(m) == 0 {
		return
	}
	payload, err := json.Marshal(m)
	if err != nil {
		slog.Warn("diff map cache entry marshal failed", "error", err)
		return
	}
	if err := c.client.Set(ctx, diffMapKey(deploymentKeyHash, packageHash), payload, diffMapCacheTTL).Err(); err != nil {
		slog.Warn("diff map cache write failed", "error", err)
	}
}

func diffMapKey(deploymentKeyHash, packageHash string) string {
	return "diffMap:" + deploymentKeyHash + ":" + packageHash
}

// NewRedisClient builds the shared connection for a given logical
// database index. Host/port/key come from config; TLS is on with strict
// CA verification when enabled. opTimeout bounds each command so a slow
// store degrades instead of stalling handlers.
func NewRedisClient(host, port, password string, db int, tlsEnabled bool, opTimeout time.Duration) *redis.Client {
	opts := &redis.Options{
		Addr:         host + ":" + port,
		Password:     password,
		DB:           db,
		ReadTimeout:  opTimeout,
		WriteTimeout: opTimeout,
	}
	if tlsEnabled {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return redis.NewClient(opts)
}

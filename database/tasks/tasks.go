// Package tasks runs the background maintenance schedule: a periodic
// re-prime of the distributed diff-map cache for deployments that
// committed releases recently, keeping diff lookups warm across the
// cache's TTL.
package tasks

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/blitzstudios/code-push-server/cache"
	"github.com/blitzstudios/code-push-server/database/releases"
)

var (
	taskCron   *cron.Cron
	taskCronMu sync.Mutex
)

// StartSchedule 注册并启动后台任务调度器，重复调用会替换旧调度器
func StartSchedule(diffMapCache *cache.DiffMapCache) {
	taskCronMu.Lock()
	defer taskCronMu.Unlock()

	if taskCron != nil {
		taskCron.Stop()
	}
	c := cron.New()

	if _, err := c.AddFunc("@every 4m", func() {
		reprimeDiffMaps(diffMapCache)
	}); err != nil {
		slog.Warn("failed to register diff map reprime task", "error", err)
	}

	c.Start()
	taskCron = c
}

// StopSchedule 停止调度器
func StopSchedule() {
	taskCronMu.Lock()
	defer taskCronMu.Unlock()
	if taskCron != nil {
		taskCron.Stop()
		taskCron = nil
	}
}

// reprimeDiffMaps rewrites the diff map of every recently committed
// release into the distributed cache before its TTL lapses, so
// update-check finalization rarely falls back to the full bundle.
func reprimeDiffMaps(diffMapCache *cache.DiffMapCache) {
	if !diffMapCache.Enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	recent, err := releases.GetRecentDiffPackageMaps(time.Now().Add(-24 * time.Hour))
	if err != nil {
		slog.Warn("diff map reprime query failed", "error", err)
		return
	}
	for _, r := range recent {
		diffMapCache.Set(ctx, r.DeploymentKey, r.PackageHash, r.DiffPackageMap)
	}
}

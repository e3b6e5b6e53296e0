package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/blitzstudios/code-push-server/api"
	"github.com/blitzstudios/code-push-server/cache"
	"github.com/blitzstudios/code-push-server/config"
	"github.com/blitzstudios/code-push-server/database/dbcore"
	"github.com/blitzstudios/code-push-server/database/releases"
	"github.com/blitzstudios/code-push-server/database/tasks"
	"github.com/blitzstudios/code-push-server/metrics"
	"github.com/blitzstudios/code-push-server/utils"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the acquisition HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err := dbcore.Init(cfg.DBDriver, cfg.DBDSN); err != nil {
		return err
	}
	if err := releases.Migrate(dbcore.GetDBInstance()); err != nil {
		return err
	}

	responseCache, diffMapCache, metricsStore := buildCaches(cfg)

	gin.SetMode(gin.ReleaseMode)
	if utils.VersionHash == "unknown" {
		gin.SetMode(gin.DebugMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery(), api.RequestID())

	if diffMapCache.Enabled() {
		tasks.StartSchedule(diffMapCache)
		defer tasks.StopSchedule()
	}

	server := api.NewServer(cfg, responseCache, diffMapCache, metricsStore)
	server.RegisterRoutes(engine)

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("acquisition service listening", "addr", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// buildCaches wires the distributed cache clients from config, leaving
// them in the disabled nil-client state when Redis isn't configured.
func buildCaches(cfg *config.Config) (*cache.ResponseCache, *cache.DiffMapCache, *metrics.Store) {
	if !cfg.RedisEnabled() {
		return cache.NewResponseCache(nil), cache.NewDiffMapCache(nil), metrics.New(nil)
	}

	opsClient := cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisKey, cfg.RedisOpsDB, cfg.RedisTLS, cfg.RedisOpTimeout)
	metricsClient := cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisKey, cfg.RedisMetricsDB, cfg.RedisTLS, cfg.RedisOpTimeout)

	return cache.NewResponseCache(opsClient), cache.NewDiffMapCache(opsClient), metrics.New(metricsClient)
}

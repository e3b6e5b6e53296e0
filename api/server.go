package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/blitzstudios/code-push-server/cache"
	"github.com/blitzstudios/code-push-server/config"
	"github.com/blitzstudios/code-push-server/metrics"
)

// Server holds every dependency the acquisition handlers need: the two
// cache tiers, the metrics store, and config-derived tunables.
type Server struct {
	cfg *config.Config

	responseCache *cache.ResponseCache
	diffMapCache  *cache.DiffMapCache

	updateCheckMicro *cache.Microcache
	diffMapMicro     *cache.Microcache

	metrics *metrics.Store
}

// NewServer wires a Server from already-constructed dependencies.
func NewServer(cfg *config.Config, responseCache *cache.ResponseCache, diffMapCache *cache.DiffMapCache, metricsStore *metrics.Store) *Server {
	return &Server{
		cfg:              cfg,
		responseCache:    responseCache,
		diffMapCache:     diffMapCache,
		updateCheckMicro: cache.NewMicrocache(cfg.UpdateCheckMemTTL),
		diffMapMicro:     cache.NewMicrocache(cfg.DiffPackageMemTTL),
		metrics:          metricsStore,
	}
}

// RegisterRoutes mounts the acquisition endpoints onto r, each in its
// legacy and new-path form.
func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.handleHealth)

	r.GET("/updateCheck", s.handleUpdateCheck(true))
	r.GET("/v0.1/public/codepush/update_check", s.handleUpdateCheck(false))

	r.POST("/reportStatus/deploy", s.handleReportDeploy)
	r.POST("/v0.1/public/codepush/report_status/deploy", s.handleReportDeploy)

	r.POST("/reportStatus/download", s.handleReportDownload)
	r.POST("/v0.1/public/codepush/report_status/download", s.handleReportDownload)
}

func nowFunc() time.Time { return time.Now() }

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blitzstudios/code-push-server/database/dbcore"
)

// handleHealth probes storage and the distributed cache (when enabled)
// and answers 200 "Healthy", or 500 naming the failing component.
func (s *Server) handleHealth(c *gin.Context) {
	if db := dbcore.GetDBInstance(); db != nil {
		sqlDB, err := db.DB()
		if err != nil || sqlDB.Ping() != nil {
			c.String(http.StatusInternalServerError, "Unhealthy: storage")
			return
		}
	}

	if s.responseCache.Enabled() {
		if err := s.responseCache.Ping(c.Request.Context()); err != nil {
			c.String(http.StatusInternalServerError, "Unhealthy: cache")
			return
		}
	}

	c.String(http.StatusOK, "Healthy")
}

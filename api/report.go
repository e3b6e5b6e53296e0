package api

import (
	"context"
	"net/http"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/gin-gonic/gin"

	"github.com/blitzstudios/code-push-server/metrics"
)

// reportTailTimeout bounds the asynchronous counter writes that run
// after the 200 reply. The request context is not reused there: it dies
// with the request, and the tail must outlive it.
const reportTailTimeout = 10 * time.Second

// metricsBreakingVersion is the SDK version at which the report-deploy
// handler switches from the legacy active-label protocol to the
// transaction-batched one.
const metricsBreakingVersion = "1.5.2-beta"

// handleReportDeploy inspects the request's SDK-version header and picks
// the new or legacy metrics path accordingly. Both paths answer 200
// before any counter is touched; metrics writes never delay the reply.
func (s *Server) handleReportDeploy(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	deploymentKey := bodyDual(body, "deploymentKey", "deployment_key")
	if deploymentKey == "" {
		RespondError(c, http.StatusBadRequest, "deploymentKey is required")
		return
	}
	label := bodyDual(body, "label", "label")
	status := bodyDual(body, "status", "status")
	clientUniqueID := bodyDual(body, "clientUniqueId", "client_unique_id")
	previousDeploymentKey := bodyDual(body, "previousDeploymentKey", "previous_deployment_key")
	previousLabelOrAppVersion := bodyDual(body, "previousLabelOrAppVersion", "previous_label_or_app_version")

	if usesNewMetricsPath(c.GetHeader("X-CodePush-SDK-Version")) {
		RespondSuccess(c, nil)

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), reportTailTimeout)
			defer cancel()
			switch {
			case label != "" && status == string(metrics.StatusDeploymentFailed):
				s.metrics.IncrementLabelStatusCount(ctx, deploymentKey, label, metrics.StatusDeploymentFailed)
			default:
				s.metrics.RecordUpdate(ctx, deploymentKey, label, previousDeploymentKey, previousLabelOrAppVersion)
			}
			if clientUniqueID != "" {
				s.metrics.RemoveDeploymentKeyClientActiveLabel(ctx, previousDeploymentKey, clientUniqueID)
			}
		}()
		return
	}

	if clientUniqueID == "" {
		RespondError(c, http.StatusBadRequest, "clientUniqueId is required")
		return
	}

	fromLabel, _ := s.metrics.GetCurrentActiveLabel(c.Request.Context(), deploymentKey, clientUniqueID)

	RespondSuccess(c, nil)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), reportTailTimeout)
		defer cancel()
		s.metrics.UpdateActiveAppForClient(ctx, deploymentKey, clientUniqueID, label, fromLabel)
		if status == string(metrics.StatusDeploymentSucceeded) && label != "" {
			s.metrics.IncrementLabelStatusCount(ctx, deploymentKey, label, metrics.StatusDeploymentSucceeded)
		} else if status == string(metrics.StatusDeploymentFailed) && label != "" {
			s.metrics.IncrementLabelStatusCount(ctx, deploymentKey, label, metrics.StatusDeploymentFailed)
		}
	}()
}

// handleReportDownload requires deploymentKey and label, responds 200
// synchronously, then fires an async Downloaded increment.
func (s *Server) handleReportDownload(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	deploymentKey := bodyDual(body, "deploymentKey", "deployment_key")
	label := bodyDual(body, "label", "label")
	if deploymentKey == "" || label == "" {
		RespondError(c, http.StatusBadRequest, "deploymentKey and label are required")
		return
	}

	RespondSuccess(c, nil)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), reportTailTimeout)
		defer cancel()
		s.metrics.IncrementLabelStatusCount(ctx, deploymentKey, label, metrics.StatusDownloaded)
	}()
}

func usesNewMetricsPath(sdkVersionHeader string) bool {
	if sdkVersionHeader == "" {
		return false
	}
	v, err := semver.NewVersion(sdkVersionHeader)
	if err != nil {
		return false
	}
	breaking, err := semver.NewVersion(metricsBreakingVersion)
	if err != nil {
		return false
	}
	return v.Compare(breaking) >= 0
}

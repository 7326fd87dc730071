// Package health provides health check endpoint handler.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// probeTimeout bounds the platform round trip of a single health check.
const probeTimeout = 5 * time.Second

// Pinger is the reachability probe the health check runs against the
// repository-hosting platform.
type Pinger interface {
	MainBranchHead(ctx context.Context) (string, error)
}

// Handler handles health check requests.
type Handler struct {
	platform Pinger
	logger   *zap.SugaredLogger
}

// New creates a new health handler instance.
func New(platform Pinger, logger *zap.SugaredLogger) *Handler {
	return &Handler{
		platform: platform,
		logger:   logger,
	}
}

// Response represents health check response.
type Response struct {
	Status string `json:"status"`
}

// Check handles GET /health request. The service is healthy when the main
// repository is reachable on the hosting platform.
func (h *Handler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), probeTimeout)
	defer cancel()

	if _, err := h.platform.MainBranchHead(ctx); err != nil {
		h.logger.Warnw("Health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, Response{
			Status: "unhealthy",
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Status: "ok",
	})
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"workspace-state-engine/internal/database"
)

// HealthHandler handles health and readiness probes
type HealthHandler struct{}

// NewHealthHandler creates a new instance of HealthHandler
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// Health reports liveness
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports readiness. The local snapshot store must be reachable;
// the remote sync store is optional and only reported.
func (h *HealthHandler) Ready(c *gin.Context) {
	if !database.IsConnected() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "not ready",
			"database": "disconnected",
		})
		return
	}

	remote := "disabled"
	if database.GetRedis() != nil {
		remote = "connected"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ready",
		"database": "connected",
		"remote":   remote,
	})
}

package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/gophauth-server/internal/logger"
	"github.com/dtroode/gophauth-server/internal/model"
)

const readinessTimeout = 2 * time.Second

// Health serves liveness and readiness probes.
type Health struct {
	pingers map[string]model.Pinger
	logger  *logger.Logger
}

// NewHealth creates a Health handler. Readiness pings every named store.
func NewHealth(pingers map[string]model.Pinger, logger *logger.Logger) *Health {
	return &Health{pingers: pingers, logger: logger}
}

// HealthResponse is the body of the probe endpoints.
type HealthResponse struct {
	Status string   `json:"status"`
	Failed []string `json:"failed,omitempty"`
}

// Live handles GET /healthz.
func (h *Health) Live(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// Ready handles GET /readyz.
func (h *Health) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	var failed []string
	for name, p := range h.pingers {
		if err := p.Ping(ctx); err != nil {
			h.logger.Warn("HTTP handler: store not ready", "store", name, "error", err.Error())
			failed = append(failed, name)
		}
	}

	if len(failed) > 0 {
		sort.Strings(failed)
		c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Failed: failed})
		return
	}
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/shashiranjanraj/storefront/pkg/ctx"
	"github.com/shashiranjanraj/storefront/pkg/logger"
)

// HealthController answers load-balancer probes.
type HealthController struct {
	ping func(context.Context) error
}

func NewHealthController(ping func(context.Context) error) *HealthController {
	return &HealthController{ping: ping}
}

// Check returns 200 when the store answers and 503 otherwise.
func (hc *HealthController) Check(c *ctx.Context) {
	pctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()
	if err := hc.ping(pctx); err != nil {
		logger.WithCtx(c.Context()).Warn("health check failed", "error", err)
		c.Error(http.StatusServiceUnavailable, "store unavailable")
		return
	}
	c.Success(map[string]string{"status": "ok"})
}

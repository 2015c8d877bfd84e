package controllers

import (
	"github.com/shashiranjanraj/storefront/pkg/ctx"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/ws"
)

// FeedController streams order events to admin dashboards.
type FeedController struct {
	hub *ws.Hub
}

func NewFeedController(hub *ws.Hub) *FeedController {
	return &FeedController{hub: hub}
}

// Stream upgrades to a websocket. Browsers cannot set headers on the
// handshake, so the auth middleware also accepts ?token= here.
func (fc *FeedController) Stream(c *ctx.Context) {
	if err := fc.hub.Upgrade(c.W, c.R); err != nil {
		// The upgrader has already answered the request.
		logger.WithCtx(c.Context()).Warn("feed: upgrade failed", "error", err)
	}
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"homedash/internal/metrics"
	"homedash/internal/services"
)

// MetricsHandler serves a JSON snapshot of the in-process counters.
type MetricsHandler struct {
	hub     *services.EventHub
	streams *services.StreamService
}

func NewMetricsHandler(hub *services.EventHub, streams *services.StreamService) *MetricsHandler {
	return &MetricsHandler{hub: hub, streams: streams}
}

func (h *MetricsHandler) Snapshot(c *gin.Context) {
	opTotal, opsByName := metrics.AutomationOpSnapshot()
	c.JSON(http.StatusOK, gin.H{
		"automation_ops_total": opTotal,
		"automation_ops":       opsByName,
		"rate_limit_drops":     metrics.RateLimitDrops(),
		"event_clients":        h.hub.GetClientCount(),
		"stream_sessions":      h.streams.GetSessionCount(),
	})
}

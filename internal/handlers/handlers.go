package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"homedash/internal/services"
)

type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   "1.0.0",
	})
}

func (h *HealthHandler) Ready(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// EventFeedHandler exposes the live dashboard feed.
type EventFeedHandler struct {
	hub *services.EventHub
}

func NewEventFeedHandler(hub *services.EventHub) *EventFeedHandler {
	return &EventFeedHandler{hub: hub}
}

func (h *EventFeedHandler) HandleWebSocket(c *gin.Context) {
	h.hub.HandleWebSocket(c)
}

func (h *EventFeedHandler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"connected_clients": h.hub.GetClientCount(),
		"status":            "running",
	})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v3"
	"github.com/sirupsen/logrus"

	"homedash/internal/services"
)

// CameraHandler manages cameras and their WebRTC viewing sessions.
type CameraHandler struct {
	cameras *services.CameraService
	streams *services.StreamService
	logger  *logrus.Logger
}

func NewCameraHandler(cameras *services.CameraService, streams *services.StreamService, logger *logrus.Logger) *CameraHandler {
	return &CameraHandler{cameras: cameras, streams: streams, logger: logger}
}

func (h *CameraHandler) List(c *gin.Context) {
	cameras, err := h.cameras.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.logger, "list cameras", err)
		return
	}
	c.JSON(http.StatusOK, cameras)
}

func (h *CameraHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	camera, err := h.cameras.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.logger, "get camera", err)
		return
	}
	c.JSON(http.StatusOK, camera)
}

func (h *CameraHandler) Create(c *gin.Context) {
	var req services.CameraCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Message: err.Error()})
		return
	}
	camera, err := h.cameras.Create(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, h.logger, "create camera", err)
		return
	}
	c.JSON(http.StatusCreated, camera)
}

func (h *CameraHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req services.CameraUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Message: err.Error()})
		return
	}
	camera, err := h.cameras.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondServiceError(c, h.logger, "update camera", err)
		return
	}
	c.JSON(http.StatusOK, camera)
}

func (h *CameraHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.cameras.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, h.logger, "delete camera", err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}

func (h *CameraHandler) RotateStreamKey(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	camera, err := h.cameras.RotateStreamKey(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.logger, "rotate stream key", err)
		return
	}
	c.JSON(http.StatusOK, camera)
}

// Offer starts a WebRTC viewing session: the browser posts its SDP offer
// and receives the answer plus a session id for trickle ICE.
func (h *CameraHandler) Offer(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	camera, err := h.cameras.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.logger, "start stream", err)
		return
	}

	var offer webrtc.SessionDescription
	if err := c.ShouldBindJSON(&offer); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Message: err.Error()})
		return
	}

	sessionID, answer, err := h.streams.HandleOffer(camera, offer)
	if err != nil {
		respondServiceError(c, h.logger, "start stream", err)
		return
	}

	if err := h.cameras.TouchLastSeen(c.Request.Context(), camera.ID); err != nil {
		h.logger.Warnf("touch camera %d: %v", camera.ID, err)
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": sessionID,
		"answer":     answer,
	})
}

func (h *CameraHandler) Candidate(c *gin.Context) {
	sessionID := c.Param("sessionId")
	var candidate webrtc.ICECandidateInit
	if err := c.ShouldBindJSON(&candidate); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Message: err.Error()})
		return
	}
	if err := h.streams.HandleICECandidate(sessionID, candidate); err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Session not found", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "candidate added"})
}

func (h *CameraHandler) CloseSession(c *gin.Context) {
	sessionID := c.Param("sessionId")
	if err := h.streams.CloseSession(sessionID); err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Session not found", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "closed"})
}

func (h *CameraHandler) SessionStats(c *gin.Context) {
	sessionID := c.Param("sessionId")
	stats, err := h.streams.SessionStats(sessionID)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Session not found", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func RegisterCameraRoutes(r *gin.RouterGroup, handler *CameraHandler) {
	cameras := r.Group("/cameras")
	{
		cameras.GET("", handler.List)
		cameras.POST("", handler.Create)
		cameras.GET(":id", handler.Get)
		cameras.PUT(":id", handler.Update)
		cameras.DELETE(":id", handler.Delete)
		cameras.POST(":id/rotate-key", handler.RotateStreamKey)
		cameras.POST(":id/stream/offer", handler.Offer)
	}
	streams := r.Group("/streams")
	{
		streams.POST(":sessionId/candidate", handler.Candidate)
		streams.DELETE(":sessionId", handler.CloseSession)
		streams.GET(":sessionId/stats", handler.SessionStats)
	}
}

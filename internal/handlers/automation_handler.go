package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"homedash/internal/services"
)

// AutomationHandler exposes automation CRUD plus the duplicate, toggle,
// test-run and YAML preview operations.
type AutomationHandler struct {
	service *services.AutomationService
	logger  *logrus.Logger
}

func NewAutomationHandler(service *services.AutomationService, logger *logrus.Logger) *AutomationHandler {
	return &AutomationHandler{service: service, logger: logger}
}

// List supports pagination, free-text search over name/description, and
// enabled/source filters.
func (h *AutomationHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if limit < 1 {
		limit = 10
	}
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}

	opts := services.AutomationListOptions{
		Limit:  limit,
		Offset: offset,
		Search: c.Query("search"),
		Source: c.Query("source"),
		Sort:   c.Query("sort"),
		Order:  c.Query("order"),
	}
	if enabledStr := c.Query("enabled"); enabledStr != "" {
		enabled := enabledStr == "true"
		opts.Enabled = &enabled
	}

	automations, total, err := h.service.List(c.Request.Context(), opts)
	if err != nil {
		respondServiceError(c, h.logger, "list automations", err)
		return
	}

	if limit > 100 {
		limit = 100
	}
	c.JSON(http.StatusOK, PaginatedResponse{
		Data:   automations,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

func (h *AutomationHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	automation, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.logger, "get automation", err)
		return
	}
	c.JSON(http.StatusOK, automation)
}

func (h *AutomationHandler) Create(c *gin.Context) {
	var req services.AutomationCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Message: err.Error()})
		return
	}
	automation, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, h.logger, "create automation", err)
		return
	}
	c.JSON(http.StatusCreated, automation)
}

func (h *AutomationHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req services.AutomationUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Message: err.Error()})
		return
	}
	automation, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondServiceError(c, h.logger, "update automation", err)
		return
	}
	c.JSON(http.StatusOK, automation)
}

// Delete returns the removed automation so the dashboard can offer undo by
// re-posting it.
func (h *AutomationHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	automation, err := h.service.Delete(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.logger, "delete automation", err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "deleted", Data: automation})
}

func (h *AutomationHandler) Toggle(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Enabled *bool `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Enabled == nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Message: "enabled (boolean) is required",
		})
		return
	}
	automation, err := h.service.Toggle(c.Request.Context(), id, *req.Enabled)
	if err != nil {
		respondServiceError(c, h.logger, "toggle automation", err)
		return
	}
	c.JSON(http.StatusOK, automation)
}

func (h *AutomationHandler) TestRun(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	report, err := h.service.TestRun(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.logger, "test-run automation", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *AutomationHandler) Duplicate(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	dup, err := h.service.Duplicate(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.logger, "duplicate automation", err)
		return
	}
	c.JSON(http.StatusCreated, dup)
}

// YAML renders the automation as Home Assistant-style YAML for copy-paste.
func (h *AutomationHandler) YAML(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	automation, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.logger, "export automation", err)
		return
	}
	yamlText, err := services.ExportYAML(automation)
	if err != nil {
		respondServiceError(c, h.logger, "export automation", err)
		return
	}
	c.Data(http.StatusOK, "application/x-yaml; charset=utf-8", []byte(yamlText))
}

func RegisterAutomationRoutes(r *gin.RouterGroup, handler *AutomationHandler) {
	automations := r.Group("/automations")
	{
		automations.GET("", handler.List)
		automations.POST("", handler.Create)
		automations.GET(":id", handler.Get)
		automations.PUT(":id", handler.Update)
		automations.DELETE(":id", handler.Delete)
		automations.POST(":id/toggle", handler.Toggle)
		automations.POST(":id/test", handler.TestRun)
		automations.POST(":id/duplicate", handler.Duplicate)
		automations.GET(":id/yaml", handler.YAML)
	}
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"homedash/internal/services"
)

// TriggerHandler manages the trigger collection nested under an automation.
type TriggerHandler struct {
	service *services.AutomationService
	logger  *logrus.Logger
}

func NewTriggerHandler(service *services.AutomationService, logger *logrus.Logger) *TriggerHandler {
	return &TriggerHandler{service: service, logger: logger}
}

func (h *TriggerHandler) List(c *gin.Context) {
	automationID, ok := parseID(c, "id")
	if !ok {
		return
	}
	triggers, err := h.service.ListTriggers(c.Request.Context(), automationID)
	if err != nil {
		respondServiceError(c, h.logger, "list triggers", err)
		return
	}
	c.JSON(http.StatusOK, triggers)
}

func (h *TriggerHandler) Create(c *gin.Context) {
	automationID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req services.TriggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Message: err.Error()})
		return
	}
	trigger, err := h.service.CreateTrigger(c.Request.Context(), automationID, &req)
	if err != nil {
		respondServiceError(c, h.logger, "create trigger", err)
		return
	}
	c.JSON(http.StatusCreated, trigger)
}

func (h *TriggerHandler) Update(c *gin.Context) {
	automationID, ok := parseID(c, "id")
	if !ok {
		return
	}
	triggerID, ok := parseID(c, "triggerId")
	if !ok {
		return
	}
	var req services.TriggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Message: err.Error()})
		return
	}
	trigger, err := h.service.UpdateTrigger(c.Request.Context(), automationID, triggerID, &req)
	if err != nil {
		respondServiceError(c, h.logger, "update trigger", err)
		return
	}
	c.JSON(http.StatusOK, trigger)
}

func (h *TriggerHandler) Delete(c *gin.Context) {
	automationID, ok := parseID(c, "id")
	if !ok {
		return
	}
	triggerID, ok := parseID(c, "triggerId")
	if !ok {
		return
	}
	if err := h.service.DeleteTrigger(c.Request.Context(), automationID, triggerID); err != nil {
		respondServiceError(c, h.logger, "delete trigger", err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}

// ConditionHandler manages the condition collection nested under an
// automation.
type ConditionHandler struct {
	service *services.AutomationService
	logger  *logrus.Logger
}

func NewConditionHandler(service *services.AutomationService, logger *logrus.Logger) *ConditionHandler {
	return &ConditionHandler{service: service, logger: logger}
}

func (h *ConditionHandler) List(c *gin.Context) {
	automationID, ok := parseID(c, "id")
	if !ok {
		return
	}
	conditions, err := h.service.ListConditions(c.Request.Context(), automationID)
	if err != nil {
		respondServiceError(c, h.logger, "list conditions", err)
		return
	}
	c.JSON(http.StatusOK, conditions)
}

func (h *ConditionHandler) Create(c *gin.Context) {
	automationID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req services.ConditionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Message: err.Error()})
		return
	}
	condition, err := h.service.CreateCondition(c.Request.Context(), automationID, &req)
	if err != nil {
		respondServiceError(c, h.logger, "create condition", err)
		return
	}
	c.JSON(http.StatusCreated, condition)
}

func (h *ConditionHandler) Update(c *gin.Context) {
	automationID, ok := parseID(c, "id")
	if !ok {
		return
	}
	conditionID, ok := parseID(c, "conditionId")
	if !ok {
		return
	}
	var req services.ConditionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Message: err.Error()})
		return
	}
	condition, err := h.service.UpdateCondition(c.Request.Context(), automationID, conditionID, &req)
	if err != nil {
		respondServiceError(c, h.logger, "update condition", err)
		return
	}
	c.JSON(http.StatusOK, condition)
}

func (h *ConditionHandler) Delete(c *gin.Context) {
	automationID, ok := parseID(c, "id")
	if !ok {
		return
	}
	conditionID, ok := parseID(c, "conditionId")
	if !ok {
		return
	}
	if err := h.service.DeleteCondition(c.Request.Context(), automationID, conditionID); err != nil {
		respondServiceError(c, h.logger, "delete condition", err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}

// ActionHandler manages the action collection nested under an automation.
type ActionHandler struct {
	service *services.AutomationService
	logger  *logrus.Logger
}

func NewActionHandler(service *services.AutomationService, logger *logrus.Logger) *ActionHandler {
	return &ActionHandler{service: service, logger: logger}
}

func (h *ActionHandler) List(c *gin.Context) {
	automationID, ok := parseID(c, "id")
	if !ok {
		return
	}
	actions, err := h.service.ListActions(c.Request.Context(), automationID)
	if err != nil {
		respondServiceError(c, h.logger, "list actions", err)
		return
	}
	c.JSON(http.StatusOK, actions)
}

func (h *ActionHandler) Create(c *gin.Context) {
	automationID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req services.ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Message: err.Error()})
		return
	}
	action, err := h.service.CreateAction(c.Request.Context(), automationID, &req)
	if err != nil {
		respondServiceError(c, h.logger, "create action", err)
		return
	}
	c.JSON(http.StatusCreated, action)
}

func (h *ActionHandler) Update(c *gin.Context) {
	automationID, ok := parseID(c, "id")
	if !ok {
		return
	}
	actionID, ok := parseID(c, "actionId")
	if !ok {
		return
	}
	var req services.ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Message: err.Error()})
		return
	}
	action, err := h.service.UpdateAction(c.Request.Context(), automationID, actionID, &req)
	if err != nil {
		respondServiceError(c, h.logger, "update action", err)
		return
	}
	c.JSON(http.StatusOK, action)
}

func (h *ActionHandler) Delete(c *gin.Context) {
	automationID, ok := parseID(c, "id")
	if !ok {
		return
	}
	actionID, ok := parseID(c, "actionId")
	if !ok {
		return
	}
	if err := h.service.DeleteAction(c.Request.Context(), automationID, actionID); err != nil {
		respondServiceError(c, h.logger, "delete action", err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}

// RegisterAutomationPartRoutes mounts the nested trigger/condition/action
// collections under /automations/:id.
func RegisterAutomationPartRoutes(r *gin.RouterGroup, triggers *TriggerHandler, conditions *ConditionHandler, actions *ActionHandler) {
	automations := r.Group("/automations/:id")
	{
		automations.GET("/triggers", triggers.List)
		automations.POST("/triggers", triggers.Create)
		automations.PUT("/triggers/:triggerId", triggers.Update)
		automations.DELETE("/triggers/:triggerId", triggers.Delete)

		automations.GET("/conditions", conditions.List)
		automations.POST("/conditions", conditions.Create)
		automations.PUT("/conditions/:conditionId", conditions.Update)
		automations.DELETE("/conditions/:conditionId", conditions.Delete)

		automations.GET("/actions", actions.List)
		automations.POST("/actions", actions.Create)
		automations.PUT("/actions/:actionId", actions.Update)
		automations.DELETE("/actions/:actionId", actions.Delete)
	}
}

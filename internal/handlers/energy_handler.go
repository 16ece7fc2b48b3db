package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"homedash/internal/services"
)

// EnergyHandler records meter readings and serves billing summaries.
type EnergyHandler struct {
	service *services.EnergyService
	logger  *logrus.Logger
}

func NewEnergyHandler(service *services.EnergyService, logger *logrus.Logger) *EnergyHandler {
	return &EnergyHandler{service: service, logger: logger}
}

func (h *EnergyHandler) Record(c *gin.Context) {
	var req services.EnergyReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Message: err.Error()})
		return
	}
	if req.Meter == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Validation failed",
			Code:    "MISSING_METER",
			Message: "meter is required",
		})
		return
	}
	if req.KWh < 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Validation failed",
			Code:    "INVALID_KWH",
			Message: "kwh must not be negative",
		})
		return
	}
	reading, err := h.service.Record(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, h.logger, "record energy reading", err)
		return
	}
	c.JSON(http.StatusCreated, reading)
}

func (h *EnergyHandler) List(c *gin.Context) {
	opts := services.EnergyListOptions{
		Meter: c.Query("meter"),
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		opts.Limit, _ = strconv.Atoi(limitStr)
	}
	from, to, ok := parseWindow(c)
	if !ok {
		return
	}
	opts.From, opts.To = from, to

	readings, err := h.service.List(c.Request.Context(), &opts)
	if err != nil {
		respondServiceError(c, h.logger, "list energy readings", err)
		return
	}
	c.JSON(http.StatusOK, readings)
}

func (h *EnergyHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, h.logger, "delete energy reading", err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}

func (h *EnergyHandler) Summary(c *gin.Context) {
	from, to, ok := parseWindow(c)
	if !ok {
		return
	}
	summary, err := h.service.Summary(c.Request.Context(), c.Query("meter"), from, to)
	if err != nil {
		respondServiceError(c, h.logger, "summarize energy", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// parseWindow reads optional from/to RFC3339 query parameters. On a bad
// timestamp it writes the 400 response and reports false.
func parseWindow(c *gin.Context) (*time.Time, *time.Time, bool) {
	var from, to *time.Time
	for _, q := range []struct {
		name string
		dst  **time.Time
	}{{"from", &from}, {"to", &to}} {
		value := c.Query(q.name)
		if value == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, value)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "Validation failed",
				Code:    "INVALID_TIMESTAMP",
				Message: q.name + " must be an RFC3339 timestamp",
			})
			return nil, nil, false
		}
		*q.dst = &ts
	}
	return from, to, true
}

func RegisterEnergyRoutes(r *gin.RouterGroup, handler *EnergyHandler) {
	energy := r.Group("/energy")
	{
		energy.POST("/readings", handler.Record)
		energy.GET("/readings", handler.List)
		energy.DELETE("/readings/:id", handler.Delete)
		energy.GET("/summary", handler.Summary)
	}
}

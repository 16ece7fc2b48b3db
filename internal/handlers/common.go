package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"homedash/internal/services"
	"homedash/internal/validation"
)

// ErrorResponse is the uniform error envelope. Code is a stable
// machine-readable string the dashboard switches on; Message is for humans.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

type PaginatedResponse struct {
	Data   interface{} `json:"data"`
	Total  int64       `json:"total"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// parseID parses a :param path segment as an unsigned id. On failure it
// writes the INVALID_ID response and reports false.
func parseID(c *gin.Context, param string) (uint, bool) {
	idStr := c.Param(param)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid id",
			Code:    "INVALID_ID",
			Message: "id must be a positive integer",
		})
		return 0, false
	}
	return uint(id), true
}

// respondServiceError maps service-layer errors onto the error taxonomy.
// Validation errors carry their own code; known sentinels map to 404/409;
// anything else is logged and returned as an opaque 500.
func respondServiceError(c *gin.Context, logger *logrus.Logger, action string, err error) {
	var verr *validation.Error
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Validation failed",
			Code:    verr.Code,
			Message: verr.Message,
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrAutomationNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "Automation not found",
			Code:    "AUTOMATION_NOT_FOUND",
			Message: err.Error(),
		})
	case errors.Is(err, services.ErrChildNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "Not found",
			Code:    "NOT_FOUND",
			Message: err.Error(),
		})
	case errors.Is(err, services.ErrDuplicateName):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "Name already in use",
			Code:    "DUPLICATE_NAME",
			Message: err.Error(),
		})
	case errors.Is(err, services.ErrCameraNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "Camera not found",
			Code:    "CAMERA_NOT_FOUND",
			Message: err.Error(),
		})
	case errors.Is(err, services.ErrReadingNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "Reading not found",
			Code:    "READING_NOT_FOUND",
			Message: err.Error(),
		})
	case errors.Is(err, services.ErrCameraDisabled):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "Camera disabled",
			Code:    "CAMERA_DISABLED",
			Message: err.Error(),
		})
	default:
		logger.Errorf("%s: %v", action, err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Internal error",
			Message: "Failed to " + action,
		})
	}
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/uniworld-consultancy/case-service/internal/services"
	"github.com/uniworld-consultancy/case-service/internal/utils"
	"github.com/uniworld-consultancy/case-service/internal/validator"
)

// ErrorResponse is the error payload returned by all handlers
type ErrorResponse struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// SuccessResponse wraps a simple confirmation payload
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// BaseHandler carries the shared behavior all handlers embed
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs request handling with the request ID when present
func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	logger := h.logger
	if requestID := c.GetString("request_id"); requestID != "" {
		logger = logger.With("request_id", requestID)
	}
	logger.Info(msg, args...)
}

// LogError logs a handler error with the request ID when present
func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	logger := h.logger
	if requestID := c.GetString("request_id"); requestID != "" {
		logger = logger.With("request_id", requestID)
	}
	logger.Error(msg, append(args, "error", err)...)
}

// parseIDParam parses a uint path parameter, responding with 400 and
// returning 0 when the value is missing or malformed.
func (h *BaseHandler) parseIDParam(c *gin.Context, name string) uint {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + name + " parameter",
		})
		return 0
	}
	return uint(id)
}

// handleServiceError maps service errors onto HTTP status codes
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "Validation failed",
			"errors":  validationErrs,
		})
		return
	}

	switch {
	case services.IsNotFoundError(err):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: err.Error(),
		})
	case services.IsPermissionError(err):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: err.Error(),
		})
	case services.IsConflictError(err):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: err.Error(),
		})
	default:
		h.LogError(c, err, "Unhandled service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}

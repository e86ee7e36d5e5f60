// Package handler implements the Vidro REST endpoints of the development API server.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/javierleyes/vidro-android/internal/domain/schedule"
	"github.com/javierleyes/vidro-android/internal/domain/shared"
	"github.com/javierleyes/vidro-android/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Error codes returned in error bodies
const (
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeInvalidState = "INVALID_STATE"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// ErrorInfo is the error body of a failed request
type ErrorInfo struct {
	Code      string       `json:"code"`
	Message   string       `json:"message"`
	RequestID string       `json:"request_id,omitempty"`
	Fields    []FieldError `json:"fields,omitempty"`
}

// FieldError names an invalid request field
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// ErrorResponse wraps ErrorInfo
type ErrorResponse struct {
	Error ErrorInfo `json:"error"`
}

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID returns the request ID echoed by the logging middleware
func getRequestID(c *gin.Context) string {
	if id := c.Writer.Header().Get(logger.RequestIDHeader); id != "" {
		return id
	}
	return c.GetHeader(logger.RequestIDHeader)
}

// OK sends a 200 response with data as the whole body
func (h *BaseHandler) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the given status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.AbortWithStatusJSON(statusCode, ErrorResponse{Error: ErrorInfo{
		Code:      code,
		Message:   message,
		RequestID: getRequestID(c),
	}})
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// ValidationFailed sends a 400 response naming every invalid field
func (h *BaseHandler) ValidationFailed(c *gin.Context, verr *schedule.ValidationError) {
	fields := make([]FieldError, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		fields = append(fields, FieldError{Field: f.Field, Rule: f.Tag})
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: ErrorInfo{
		Code:      ErrCodeValidation,
		Message:   verr.Error(),
		RequestID: getRequestID(c),
		Fields:    fields,
	}})
}

// HandleError maps domain errors onto HTTP status codes
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	var verr *schedule.ValidationError
	switch {
	case errors.As(err, &verr):
		h.ValidationFailed(c, verr)
	case errors.Is(err, shared.ErrNotFound):
		h.Error(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, shared.ErrInvalidInput):
		h.BadRequest(c, err.Error())
	case errors.Is(err, shared.ErrInvalidState):
		h.Error(c, http.StatusConflict, ErrCodeInvalidState, err.Error())
	default:
		logger.GetGinLogger(c).Error("request failed", zap.Error(err))
		_ = c.Error(err)
		h.Error(c, http.StatusInternalServerError, ErrCodeInternal, "Internal server error")
	}
}

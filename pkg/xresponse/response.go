package xresponse

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Response represents standard API response format.
// Data is always emitted so callers can tell an empty result from a missing one.
type Response struct {
	Code      int         `json:"code"`
	Status    string      `json:"status"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"timestamp"`
}

// ErrorResponse represents error response format
type ErrorResponse struct {
	Code      int         `json:"code"`
	Status    string      `json:"status"`
	ErrorCode string      `json:"error_code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// Common error codes
const (
	ErrCodeValidationFailed  = "VALIDATION_FAILED"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeConflict          = "CONFLICT"
	ErrCodeInternalError     = "INTERNAL_ERROR"
	ErrCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
)

// Success sends success response
func Success(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, NewResponse(http.StatusOK, message, data))
}

// Error sends error response
func Error(c *gin.Context, statusCode int, errorCode, message string) {
	c.JSON(statusCode, NewErrorResponse(statusCode, errorCode, message, nil))
}

// ErrorWithDetails sends error response with details
func ErrorWithDetails(c *gin.Context, statusCode int, errorCode, message string, details interface{}) {
	c.JSON(statusCode, NewErrorResponse(statusCode, errorCode, message, details))
}

// BadRequest sends 400 Bad Request response
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, ErrCodeValidationFailed, message)
}

// Unauthorized sends 401 Unauthorized response
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// Forbidden sends 403 Forbidden response
func Forbidden(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, ErrCodeForbidden, message)
}

// NotFound sends 404 Not Found response
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, ErrCodeNotFound, message)
}

// Conflict sends 409 Conflict response
func Conflict(c *gin.Context, message string) {
	Error(c, http.StatusConflict, ErrCodeConflict, message)
}

// InternalServerError sends 500 Internal Server Error response
func InternalServerError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, ErrCodeInternalError, message)
}

// RateLimitExceeded sends 429 Rate Limit Exceeded error response
func RateLimitExceeded(c *gin.Context, message string) {
	Error(c, http.StatusTooManyRequests, ErrCodeRateLimitExceeded, message)
}

// ValidationError sends validation error response with field details
func ValidationError(c *gin.Context, details interface{}) {
	ErrorWithDetails(c, http.StatusBadRequest, ErrCodeValidationFailed, "Validation failed", details)
}

// Helper function to get status from code
func GetStatusFromCode(code int) string {
	if code >= 200 && code < 300 {
		return "success"
	}
	return "error"
}

// Helper function to create standard response
func NewResponse(code int, message string, data interface{}) Response {
	return Response{
		Code:      code,
		Status:    GetStatusFromCode(code),
		Message:   message,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
}

// Helper function to create error response
func NewErrorResponse(code int, errorCode, message string, details interface{}) ErrorResponse {
	return ErrorResponse{
		Code:      code,
		Status:    "error",
		ErrorCode: errorCode,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().Unix(),
	}
}

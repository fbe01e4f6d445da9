// internal/api/response_helpers.go
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/ifallious/Wynncraft-Item-Viewer/internal/errors"
)

// APIResponse is the envelope of every query-surface response
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
}

// APIError is the error part of the envelope
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ResponseHelper writes envelopes; with debug set, error details carry the wrapped cause
type ResponseHelper struct {
	debug bool
}

// NewResponseHelper creates a response helper
func NewResponseHelper(debug bool) *ResponseHelper {
	return &ResponseHelper{debug: debug}
}

// Success writes a 200 envelope
func (rh *ResponseHelper) Success(c *gin.Context, data interface{}, message ...string) {
	response := &APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
		RequestID: rh.getRequestID(c),
	}

	if len(message) > 0 {
		response.Message = message[0]
	}

	c.JSON(http.StatusOK, response)
}

// Error writes an error envelope
func (rh *ResponseHelper) Error(c *gin.Context, statusCode int, errorCode, message string, details ...string) {
	apiError := &APIError{
		Code:    errorCode,
		Message: message,
	}

	if len(details) > 0 {
		apiError.Details = details[0]
	}

	c.JSON(statusCode, &APIResponse{
		Success:   false,
		Error:     apiError,
		Timestamp: time.Now(),
		RequestID: rh.getRequestID(c),
	})
}

// BadRequest writes a 400 envelope
func (rh *ResponseHelper) BadRequest(c *gin.Context, message string, details ...string) {
	rh.Error(c, http.StatusBadRequest, ErrorBadRequest, message, details...)
}

// NotFound writes a 404 envelope
func (rh *ResponseHelper) NotFound(c *gin.Context, message string, details ...string) {
	rh.Error(c, http.StatusNotFound, ErrorNotFound, message, details...)
}

// InternalError writes a 500 envelope
func (rh *ResponseHelper) InternalError(c *gin.Context, message string, details ...string) {
	rh.Error(c, http.StatusInternalServerError, ErrorInternalError, message, details...)
}

// FromError maps an AppError type to its HTTP status and writes the envelope
func (rh *ResponseHelper) FromError(c *gin.Context, err error) {
	status, code := StatusForError(err)

	message := "An internal error occurred"
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}

	if rh.debug {
		rh.Error(c, status, code, message, err.Error())
		return
	}
	rh.Error(c, status, code, message)
}

// StatusForError returns the HTTP status and API code for err
func StatusForError(err error) (int, string) {
	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeValidation:
		return http.StatusBadRequest, ErrorInvalidQuery
	case apperrors.ErrorTypeNotFound:
		return http.StatusNotFound, ErrorItemNotFound
	case apperrors.ErrorTypeUnavailable:
		return http.StatusServiceUnavailable, ErrorCatalogUnavailable
	case apperrors.ErrorTypeUpstreamTransport, apperrors.ErrorTypeUpstreamStatus, apperrors.ErrorTypeUpstreamDecode:
		return http.StatusBadGateway, ErrorUpstreamFailed
	default:
		return http.StatusInternalServerError, ErrorInternalError
	}
}

func (rh *ResponseHelper) getRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

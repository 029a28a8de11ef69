package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"sizechart-backend/internal/shared"
)

// Envelope wraps admin responses.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorBody is the shape of every failure.
type ErrorBody struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details,omitempty"`
}

// JSON writes a bare payload. Public read endpoints use it.
func JSON(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// Success writes {success: true, data}.
func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, Envelope{Success: true, Data: data})
}

func Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, ErrorBody{Error: message, Code: code})
}

func ErrorWithDetails(c *gin.Context, statusCode int, code, message string, details map[string]string) {
	c.JSON(statusCode, ErrorBody{Error: message, Code: code, Details: details})
}

// AbortError writes the error body and stops the handler chain.
func AbortError(c *gin.Context, statusCode int, code, message string) {
	c.AbortWithStatusJSON(statusCode, ErrorBody{Error: message, Code: code})
}

// FromError maps err to its status and code. Errors without a code are
// logged and reported as a generic 500.
func FromError(c *gin.Context, err error) {
	appErr := shared.AsAppError(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("request_id", c.GetString("request_id")).
			Str("path", c.Request.URL.Path).
			Msg("Request failed")
	}
	c.AbortWithStatusJSON(appErr.HTTPStatus, ErrorBody{
		Error:   appErr.Message,
		Code:    appErr.Code,
		Details: appErr.Details,
	})
}

// Common error responses
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, shared.CodeValidation, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, shared.CodeNotFound, message)
}

func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, shared.CodeInternal, "Internal server error")
}

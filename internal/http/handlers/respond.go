package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIError is the uniform error envelope every failure path responds
// with, so clients can branch on code without parsing messages.
type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.JSON(status, gin.H{
		"error": APIError{
			Code:      code,
			Message:   message,
			RequestID: requestIDFrom(ctx),
			Details:   details,
		},
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

func requestIDFrom(ctx *gin.Context) string {
	if v, ok := ctx.Get("request_id"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}

	// fall back to whatever the client sent
	return ctx.GetHeader("X-Request-Id")
}

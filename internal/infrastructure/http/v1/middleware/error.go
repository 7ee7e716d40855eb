package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stockward/internal/core/apperror"
	"stockward/internal/infrastructure/storage/postgres"
	"stockward/pkg/logger"
)

// ErrorHandler renders errors collected during the request as a JSON
// body with the AppError's HTTP status. Internal causes are logged,
// never exposed.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		// A handler that already wrote a response wins.
		if c.Writer.Written() {
			return
		}

		status := http.StatusInternalServerError
		var body gin.H

		if appErr, ok := apperror.AsAppError(err); ok {
			if appErr.Err != nil {
				logger.Error(c.Request.Context(), "request error",
					"code", appErr.Code,
					"cause", appErr.Err,
				)
			}
			status = appErr.HTTPStatus
			body = gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
				"details": appErr.Details,
			}
		} else {
			logger.Error(c.Request.Context(), "unhandled error", "error", err)
			body = gin.H{
				"code":    apperror.CodeInternal,
				"message": "Internal server error",
				"details": map[string]any{
					"request_id": c.GetString("request_id"),
				},
			}
		}

		failIdempotency(c, status, body)
		c.JSON(status, body)
	}
}

// failIdempotency records the error response under the request's
// idempotency key so a retry replays the same failure. Best effort.
func failIdempotency(c *gin.Context, status int, body gin.H) {
	key, hasKey := c.Get("idempotency_key")
	store, hasStore := c.Get("idempotency_store")
	if !hasKey || !hasStore {
		return
	}
	if s, ok := store.(*postgres.IdempotencyStore); ok && s != nil {
		_ = s.FailKey(c.Request.Context(), key.(string), status, "application/json", body)
	}
}

// Package middleware holds the gin middleware chain: panic recovery,
// tracing, access logging, auth, idempotency and error rendering.
package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"stockward/internal/core/apperror"
	"stockward/pkg/logger"
)

// Recovery converts a handler panic into an internal-error response.
// The stack trace goes to the log only.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			logger.Error(c.Request.Context(), "panic recovered",
				"error", r,
				"stack", string(debug.Stack()),
			)

			appErr := apperror.NewInternal(fmt.Errorf("panic: %v", r)).
				WithDetail("request_id", c.GetString("request_id"))
			_ = c.Error(appErr)
			c.Abort()
		}()

		c.Next()
	}
}

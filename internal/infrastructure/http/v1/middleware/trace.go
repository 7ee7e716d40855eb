package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appctx "stockward/internal/core/context"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderTraceID   = "X-Trace-ID"
)

// Trace propagates X-Request-ID and X-Trace-ID, minting fresh ids when
// the caller sent none, and installs them into the request context so
// every downstream log line carries them.
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := headerOrNewID(c, HeaderRequestID)
		traceID := headerOrNewID(c, HeaderTraceID)

		ctx := appctx.WithTrace(c.Request.Context(), &appctx.TraceContext{
			TraceID:   traceID,
			SpanID:    uuid.New().String()[:16],
			RequestID: requestID,
		})
		c.Request = c.Request.WithContext(ctx)

		// Mirror into gin keys for handlers that only have *gin.Context,
		// and echo back to the caller.
		c.Set("trace_id", traceID)
		c.Set("request_id", requestID)
		c.Header(HeaderRequestID, requestID)
		c.Header(HeaderTraceID, traceID)

		c.Next()
	}
}

func headerOrNewID(c *gin.Context, header string) string {
	if v := c.GetHeader(header); v != "" {
		return v
	}
	return uuid.New().String()
}

package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"stockward/internal/core/apperror"
	appctx "stockward/internal/core/context"
	"stockward/internal/infrastructure/storage/postgres"
)

const HeaderIdempotencyKey = "X-Idempotency-Key"

// Bodies larger than this are rejected rather than hashed.
const maxIdempotencyBodyBytes = 1 << 20

// Idempotency deduplicates mutating requests that carry an
// X-Idempotency-Key header. A repeat of a completed request replays the
// stored response; a repeat of an in-flight request is rejected by the
// store. Requests without the header pass through untouched.
func Idempotency(store *postgres.IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			c.Next()
			return
		}

		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}

		requestHash, ok := hashBody(c)
		if !ok {
			return
		}

		var userID string
		if user := appctx.GetUser(c.Request.Context()); user != nil {
			userID = user.UserID
		}
		operation := c.Request.Method + " " + c.FullPath()

		replay, err := store.AcquireKey(c.Request.Context(), key, userID, operation, requestHash)
		if err != nil {
			if _, ok := apperror.AsAppError(err); !ok {
				err = apperror.NewInternal(err).WithDetail("component", "idempotency")
			}
			_ = c.Error(err)
			c.Abort()
			return
		}
		if replay != nil {
			c.Data(replay.StatusCode, replay.ContentType, replay.Body)
			c.Abort()
			return
		}

		// Leave the key and store for the handler / error middleware to
		// complete or fail the entry once the response is known.
		c.Set("idempotency_key", key)
		c.Set("idempotency_store", store)

		c.Next()
	}
}

// hashBody reads and restores the request body, returning its SHA-256
// hex digest. Oversized bodies abort the request with 413.
func hashBody(c *gin.Context) (string, bool) {
	limited := io.LimitReader(c.Request.Body, maxIdempotencyBodyBytes+1)
	body, _ := io.ReadAll(limited)
	if len(body) > maxIdempotencyBodyBytes {
		appErr := apperror.NewValidation("request body too large for idempotency")
		appErr.HTTPStatus = http.StatusRequestEntityTooLarge
		_ = c.Error(appErr.WithDetail("max_bytes", maxIdempotencyBodyBytes))
		c.Abort()
		return "", false
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:]), true
}

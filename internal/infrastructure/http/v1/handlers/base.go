package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"stockward/internal/core/apperror"
	"stockward/internal/infrastructure/http/v1/dto"
	"stockward/internal/infrastructure/storage/postgres"
)

// BaseHandler provides the helpers shared by all handlers: body
// binding, error propagation and idempotency completion.
type BaseHandler struct{}

func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// BindJSON binds the JSON request body, reporting a validation error on
// malformed input.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// Error registers the error on the gin context and aborts. The JSON
// response is produced by middleware.ErrorHandler, the single place
// that renders errors.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ParseIntQuery parses an integer query parameter, falling back to
// defaultVal when absent or malformed.
func (h *BaseHandler) ParseIntQuery(c *gin.Context, key string, defaultVal int) int {
	val := c.Query(key)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

// CompleteIdempotency stores the response under the request's
// idempotency key with the same status, content type and body, so a
// replay is byte-identical.
func (h *BaseHandler) CompleteIdempotency(c *gin.Context, statusCode int, contentType string, response any) {
	key, hasKey := c.Get("idempotency_key")
	store, hasStore := c.Get("idempotency_store")
	if !hasKey || !hasStore {
		return
	}
	_ = store.(*postgres.IdempotencyStore).CompleteKey(c.Request.Context(), key.(string), statusCode, contentType, response)
}

// Success sends a 200 with a message body for operations that return no
// data.
func (h *BaseHandler) Success(c *gin.Context, message string) {
	response := dto.SuccessResponse{Success: true, Message: message}
	h.CompleteIdempotency(c, http.StatusOK, "application/json", response)
	c.JSON(http.StatusOK, response)
}

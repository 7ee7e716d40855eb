// Package apperror defines the structured error type every layer of
// the service speaks: a stable machine code, a human message, a details
// map and the HTTP status the API layer should render.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// Infrastructure
	CodeInternal = "INTERNAL_ERROR"
	CodeStorage  = "STORAGE_FAILURE"

	// Input validation
	CodeValidation = "VALIDATION_ERROR"

	// Posting and inventory rules
	CodeInsufficientStock      = "INSUFFICIENT_STOCK"
	CodeDocumentPosted         = "DOCUMENT_ALREADY_POSTED"
	CodeDocumentEmpty          = "DOCUMENT_EMPTY"
	CodeUnknownProduct         = "UNKNOWN_PRODUCT"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"

	// Authentication and authorization
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"

	CodeNotFound = "NOT_FOUND"

	CodeConflict    = "CONFLICT"
	CodeDuplicate   = "DUPLICATE_ENTRY"
	CodeIdempotency = "IDEMPOTENCY_CONFLICT"
)

// AppError is the error type business code returns. The zero Details
// map and nil Err are both fine; WithDetail and WithCause fill them in.
type AppError struct {
	// Code is the machine-readable identifier clients switch on
	Code string `json:"code"`

	Message string `json:"message"`

	// Details carries structured context: field names, SKUs, quantities
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is what the API layer renders; never serialized
	HTTPStatus int `json:"-"`

	// Err is the wrapped cause; logged, never exposed
	Err error `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap supports errors.Is / errors.As through the cause chain.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds one key-value pair to the details map.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause attaches the underlying error.
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// NewValidation creates a 400 for malformed or inconsistent input.
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a 404 keyed by entity kind and identifier.
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewAlreadyPosted is returned when a posted document is posted,
// modified or deleted again. Posted is a terminal state; corrections go
// through a compensating document.
func NewAlreadyPosted(docID any) *AppError {
	return &AppError{
		Code:       CodeDocumentPosted,
		Message:    "Document is already posted",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"document_id": docID},
	}
}

// NewEmptyDocument is returned when posting a document without lines.
func NewEmptyDocument(docID any) *AppError {
	return &AppError{
		Code:       CodeDocumentEmpty,
		Message:    "Document has no lines to post",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"document_id": docID},
	}
}

// NewUnknownProduct is returned when a line SKU does not resolve to an
// existing product at posting time.
func NewUnknownProduct(skus []string) *AppError {
	return &AppError{
		Code:       CodeUnknownProduct,
		Message:    "One or more SKUs do not match any product",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"skus": skus},
	}
}

// NewInsufficientStock is returned when a shipment would drive a
// balance negative. Details carry enough for the UI to explain the
// shortage.
func NewInsufficientStock(sku string, warehouseID any, requested, available int64) *AppError {
	return &AppError{
		Code:       CodeInsufficientStock,
		Message:    "Insufficient stock",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"sku":          sku,
			"warehouse_id": warehouseID,
			"requested":    requested,
			"available":    available,
		},
	}
}

// NewStorageFailure wraps an I/O error from the backing store.
func NewStorageFailure(op string, err error) *AppError {
	return &AppError{
		Code:       CodeStorage,
		Message:    "Storage operation failed",
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"operation": op},
		Err:        err,
	}
}

// NewConcurrentModification is the optimistic lock failure: the row's
// version moved under the caller.
func NewConcurrentModification(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeConcurrentModification,
		Message:    "Record was modified by another user. Please refresh and try again.",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInternal wraps an unexpected error; the client sees only a generic
// message.
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewUnauthorized creates a 401.
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewForbidden creates a 403.
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// NewIdempotencyConflict is returned while another request holds the
// same idempotency key.
func NewIdempotencyConflict(key string) *AppError {
	return &AppError{
		Code:       CodeIdempotency,
		Message:    "Operation already in progress or completed",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"idempotency_key": key},
	}
}

// NewIdempotencyMismatch is returned when an idempotency key is reused
// for a different request (different user, operation or body hash).
func NewIdempotencyMismatch(key string) *AppError {
	return &AppError{
		Code:       CodeIdempotency,
		Message:    "Idempotency key mismatch",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"idempotency_key": key},
	}
}

// NewConflict creates a generic 409.
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewDuplicate is returned when a unique field collides.
func NewDuplicate(entity, field, value string) *AppError {
	return &AppError{
		Code:       CodeDuplicate,
		Message:    fmt.Sprintf("%s with this %s already exists", entity, field),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "field": field, "value": value},
	}
}

// IsAppError reports whether err wraps an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts the AppError from the chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsCode reports whether err is an AppError with the given code.
func IsCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound reports whether err is CodeNotFound.
func IsNotFound(err error) bool {
	return IsCode(err, CodeNotFound)
}

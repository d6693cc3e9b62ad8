// Package apperror provides structured error handling following RFC 7807 Problem Details.
// All business errors must use AppError for consistent API responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes for the posting engine's taxonomy.
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"

	// Validation errors (400)
	CodeValidation = "VALIDATION_ERROR"

	// Business rule violations (422)
	CodeUnbalanced             = "UNBALANCED_JOURNAL"
	CodeJournalPosted          = "JOURNAL_ALREADY_POSTED"
	CodeJournalNotPosted       = "JOURNAL_NOT_POSTED"
	CodeEmptyJournal           = "EMPTY_JOURNAL"
	CodePeriodClosed           = "PERIOD_CLOSED"
	CodeBatchState             = "BATCH_STATE_INVALID"
	CodeBatchMember            = "BATCH_MEMBER_INVALID"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"

	// Authorization errors (401, 403)
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeConflict = "CONFLICT"
)

// AppError is the standard error type for the engine.
// It implements the error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (violated rules, line numbers, amounts)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error.
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions ---

// NewValidation creates a validation error (400).
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404).
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewBusinessRule creates a business rule violation error (422).
func NewBusinessRule(code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewUnbalanced creates an unbalanced-journal error carrying the exact
// imbalance in minor currency units (debits minus credits).
func NewUnbalanced(journalNumber string, imbalance int64) *AppError {
	return &AppError{
		Code:       CodeUnbalanced,
		Message:    "Journal debits do not equal credits",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"journal_number": journalNumber,
			"imbalance":      imbalance,
		},
	}
}

// NewJournalPosted is returned for any mutation of a posted journal,
// including a second post attempt.
func NewJournalPosted(journalID any) *AppError {
	return &AppError{
		Code:       CodeJournalPosted,
		Message:    "Journal is already posted and cannot be modified",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"journal_id": journalID},
	}
}

// NewPeriodClosed creates an error for posting outside the open period.
func NewPeriodClosed(date string) *AppError {
	return &AppError{
		Code:       CodePeriodClosed,
		Message:    fmt.Sprintf("Accounting period for %s is not open for posting", date),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"date": date},
	}
}

// NewConcurrentModification creates an optimistic locking error.
func NewConcurrentModification(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeConcurrentModification,
		Message:    "Record was modified by another user. Please refresh and try again.",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInternal creates an internal server error (hides details from client).
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewUnauthorized creates an authentication error (401).
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewForbidden creates an authorization error (403).
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// NewConflict creates a conflict error (409).
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error.
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsNotFound checks if error is CodeNotFound.
func IsNotFound(err error) bool {
	return HasCode(err, CodeNotFound)
}

// IsConcurrentModification checks if error is CodeConcurrentModification.
func IsConcurrentModification(err error) bool {
	return HasCode(err, CodeConcurrentModification)
}

// HasCode checks whether err is an AppError with the given code.
func HasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

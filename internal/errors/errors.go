// Package errors provides custom error types for the gestOps API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, optional field context for
// validation failures, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Field      string `json:"field,omitempty"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		Field:      sentinel.Field,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		Field:      sentinel.Field,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// NewValidation creates a field-scoped validation error. The field name is
// included in the response body so clients can highlight the bad input.
func NewValidation(field, message string) *AppError {
	return &AppError{
		Code:       "VALIDATION_ERROR",
		Message:    message,
		Field:      field,
		StatusCode: http.StatusBadRequest,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrInvalidResetToken  = &AppError{Code: "INVALID_RESET_TOKEN", Message: "Reset token is invalid, expired, or already used", StatusCode: http.StatusBadRequest}
	ErrForbidden          = &AppError{Code: "PERMISSION_DENIED", Message: "You do not have permission to perform this action", StatusCode: http.StatusForbidden}
	ErrNotOperationOwner  = &AppError{Code: "PERMISSION_DENIED", Message: "Only the creator or a supervisor may modify this operation", StatusCode: http.StatusForbidden}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Person errors.
var (
	ErrPersonNotFound = &AppError{Code: "PERSON_NOT_FOUND", Message: "Person not found", StatusCode: http.StatusNotFound}
	ErrDuplicateTaxID = &AppError{Code: "DUPLICATE_TAX_ID", Message: "A person with this tax ID already exists", StatusCode: http.StatusConflict}
)

// Taxonomy errors.
var (
	ErrConceptNotFound      = &AppError{Code: "CONCEPT_NOT_FOUND", Message: "Concept not found", StatusCode: http.StatusNotFound}
	ErrDuplicateConceptName = &AppError{Code: "DUPLICATE_CONCEPT_NAME", Message: "A concept with this name already exists", StatusCode: http.StatusConflict}
	ErrCategoryNotFound     = &AppError{Code: "CATEGORY_NOT_FOUND", Message: "Category not found", StatusCode: http.StatusNotFound}
	ErrSubcategoryNotFound  = &AppError{Code: "SUBCATEGORY_NOT_FOUND", Message: "Subcategory not found", StatusCode: http.StatusNotFound}
)

// Operation errors.
var (
	ErrOperationNotFound  = &AppError{Code: "OPERATION_NOT_FOUND", Message: "Operation not found", StatusCode: http.StatusNotFound}
	ErrAttachmentNotFound = &AppError{Code: "ATTACHMENT_NOT_FOUND", Message: "No file is stored in this attachment slot", StatusCode: http.StatusNotFound}
	ErrInvalidSlot        = &AppError{Code: "INVALID_ATTACHMENT_SLOT", Message: "Unknown attachment slot", StatusCode: http.StatusBadRequest}
	ErrInvalidFile        = &AppError{Code: "INVALID_FILE", Message: "The uploaded file is not allowed", StatusCode: http.StatusBadRequest}
)

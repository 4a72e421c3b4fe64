package errors

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes
const (
	// Authentication errors
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"

	// Authorization errors
	ErrCodeForbidden = "FORBIDDEN"

	// Validation errors
	ErrCodeInvalidInput    = "INVALID_INPUT"
	ErrCodeValidationError = "VALIDATION_ERROR"

	// Resource errors
	ErrCodeNotFound = "NOT_FOUND"
	ErrCodeConflict = "CONFLICT"

	// Service errors
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// APIError represents a standardized API error response
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates a new APIError
func NewAPIError(code, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
	}
}

// NewAPIErrorWithDetails creates a new APIError with details
func NewAPIErrorWithDetails(code, message string, details interface{}) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// Kind classifies failures that are recovered at the request boundary.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindForbidden
	KindValidation
	KindConflict
	KindUnavailable
	KindUnauthorized
)

// DomainError is returned by services for expected failures.
// Anything else reaching Respond is reported as an internal error.
type DomainError struct {
	Kind    Kind
	Message string
	Details map[string]string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewNotFound creates a NotFound domain error.
func NewNotFound(message string) *DomainError {
	return &DomainError{Kind: KindNotFound, Message: message}
}

// NewForbidden creates a Forbidden domain error.
func NewForbidden(message string) *DomainError {
	return &DomainError{Kind: KindForbidden, Message: message}
}

// NewValidation creates a ValidationError domain error.
func NewValidation(message string) *DomainError {
	return &DomainError{Kind: KindValidation, Message: message}
}

// NewFieldValidation creates a ValidationError carrying a per-field message.
func NewFieldValidation(field, message string) *DomainError {
	return &DomainError{
		Kind:    KindValidation,
		Message: message,
		Details: map[string]string{field: message},
	}
}

// NewConflict creates a Conflict domain error.
func NewConflict(message string) *DomainError {
	return &DomainError{Kind: KindConflict, Message: message}
}

// NewUnavailable creates a ServiceUnavailable domain error.
func NewUnavailable(message string) *DomainError {
	return &DomainError{Kind: KindUnavailable, Message: message}
}

// NewUnauthorized creates an Unauthorized domain error.
func NewUnauthorized(message string) *DomainError {
	return &DomainError{Kind: KindUnauthorized, Message: message}
}

// IsKind reports whether err wraps a DomainError of the given kind.
func IsKind(err error, kind Kind) bool {
	var de *DomainError
	return stderrors.As(err, &de) && de.Kind == kind
}

// Respond translates err into a JSON error response.
// It reports whether err was a DomainError; unexpected errors become 500s
// and are left for the caller to log.
func Respond(c *gin.Context, err error) bool {
	var de *DomainError
	if !stderrors.As(err, &de) {
		InternalError(c, "")
		return false
	}

	switch de.Kind {
	case KindNotFound:
		NotFound(c, de.Message)
	case KindForbidden:
		Forbidden(c, de.Message)
	case KindValidation:
		if len(de.Details) > 0 {
			RespondWithError(c, http.StatusBadRequest, NewAPIErrorWithDetails(ErrCodeValidationError, de.Message, de.Details))
		} else {
			RespondWithError(c, http.StatusBadRequest, NewAPIError(ErrCodeValidationError, de.Message))
		}
	case KindConflict:
		Conflict(c, de.Message)
	case KindUnavailable:
		ServiceUnavailable(c, de.Message)
	case KindUnauthorized:
		Unauthorized(c, de.Message)
	default:
		InternalError(c, "")
		return false
	}
	return true
}

// RespondWithError sends an error response
func RespondWithError(c *gin.Context, statusCode int, err *APIError) {
	c.JSON(statusCode, err)
}

// Helper functions for common error responses

// Unauthorized sends a 401 response
func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Authentication required"
	}
	RespondWithError(c, http.StatusUnauthorized, NewAPIError(ErrCodeUnauthorized, message))
}

// Forbidden sends a 403 response
func Forbidden(c *gin.Context, message string) {
	if message == "" {
		message = "Access denied"
	}
	RespondWithError(c, http.StatusForbidden, NewAPIError(ErrCodeForbidden, message))
}

// NotFound sends a 404 response
func NotFound(c *gin.Context, message string) {
	if message == "" {
		message = "Resource not found"
	}
	RespondWithError(c, http.StatusNotFound, NewAPIError(ErrCodeNotFound, message))
}

// BadRequest sends a 400 response
func BadRequest(c *gin.Context, message string) {
	if message == "" {
		message = "Invalid request"
	}
	RespondWithError(c, http.StatusBadRequest, NewAPIError(ErrCodeInvalidInput, message))
}

// Conflict sends a 409 response
func Conflict(c *gin.Context, message string) {
	if message == "" {
		message = "Resource conflict"
	}
	RespondWithError(c, http.StatusConflict, NewAPIError(ErrCodeConflict, message))
}

// InternalError sends a 500 response
func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "Internal server error"
	}
	RespondWithError(c, http.StatusInternalServerError, NewAPIError(ErrCodeInternalError, message))
}

// ServiceUnavailable sends a 503 response
func ServiceUnavailable(c *gin.Context, message string) {
	if message == "" {
		message = "Service temporarily unavailable"
	}
	RespondWithError(c, http.StatusServiceUnavailable, NewAPIError(ErrCodeServiceUnavailable, message))
}

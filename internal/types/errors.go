package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode is a typed string for categorizing application errors.
type ErrorCode string

// Error code constants. Components use these instead of hardcoded strings.
const (
	// Validation
	ErrCodeInvalidParameters      ErrorCode = "validation_invalid_parameters"
	ErrCodeValidationMissingField ErrorCode = "validation_missing_required_field"
	ErrCodeValidationInvalidEmail ErrorCode = "validation_invalid_email"
	ErrCodeValidationPayload      ErrorCode = "validation_invalid_payload"

	// Not Found
	ErrCodeNotFoundUser         ErrorCode = "not_found_user"
	ErrCodeNotFoundPost         ErrorCode = "not_found_post"
	ErrCodeNotFoundNotification ErrorCode = "not_found_notification"

	// Internal/Upstream
	ErrCodeInternalDB            ErrorCode = "internal_database_error"
	ErrCodeInternalUnexpected    ErrorCode = "internal_unexpected_error"
	ErrCodeInternalTemplate      ErrorCode = "internal_template_error"
	ErrCodeUpstreamEmailProvider ErrorCode = "upstream_email_provider_unavailable"
	ErrCodeUpstreamUnavailable   ErrorCode = "upstream_unavailable"
	ErrCodeUpstreamRateLimited   ErrorCode = "upstream_rate_limited"
	ErrCodeUpstreamQueue         ErrorCode = "upstream_queue_unavailable"

	// Delivery
	ErrCodeEmailBlocked ErrorCode = "email_blocked"
)

// IsValidation reports whether the code belongs to the validation family.
func (c ErrorCode) IsValidation() bool {
	return strings.HasPrefix(string(c), "validation_")
}

// IsNotFound reports whether the code belongs to the not-found family.
func (c ErrorCode) IsNotFound() bool {
	return strings.HasPrefix(string(c), "not_found_")
}

// AppError is the standard application error type.
// Domain errors are expressed as AppError so callers can branch on Code
// while keeping the underlying cause reachable through errors.Is/errors.As.
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails returns a copy of the error with the provided details merged in.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	merged := make(map[string]any, len(e.Details)+len(details))
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     e.Err,
		Details: merged,
	}
}

// NewAppError creates a new AppError with the given code, message, and optional
// underlying error.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewAppErrorWithDetails creates a new AppError carrying structured details.
func NewAppErrorWithDetails(code ErrorCode, message string, err error, details map[string]any) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
		Details: details,
	}
}

// CodeOf extracts the ErrorCode from the first AppError in err's chain.
// Returns the empty code when err carries no AppError.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// InvalidParameters reports a contract violation on param. The parameter
// name is kept in Details["param"].
func InvalidParameters(param string) *AppError {
	return NewAppErrorWithDetails(ErrCodeInvalidParameters,
		"invalid parameters: "+param, nil, map[string]any{"param": param})
}

package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeValidation indicates missing or invalid local input,
	// caught before any network call is made.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeAuthRequired indicates the operation needs a valid
	// session and none is present, or the server rejected the
	// presented credential.
	ErrCodeAuthRequired ErrorCode = "auth_required"
	// ErrCodeNetwork indicates a transport or response-parse failure.
	ErrCodeNetwork ErrorCode = "network"
	// ErrCodeServer indicates the server refused the request for a
	// business reason and supplied (or should have supplied) a
	// displayable message.
	ErrCodeServer ErrorCode = "server"
)

// AppError represents a structured application error with a code, message, and optional cause.
// It supports error wrapping and unwrapping for use with errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is a human-readable error message
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
	// Field is the specific field that caused the error (optional, for validation errors)
	Field string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Validation creates a new Validation error.
func Validation(message string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: message,
	}
}

// Validationf creates a new Validation error with formatted message.
func Validationf(format string, args ...any) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf(format, args...),
	}
}

// ValidationField creates a new Validation error for a specific field.
func ValidationField(field, message string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: message,
		Field:   field,
	}
}

// AuthRequired creates a new AuthRequired error.
func AuthRequired(message string) *AppError {
	if message == "" {
		message = "Authentication required. Please sign in."
	}
	return &AppError{
		Code:    ErrCodeAuthRequired,
		Message: message,
	}
}

// Network creates a new Network error wrapping the transport cause.
func Network(message string, cause error) *AppError {
	return &AppError{
		Code:    ErrCodeNetwork,
		Message: message,
		Cause:   cause,
	}
}

// Networkf creates a new Network error with formatted message.
func Networkf(format string, args ...any) *AppError {
	return &AppError{
		Code:    ErrCodeNetwork,
		Message: fmt.Sprintf(format, args...),
	}
}

// Server creates a new Server error carrying a server-provided message.
// An empty message is replaced with a generic fallback so the UI always
// has something displayable.
func Server(message string) *AppError {
	if message == "" {
		message = "The server rejected the request."
	}
	return &AppError{
		Code:    ErrCodeServer,
		Message: message,
	}
}

// Code extracts the ErrorCode from an error, returning ErrCodeNetwork
// for errors that are not AppError instances (anything unclassified
// reached us through the transport layer).
func Code(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeNetwork
}

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool {
	return hasCode(err, ErrCodeValidation)
}

// IsAuthRequired checks if an error is an AuthRequired error.
func IsAuthRequired(err error) bool {
	return hasCode(err, ErrCodeAuthRequired)
}

// IsNetwork checks if an error is a Network error.
func IsNetwork(err error) bool {
	return hasCode(err, ErrCodeNetwork)
}

// IsServer checks if an error is a Server error.
func IsServer(err error) bool {
	return hasCode(err, ErrCodeServer)
}

func hasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// UserMessage returns a message suitable for direct display. AppError
// messages are shown as-is; anything else gets a generic wrapper so raw
// transport internals never leak to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return fmt.Sprintf("Something went wrong: %v", err)
}

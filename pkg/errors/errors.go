package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown       ErrorCode = "UNKNOWN"
	ErrInternal      ErrorCode = "INTERNAL"
	ErrInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrNotFound      ErrorCode = "NOT_FOUND"
	ErrAlreadyExists ErrorCode = "ALREADY_EXISTS"
	ErrUnavailable   ErrorCode = "UNAVAILABLE"

	// Configuration errors
	ErrConfigLoad    ErrorCode = "CONFIG_LOAD"
	ErrConfigInvalid ErrorCode = "CONFIG_INVALID"
	ErrUnknownSource ErrorCode = "UNKNOWN_SOURCE"
	ErrNoOperator    ErrorCode = "NO_OPERATOR"

	// Manifest errors
	ErrManifestNotFound ErrorCode = "MANIFEST_NOT_FOUND"
	ErrManifestParse    ErrorCode = "MANIFEST_PARSE"
	ErrManifestInvalid  ErrorCode = "MANIFEST_INVALID"
	ErrManifestWrite    ErrorCode = "MANIFEST_WRITE"
	ErrDuplicateEntry   ErrorCode = "DUPLICATE_ENTRY"

	// Scan and execution errors
	ErrScanFailed      ErrorCode = "SCAN_FAILED"
	ErrOperationFailed ErrorCode = "OPERATION_FAILED"
	ErrActionInvalid   ErrorCode = "ACTION_INVALID"

	// History errors
	ErrHistoryAppend  ErrorCode = "HISTORY_APPEND"
	ErrHistoryCorrupt ErrorCode = "HISTORY_CORRUPT"
	ErrHistoryInvalid ErrorCode = "HISTORY_INVALID"

	// Filesystem errors
	ErrFileAccess ErrorCode = "FILE_ACCESS"
	ErrFileDelete ErrorCode = "FILE_DELETE"
	ErrDirCreate  ErrorCode = "DIR_CREATE"

	// Advisor errors
	ErrAdvisorConfig    ErrorCode = "ADVISOR_CONFIG"
	ErrAdvisorRun       ErrorCode = "ADVISOR_RUN"
	ErrAdvisorDecisions ErrorCode = "ADVISOR_DECISIONS"
)

// PopctlError represents a structured error with code and details
type PopctlError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *PopctlError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *PopctlError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *PopctlError) Is(target error) bool {
	var targetErr *PopctlError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new PopctlError with the given code and message
func New(code ErrorCode, message string) *PopctlError {
	return &PopctlError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new PopctlError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *PopctlError {
	return &PopctlError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a PopctlError
func Wrap(err error, code ErrorCode, message string) *PopctlError {
	if err == nil {
		return nil
	}
	return &PopctlError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *PopctlError {
	if err == nil {
		return nil
	}
	return &PopctlError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *PopctlError) WithDetail(key string, value interface{}) *PopctlError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var popctlErr *PopctlError
	if errors.As(err, &popctlErr) {
		return popctlErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a PopctlError
func GetErrorCode(err error) ErrorCode {
	var popctlErr *PopctlError
	if errors.As(err, &popctlErr) {
		return popctlErr.Code
	}
	return ErrUnknown
}

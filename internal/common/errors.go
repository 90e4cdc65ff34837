package common

import (
	"errors"
	"fmt"
)

// Error codes shared by every pipeline stage.
const (
	CodeNotFound           = "NOT_FOUND"
	CodeUnsupportedType    = "UNSUPPORTED_TYPE"
	CodeDependency         = "DEPENDENCY"
	CodeConversion         = "CONVERSION"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeMalformedResponse  = "MALFORMED_RESPONSE"
	CodePersistence        = "PERSISTENCE"
	CodeValidation         = "VALIDATION"
	CodeInternal           = "INTERNAL"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches another *AppError by code, so errors.Is(err, ErrNotFound) works
// for any wrapped AppError carrying CodeNotFound.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is checks.
var (
	ErrNotFound           = &AppError{Code: CodeNotFound, Message: "resource not found"}
	ErrUnsupportedType    = &AppError{Code: CodeUnsupportedType, Message: "unsupported document type"}
	ErrDependency         = &AppError{Code: CodeDependency, Message: "required external tool is missing"}
	ErrConversion         = &AppError{Code: CodeConversion, Message: "document conversion failed"}
	ErrServiceUnavailable = &AppError{Code: CodeServiceUnavailable, Message: "completion service unavailable"}
	ErrMalformedResponse  = &AppError{Code: CodeMalformedResponse, Message: "malformed model response"}
	ErrPersistence        = &AppError{Code: CodePersistence, Message: "persistence failed"}
	ErrValidation         = &AppError{Code: CodeValidation, Message: "validation failed"}
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func NotFoundf(format string, args ...any) *AppError {
	return NewAppError(CodeNotFound, fmt.Sprintf(format, args...), nil)
}

func UnsupportedTypef(format string, args ...any) *AppError {
	return NewAppError(CodeUnsupportedType, fmt.Sprintf(format, args...), nil)
}

func DependencyError(message string, cause error) *AppError {
	return NewAppError(CodeDependency, message, cause)
}

func ConversionError(message string, cause error) *AppError {
	return NewAppError(CodeConversion, message, cause)
}

func ServiceUnavailableError(message string, cause error) *AppError {
	return NewAppError(CodeServiceUnavailable, message, cause)
}

func MalformedResponseError(message string, cause error) *AppError {
	return NewAppError(CodeMalformedResponse, message, cause)
}

func PersistenceError(message string, cause error) *AppError {
	return NewAppError(CodePersistence, message, cause)
}

// CodeOf returns the code of the first AppError in err's chain, or CodeInternal.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

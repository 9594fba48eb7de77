package errors

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// Error type constants.
const (
	ErrTypeMemory     = "memory"
	ErrTypeOracle     = "oracle"
	ErrTypeDecoder    = "decoder"
	ErrTypeConfig     = "config"
	ErrTypeInvalidArg = "invalid_argument"
	ErrTypePermission = "permission"
	ErrTypeNotFound   = "not_found"
	ErrTypeInternal   = "internal"
)

// AppError represents an application error.
type AppError struct {
	Type    string   `json:"type"`
	Message string   `json:"message"`
	Cause   error    `json:"-"`
	Code    int      `json:"-"`
	Stack   []string `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap for error chains.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithStack captures the current call stack onto the error.
func (e *AppError) WithStack() *AppError {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(2, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	stack := make([]string, 0, n)
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			stack = append(stack, fmt.Sprintf("%s:%d %s", frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}

	e.Stack = stack
	return e
}

// New creates a new application error.
func New(errType, message string, cause error, code int) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Code:    code,
	}
}

// Newf creates a new application error with a formatted message.
func Newf(errType string, cause error, code int, format string, args ...any) *AppError {
	return New(errType, fmt.Sprintf(format, args...), cause, code)
}

// Wrap wraps an existing error as an AppError, preserving type and code
// if the wrapped error already is one.
func Wrap(err error, errType, message string, code int) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return &AppError{
			Type:    appErr.Type,
			Message: message,
			Cause:   appErr.Cause,
			Code:    appErr.Code,
			Stack:   appErr.Stack,
		}
	}

	return New(errType, message, err, code)
}

// Is reports whether err is an AppError of the given type.
func Is(err error, errType string) bool {
	if err == nil {
		return false
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}

// GetType returns the AppError type of err, or "unknown".
func GetType(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return "unknown"
}

// GetCode returns the status code carried by err.
func GetCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return http.StatusInternalServerError
}

// RootCause walks the error chain and returns the innermost error.
func RootCause(err error) error {
	for err != nil {
		unwrapped := errors.Unwrap(err)
		if unwrapped == nil {
			return err
		}
		err = unwrapped
	}
	return err
}

// ErrInvalidArg builds an invalid-argument error.
func ErrInvalidArg(param string) *AppError {
	return Newf(ErrTypeInvalidArg, nil, http.StatusBadRequest, "invalid arg: %s", param).WithStack()
}

// Internal builds an internal error.
func Internal(message string, cause error) *AppError {
	return New(ErrTypeInternal, message, cause, http.StatusInternalServerError).WithStack()
}

// Config builds a configuration error.
func Config(message string, cause error) *AppError {
	return New(ErrTypeConfig, message, cause, http.StatusInternalServerError).WithStack()
}

// NotFound builds a resource-not-found error.
func NotFound(resource string, cause error) *AppError {
	return New(ErrTypeNotFound, fmt.Sprintf("resource not found: %s", resource), cause, http.StatusNotFound).WithStack()
}

package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeDiff       ErrorType = "diff"
	ErrorTypePatch      ErrorType = "patch"
	ErrorTypeRender     ErrorType = "render"
	ErrorTypeInternal   ErrorType = "internal"
)

// Error is a structured error with context.
type Error struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Context     map[string]any
	NodeID      string
	Recoverable bool
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.NodeID != "" {
		parts = append(parts, "node:"+e.NodeID)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors of the same type and code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value

	return e
}

// WithNode records the node the error refers to.
func (e *Error) WithNode(id string) *Error {
	e.NodeID = id

	return e
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *Error {
	return &Error{
		Type:        ErrorTypeValidation,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *Error {
	return &Error{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *Error {
	return &Error{
		Type:    ErrorTypeIO,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewDiffError creates an error for trees that cannot be diffed.
func NewDiffError(code, message string) *Error {
	return &Error{
		Type:    ErrorTypeDiff,
		Code:    code,
		Message: message,
	}
}

// NewPatchError creates an error for an edit script that does not apply.
func NewPatchError(code, message string) *Error {
	return &Error{
		Type:    ErrorTypePatch,
		Code:    code,
		Message: message,
	}
}

// NewRenderError creates an error for a node that failed to render.
// Render errors are replaced by markers, so they are recoverable.
func NewRenderError(code, message string, cause error) *Error {
	return &Error{
		Type:        ErrorTypeRender,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *Error {
	return &Error{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Recoverable
	}

	return false
}

// IsType reports whether err is an *Error of the given type.
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == errType
	}

	return false
}

// Common error codes.
const (
	ErrCodeRootMismatch     = "ERR_ROOT_MISMATCH"
	ErrCodeNilTree          = "ERR_NIL_TREE"
	ErrCodeUnknownNode      = "ERR_UNKNOWN_NODE"
	ErrCodeInvalidOperation = "ERR_INVALID_OPERATION"
	ErrCodeInvalidIndex     = "ERR_INVALID_INDEX"
	ErrCodeRenderFailed     = "ERR_RENDER_FAILED"
	ErrCodeConfigInvalid    = "ERR_CONFIG_INVALID"
	ErrCodeFileNotFound     = "ERR_FILE_NOT_FOUND"
	ErrCodeUnsupportedFile  = "ERR_UNSUPPORTED_FILE"
	ErrCodeDecodeFailed     = "ERR_DECODE_FAILED"
	ErrCodeEncodeFailed     = "ERR_ENCODE_FAILED"
	ErrCodeValidationFailed = "ERR_VALIDATION_FAILED"
	ErrCodeInternalError    = "ERR_INTERNAL"
)

// ErrUnknownNode creates the patch error for an edit that references an id
// missing from the tree being patched.
func ErrUnknownNode(id string) *Error {
	return NewPatchError(ErrCodeUnknownNode, "unknown node: "+id).WithNode(id)
}

// ErrRootMismatch creates the diff error for trees with different roots.
func ErrRootMismatch(oldID, newID string) *Error {
	return NewDiffError(
		ErrCodeRootMismatch,
		fmt.Sprintf("root ids differ: %q != %q", oldID, newID),
	).WithContext("old", oldID).WithContext("new", newID)
}

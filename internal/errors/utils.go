package errors

import (
	"errors"
	"fmt"
)

// Wrap wraps an error with additional context, creating an *Error if the input is not already one.
func Wrap(err error, errType ErrorType, code, message string) *Error {
	if err == nil {
		return nil
	}

	// Keep the node and context of a wrapped *Error.
	var e *Error
	if errors.As(err, &e) {
		return &Error{
			Type:        errType,
			Code:        code,
			Message:     message,
			Cause:       e,
			Context:     e.Context,
			NodeID:      e.NodeID,
			Recoverable: e.Recoverable,
		}
	}

	return &Error{
		Type:        errType,
		Code:        code,
		Message:     message,
		Cause:       err,
		Recoverable: errType == ErrorTypeValidation || errType == ErrorTypeRender,
	}
}

// WrapWithContext wraps an error with context information.
func WrapWithContext(err error, errType ErrorType, code, message string, context map[string]any) *Error {
	wrapped := Wrap(err, errType, code, message)
	if wrapped != nil {
		wrapped.Context = context
	}
	return wrapped
}

// WrapIO wraps an error as a file error and records the path.
func WrapIO(err error, code, path string) *Error {
	wrapped := Wrap(err, ErrorTypeIO, code, "file operation failed: "+path)
	if wrapped != nil {
		wrapped.Recoverable = false
		wrapped.Context = map[string]any{"path": path}
	}
	return wrapped
}

// WrapConfig wraps an error as a configuration error.
func WrapConfig(err error, code, message string) *Error {
	wrapped := Wrap(err, ErrorTypeConfig, code, message)
	if wrapped != nil {
		wrapped.Recoverable = false
	}
	return wrapped
}

// WrapValidation wraps an error as a validation error.
func WrapValidation(err error, code, message string) *Error {
	return Wrap(err, ErrorTypeValidation, code, message)
}

// EnhanceError adds the operation and subject to a plain error message.
func EnhanceError(err error, operation, subject string) error {
	if err == nil {
		return nil
	}
	if subject == "" {
		return fmt.Errorf("%s: %w", operation, err)
	}
	return fmt.Errorf("%s %s: %w", operation, subject, err)
}

// ExtractNodeID returns the node id recorded anywhere in err's chain.
func ExtractNodeID(err error) string {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return ""
		}
		if e.NodeID != "" {
			return e.NodeID
		}
		err = e.Cause
	}
	return ""
}

// GetRootCause returns the innermost error in err's chain.
func GetRootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

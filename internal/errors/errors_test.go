package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorSeverityString(t *testing.T) {
	testCases := []struct {
		severity ErrorSeverity
		expected string
	}{
		{ErrorSeverityInfo, "info"},
		{ErrorSeverityWarning, "warning"},
		{ErrorSeverityError, "error"},
		{ErrorSeverityFatal, "fatal"},
		{ErrorSeverity(999), "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.severity.String())
		})
	}
}

func TestErrorMessage(t *testing.T) {
	testCases := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "code and message",
			err:      NewDiffError(ErrCodeRootMismatch, "roots differ"),
			expected: "[ERR_ROOT_MISMATCH] roots differ",
		},
		{
			name:     "with node",
			err:      ErrUnknownNode("n1"),
			expected: "[ERR_UNKNOWN_NODE] node:n1 unknown node: n1",
		},
		{
			name:     "with cause",
			err:      NewIOError(ErrCodeFileNotFound, "missing", fmt.Errorf("boom")),
			expected: "[ERR_FILE_NOT_FOUND] missing: boom",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.err.Error())
		})
	}
}

func TestErrorIsAndAs(t *testing.T) {
	err := fmt.Errorf("upsert: %w", ErrUnknownNode("n1"))

	assert.True(t, errors.Is(err, NewPatchError(ErrCodeUnknownNode, "")))
	assert.False(t, errors.Is(err, NewDiffError(ErrCodeUnknownNode, "")))
	assert.True(t, IsType(err, ErrorTypePatch))
	assert.False(t, IsRecoverable(err))

	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "n1", e.NodeID)
}

func TestRecoverableDefaults(t *testing.T) {
	assert.True(t, NewValidationError("X", "x").Recoverable)
	assert.True(t, NewRenderError(ErrCodeRenderFailed, "x", nil).Recoverable)
	assert.False(t, NewPatchError("X", "x").Recoverable)
	assert.False(t, NewDiffError("X", "x").Recoverable)
	assert.False(t, NewConfigError("X", "x").Recoverable)
	assert.False(t, IsRecoverable(fmt.Errorf("plain")))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrorTypeIO, "X", "x"))

	base := errors.New("disk full")
	wrapped := WrapIO(base, ErrCodeEncodeFailed, "/tmp/out.cbor")
	require.NotNil(t, wrapped)
	assert.Equal(t, ErrorTypeIO, wrapped.Type)
	assert.Equal(t, "/tmp/out.cbor", wrapped.Context["path"])
	assert.Same(t, base, GetRootCause(wrapped))

	inner := ErrUnknownNode("n7")
	outer := Wrap(inner, ErrorTypeInternal, ErrCodeInternalError, "upsert failed")
	assert.Equal(t, "n7", outer.NodeID)
	assert.Equal(t, "n7", ExtractNodeID(outer))
	assert.Equal(t, "", ExtractNodeID(base))

	ctx := WrapWithContext(base, ErrorTypeValidation, ErrCodeValidationFailed, "bad", map[string]any{"k": 1})
	assert.Equal(t, 1, ctx.Context["k"])
	assert.True(t, ctx.Recoverable)
}

func TestEnhanceError(t *testing.T) {
	base := errors.New("eof")

	assert.Nil(t, EnhanceError(nil, "load", "a.yaml"))
	assert.EqualError(t, EnhanceError(base, "load", "a.yaml"), "load a.yaml: eof")
	assert.EqualError(t, EnhanceError(base, "load", ""), "load: eof")
	assert.ErrorIs(t, EnhanceError(base, "load", "a.yaml"), base)
}

func TestCollector(t *testing.T) {
	c := NewCollector()
	assert.False(t, c.HasErrors())

	c.Add(NodeError{NodeID: "a", Name: "div", Message: "empty tag", Severity: ErrorSeverityError})
	c.Add(NodeError{NodeID: "b", Name: "span", Message: "panic", Severity: ErrorSeverityFatal})
	c.AddError(nil)
	c.AddError(errors.New("general"))

	assert.True(t, c.HasErrors())
	require.Len(t, c.NodeErrors(), 2)
	assert.False(t, c.NodeErrors()[0].Timestamp.IsZero())
	assert.Len(t, c.ErrorsForNode("a"), 1)
	assert.Empty(t, c.ErrorsForNode("z"))

	all := c.AllErrors()
	require.Len(t, all, 3)
	assert.Equal(t, "a <div>: error: empty tag", all[0].Error())
	assert.Equal(t, "general", all[2].Error())

	c.Clear()
	assert.False(t, c.HasErrors())
}

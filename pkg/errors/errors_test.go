package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidInput, "test message: %s", "value")

	if err.Code != ErrCodeInvalidInput {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidInput)
	}

	if err.Message != "test message: value" {
		t.Errorf("Message = %v, want %v", err.Message, "test message: value")
	}

	expected := "INVALID_INPUT: test message: value"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeFileNotFound, cause, "failed to open")

	if err.Code != ErrCodeFileNotFound {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeFileNotFound)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	if unwrapped := errors.Unwrap(err); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeInvalidInput, "test"),
			code:     ErrCodeInvalidInput,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeInvalidInput, "test"),
			code:     ErrCodeInvalidFormat,
			expected: false,
		},
		{
			name:     "wrapped error",
			err:      Wrap(ErrCodeInvalidManifest, New(ErrCodeInvalidInput, "inner"), "outer"),
			code:     ErrCodeInvalidManifest,
			expected: true,
		},
		{
			name:     "typed merge error",
			err:      &LayerConflictError{Layer: "rst", Reason: "token count differs"},
			code:     ErrCodeLayerConflict,
			expected: true,
		},
		{
			name:     "typed merge error behind fmt wrap",
			err:      fmt.Errorf("merge: %w", &AlignmentError{Layer: "coref", Node: "w1"}),
			code:     ErrCodeAlignment,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeInvalidInput,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInvalidInput,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{"Error type", New(ErrCodeInvalidLayer, "test"), ErrCodeInvalidLayer},
		{"alignment", &AlignmentError{}, ErrCodeAlignment},
		{"unresolved", &UnresolvedReferenceError{}, ErrCodeUnresolvedReference},
		{"conflict", &LayerConflictError{}, ErrCodeLayerConflict},
		{"duplicate", &DuplicateMergeWarning{}, ErrCodeDuplicateMerge},
		{"plain error", errors.New("plain"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(New(ErrCodeInvalidInput, "bad input")); got != "bad input" {
		t.Errorf("UserMessage() = %q, want %q", got, "bad input")
	}
	plain := errors.New("plain")
	if got := UserMessage(plain); got != "plain" {
		t.Errorf("UserMessage() = %q, want %q", got, "plain")
	}
}

func TestMergeErrorMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{
			&AlignmentError{Layer: "coref", Node: "w9", Anchor: "offset 9", Reason: "out of range"},
			`alignment: layer "coref" node "w9" (offset 9): out of range`,
		},
		{
			&UnresolvedReferenceError{Layer: "rst", RawID: "x", Source: "a", Target: "x"},
			`unresolved reference: layer "rst" edge a->x: unknown node "x"`,
		},
		{
			&UnresolvedReferenceError{Layer: "rst", RawID: "x"},
			`unresolved reference: layer "rst" node "x"`,
		},
		{
			&LayerConflictError{Layer: "a", Other: "b", Reason: "token count 3 != 4"},
			`layer conflict: "a" vs "b": token count 3 != 4`,
		},
		{
			&DuplicateMergeWarning{Layer: "tiger"},
			`duplicate merge: layer "tiger" already present`,
		},
	}

	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

// Package errors provides structured error types for layermerge.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the merge engine, importers and CLI
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - NOT_FOUND_*: Resource not found
//   - Merge codes (ALIGNMENT, UNRESOLVED_REFERENCE, LAYER_CONFLICT, ...):
//     defects detected while merging annotation layers
//   - INTERNAL_*: Unexpected internal errors
//
// # Merge Taxonomy
//
// The merge engine reports four kinds of defects, each with its own type:
//
//   - [AlignmentError]: a token anchor does not resolve into the canonical
//     token sequence. Fatal for the affected node only.
//   - [UnresolvedReferenceError]: an edge references an unregistered node.
//     The edge is dropped and recorded.
//   - [LayerConflictError]: two layers claim incompatible canonical tokens,
//     or a layer name collides with an already merged layer. Fatal for the
//     whole merge call and raised before any mutation.
//   - [DuplicateMergeWarning]: re-merging an identical layer. Non-fatal.
//
// All of them implement Code() so [GetCode] works uniformly.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "unknown format: %s", format)
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeFileNotFound, origErr, "open %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidFormat   Code = "INVALID_FORMAT"
	ErrCodeInvalidLayer    Code = "INVALID_LAYER"
	ErrCodeInvalidManifest Code = "INVALID_MANIFEST"
	ErrCodeInvalidPath     Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeNotFound      Code = "NOT_FOUND"
	ErrCodeFileNotFound  Code = "FILE_NOT_FOUND"
	ErrCodeLayerNotFound Code = "LAYER_NOT_FOUND"

	// Merge errors
	ErrCodeAlignment           Code = "ALIGNMENT"
	ErrCodeUnresolvedReference Code = "UNRESOLVED_REFERENCE"
	ErrCodeLayerConflict       Code = "LAYER_CONFLICT"
	ErrCodeDuplicateMerge      Code = "DUPLICATE_MERGE"
	ErrCodeNoTokenizingLayer   Code = "NO_TOKENIZING_LAYER"
	ErrCodeEdgeSkipped         Code = "EDGE_SKIPPED"
	ErrCodeOrphanAnnotation    Code = "ORPHAN_ANNOTATION"
	ErrCodeCanceled            Code = "CANCELED"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// coder is implemented by every typed error in this package.
type coder interface {
	error
	Code() Code
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error or a typed merge error
// with a matching code.
func Is(err error, code Code) bool {
	return err != nil && GetCode(err) == code
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if no error in the chain carries a code.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var c coder
	if errors.As(err, &c) {
		return c.Code()
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// As is the standard library errors.As.
func As(err error, target any) bool { return errors.As(err, target) }

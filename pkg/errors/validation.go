package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// maxLayerNameLength bounds layer names accepted from manifests and importers.
const maxLayerNameLength = 128

// ValidateLayerName validates a layer name for use as a namespace source.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters or whitespace
//   - No ':' (reserved as the namespace separator in global IDs)
//   - Maximum length of 128 characters
func ValidateLayerName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidLayer, "layer name cannot be empty")
	}

	if len(name) > maxLayerNameLength {
		return New(ErrCodeInvalidLayer, "layer name too long (max %d characters)", maxLayerNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidLayer, "layer name contains whitespace or control characters: %q", name)
		}
	}

	if strings.Contains(name, ":") {
		return New(ErrCodeInvalidLayer, "layer name cannot contain ':': %q", name)
	}

	return nil
}

// shortNameRegex matches short names usable verbatim as namespace prefixes.
var shortNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// ValidateShortName validates an explicit namespace short name.
// An empty short name is valid; the layer name is used instead.
func ValidateShortName(short string) error {
	if short == "" {
		return nil
	}
	if !shortNameRegex.MatchString(short) {
		return New(ErrCodeInvalidLayer, "invalid short name: %q", short)
	}
	return nil
}

// ValidatePath validates an input file path from a merge manifest.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}

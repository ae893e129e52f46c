package errors

import (
	"strings"
	"unicode"
)

// ValidatePathSegment checks that s can be used as a single directory or file
// name component. Split, language and phrase values from the dataset end up
// as path segments of the landmark output tree, so they must not escape it.
func ValidatePathSegment(kind, s string) error {
	if s == "" {
		return New(ErrCodeInvalidRecord, "%s cannot be empty", kind)
	}
	if s == "." || s == ".." {
		return New(ErrCodeInvalidRecord, "%s cannot be %q", kind, s)
	}
	for _, r := range s {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidRecord, "%s contains invalid control characters", kind)
		}
	}
	if strings.ContainsAny(s, `/\`) {
		return New(ErrCodeInvalidRecord, "%s cannot contain path separators: %q", kind, s)
	}
	return nil
}

package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// maxDestinationLength bounds destination names accepted from users.
const maxDestinationLength = 253

// destinationRegex matches host names and dotted IPv4 addresses.
var destinationRegex = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9.-]*[A-Za-z0-9])?$`)

// ValidateDestination validates a destination name before it is used as a
// route table key or in a cache key.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters or whitespace
//   - No path traversal sequences (.., /, \)
//   - Maximum length of 253 characters (DNS limit)
func ValidateDestination(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "destination cannot be empty")
	}

	if len(name) > maxDestinationLength {
		return New(ErrCodeInvalidInput, "destination too long (max %d characters)", maxDestinationLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "destination contains invalid characters")
		}
	}

	for _, pattern := range []string{"..", "/", "\\"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidInput, "destination contains invalid characters: %q", pattern)
		}
	}

	if !destinationRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid destination: %q", name)
	}

	return nil
}

// ValidatePath validates an output path given on the command line.
// Absolute paths are allowed; traversal and control characters are not.
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidInput, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "path contains invalid characters")
		}
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidInput, "path cannot contain path traversal sequences (..)")
	}

	return nil
}

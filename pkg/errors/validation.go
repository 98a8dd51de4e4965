package errors

import (
	"regexp"
	"strings"
	"time"
	"unicode"
)

// isoDateRegex matches a strict YYYY-MM-DD calendar date.
var isoDateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// IsISODate reports whether s has the YYYY-MM-DD shape.
// It checks the shape only; use ValidateDate to also reject 2024-02-31.
func IsISODate(s string) bool {
	return isoDateRegex.MatchString(s)
}

// ValidateDate validates that s is a real calendar date in YYYY-MM-DD form.
func ValidateDate(s string) error {
	if s == "" {
		return New(ErrCodeInvalidDate, "date cannot be empty")
	}
	if !IsISODate(s) {
		return New(ErrCodeInvalidDate, "date %q is not YYYY-MM-DD", s)
	}
	if _, err := time.Parse(time.DateOnly, s); err != nil {
		return Wrap(ErrCodeInvalidDate, err, "date %q is not a calendar date", s)
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidURL, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidURL, "URL must use http or https scheme")
	}

	return nil
}

// ValidateID validates a record identifier used as a lookup key and URL
// segment. It rejects names that could be used for path traversal.
func ValidateID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "id cannot be empty")
	}

	if len(id) > 256 {
		return New(ErrCodeInvalidInput, "id too long (max 256 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "id contains invalid control characters")
		}
	}

	for _, pattern := range []string{"..", "/", "\\"} {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidInput, "id contains invalid characters: %q", pattern)
		}
	}

	return nil
}

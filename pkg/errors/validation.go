package errors

import (
	"strings"
	"unicode"
)

// ValidateObjectName validates an astronomical object name before it is sent
// to a remote resolver or archive.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters or null bytes
//   - Maximum length of 256 characters
//
// Catalog designations are free-form ("M 31", "NGC 4151", "2MASS J00424433+4116074"),
// so anything printable is allowed; service-specific syntax is the service's
// business.
func ValidateObjectName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidInput, "object name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidInput, "object name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "object name contains control characters")
		}
	}

	return nil
}

// ValidateADQL validates ADQL query text before submission.
// It does not parse the query; syntax errors are the service's to report.
// It only rejects input that can never be a legitimate query.
func ValidateADQL(query string) error {
	if strings.TrimSpace(query) == "" {
		return New(ErrCodeInvalidQuery, "query cannot be empty")
	}

	const maxQueryLength = 100000
	if len(query) > maxQueryLength {
		return New(ErrCodeInvalidQuery, "query too long (max %d characters)", maxQueryLength)
	}

	for _, r := range query {
		if r == '\x00' {
			return New(ErrCodeInvalidQuery, "query contains null bytes")
		}
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			return New(ErrCodeInvalidQuery, "query contains control characters")
		}
	}

	return nil
}

// ValidateTableName validates a remote table or catalog identifier
// (e.g. "gaiadr3.gaia_source", "II/246/out").
// VizieR identifiers contain slashes and plus signs, so the rule set is loose:
// printable, non-empty, bounded, no whitespace.
func ValidateTableName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "table name cannot be empty")
	}

	if len(name) > 128 {
		return New(ErrCodeInvalidInput, "table name too long (max 128 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "table name contains invalid characters: %q", name)
		}
	}

	return nil
}

// ValidateOutputPath validates a local file path supplied for query output.
// It prevents path traversal out of the working tree when the path came from
// untrusted input and ensures reasonable length.
func ValidateOutputPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "output path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "output path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "output path contains invalid characters")
		}
	}

	return nil
}

// ValidateURL validates a service endpoint URL.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}

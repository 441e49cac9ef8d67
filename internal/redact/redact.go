// Package redact scrubs sensitive fragments from strings before they reach
// logs or error responses: connection strings, tokens, passwords and email
// addresses.
package redact

import "regexp"

// RedactionPlaceholder replaces matched sensitive fragments.
const RedactionPlaceholder = "[REDACTED]"

var (
	dbConnRegex   = regexp.MustCompile(`(?i)(postgres|redis|mysql)://[^@\s]+@`)
	passwordRegex = regexp.MustCompile(`(?i)(password|passwd|pwd)([=:\s]?['"]?)[^'"&\s]{3,}`)
	jwtTokenRegex = regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`)
	secretRegex   = regexp.MustCompile(`(?i)(secret|token|api[_-]?key)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`)
	emailRegex    = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

	patterns = []*regexp.Regexp{
		dbConnRegex, passwordRegex, jwtTokenRegex, secretRegex, emailRegex,
	}
)

// String redacts sensitive information from the input string.
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, pattern := range patterns {
		result = pattern.ReplaceAllString(result, RedactionPlaceholder)
	}
	return result
}

// Error redacts sensitive information from an error's Error() output.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}

// Package redact strips credentials, connection strings and other
// sensitive fragments from error messages before they are logged. The
// generation backends take API keys and the stores take connection URLs;
// both have a habit of echoing them back inside errors.
package redact

import (
	"regexp"
)

// Placeholders substituted for redacted content.
const (
	RedactionPlaceholder          = "[REDACTED]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
	RedactedPathPlaceholder       = "[REDACTED_PATH]"
)

var (
	// Connection strings with embedded credentials.
	dbConnRegex = regexp.MustCompile(`(?i)(postgres|postgresql|mysql|sqlite|db|database)://[^@\s]+@`)

	// API keys and bearer tokens. Covers the OpenAI sk- prefix and the
	// generic key=value shapes SDK errors tend to include.
	openaiKeyRegex = regexp.MustCompile(`\bsk-[A-Za-z0-9_-]{16,}\b`)
	apiKeyRegex    = regexp.MustCompile(`(?i)(api[_-]?key|token|secret|key|auth)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`)
	awsKeyRegex    = regexp.MustCompile(`(AKIA|AccessKey(Id)?)([^a-zA-Z0-9])?[A-Z0-9]{8,}`)
	passwordRegex  = regexp.MustCompile(`(?i)(password|passwd|pwd)([=:\s]?['"]?)[^'"&\s]{3,}`)

	// File paths.
	unixPathRegex = regexp.MustCompile(`(/[\w.-]+){2,}`)

	// Host:port pairs from dial errors.
	hostPortRegex = regexp.MustCompile(`\b(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}(?::\d{1,5})?\b`)

	// SQL fragments leaked by driver errors.
	sqlRegex = regexp.MustCompile(`(?i)(SELECT|INSERT|UPDATE|DELETE|CREATE|ALTER|DROP)[\s\w,*()]+(?:FROM|INTO|SET|TABLE|DATABASE)(?:[\s\w,*()='"]+)?`)
)

// String redacts sensitive fragments from the given string.
func String(s string) string {
	if s == "" {
		return s
	}

	s = dbConnRegex.ReplaceAllString(s, RedactedCredentialPlaceholder)
	s = openaiKeyRegex.ReplaceAllString(s, RedactedKeyPlaceholder)
	s = apiKeyRegex.ReplaceAllString(s, "${1}${2}"+RedactedKeyPlaceholder)
	s = awsKeyRegex.ReplaceAllString(s, RedactedKeyPlaceholder)
	s = passwordRegex.ReplaceAllString(s, "${1}${2}"+RedactedCredentialPlaceholder)
	s = sqlRegex.ReplaceAllString(s, RedactionPlaceholder)
	s = unixPathRegex.ReplaceAllString(s, RedactedPathPlaceholder)
	s = hostPortRegex.ReplaceAllString(s, RedactionPlaceholder)

	return s
}

// Error redacts an error's message. Nil errors produce an empty string.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}

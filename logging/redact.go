package logging

import "strings"

// RedactedPlaceholder replaces sensitive values in log output.
const RedactedPlaceholder = "[REDACTED]"

// sensitiveHeaderNames are request header names whose values must never be
// logged verbatim. Matching is case-insensitive.
var sensitiveHeaderNames = []string{
	"authorization",
	"proxy-authorization",
	"x-api-key",
	"api-key",
	"cookie",
}

// IsSensitiveHeader reports whether the named header carries a credential.
func IsSensitiveHeader(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	for _, s := range sensitiveHeaderNames {
		if lower == s {
			return true
		}
	}
	return false
}

// RedactHeaders returns a copy of the header map with credential values
// replaced by RedactedPlaceholder. Safe to pass to a log field.
func RedactHeaders(headers map[string]string) map[string]string {
	if len(headers) == 0 {
		return headers
	}
	out := make(map[string]string, len(headers))
	for name, value := range headers {
		if IsSensitiveHeader(name) {
			out[name] = RedactedPlaceholder
		} else {
			out[name] = value
		}
	}
	return out
}

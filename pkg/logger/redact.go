package logger

import (
	"regexp"
)

// Patterns that must never reach the logs in clear text. Matched against
// query strings, header values and error detail strings.
var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(password|passwd|secret|token|api_?key|authorization)=[^&\s]+`),
	regexp.MustCompile(`(?i)bearer\s+[a-z0-9\-._~+/]+=*`),
	regexp.MustCompile(`sk_(live|test)_[a-zA-Z0-9]+`),
	regexp.MustCompile(`whsec_[a-zA-Z0-9]+`),
}

// Redact replaces sensitive substrings with a fixed marker.
func Redact(s string) string {
	for _, p := range sensitivePatterns {
		s = p.ReplaceAllString(s, "[REDACTED]")
	}
	return s
}

// MaskToken shortens a credential to its first and last few characters so it
// stays correlatable in logs without being usable.
func MaskToken(val string) string {
	if len(val) > 15 {
		return val[:10] + "..." + val[len(val)-5:]
	}
	return "[MASKED]"
}

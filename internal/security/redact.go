// Package security masks credentials before they reach logs or the screen.
package security

import (
	"regexp"
	"strings"
)

// secretPatterns match API keys and bearer tokens inside free text.
var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`pplx-[A-Za-z0-9]{16,}`),
	regexp.MustCompile(`sk-[A-Za-z0-9_\-]{20,}`),
	regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._\-]+`),
}

// MaskCredential masks a credential value, keeping a short prefix and suffix.
func MaskCredential(value string) string {
	if len(value) == 0 {
		return ""
	}
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	if len(value) <= 8 {
		return value[:2] + strings.Repeat("*", len(value)-2)
	}
	return value[:4] + strings.Repeat("*", len(value)-8) + value[len(value)-4:]
}

// Redact masks every API key or bearer token found in s.
func Redact(s string) string {
	for _, pattern := range secretPatterns {
		s = pattern.ReplaceAllStringFunc(s, func(match string) string {
			if fields := strings.Fields(match); len(fields) == 2 {
				return fields[0] + " " + MaskCredential(fields[1])
			}
			return MaskCredential(match)
		})
	}
	return s
}

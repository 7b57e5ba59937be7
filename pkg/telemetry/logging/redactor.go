package logging

import (
	"log/slog"
	"regexp"
	"strings"
)

// Redactor masks credentials in log attributes: values under sensitive keys
// are replaced outright, and key-like substrings of other string values are
// masked.
type Redactor struct {
	patterns []redactPattern
}

// redactPattern contains a compiled regex and replacement string.
type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// Pattern names.
const (
	PatternAPIKey      = "api_key"
	PatternBearerToken = "bearer_token"
	PatternPassword    = "password"
)

// sensitiveKeys are attribute keys whose values are always masked.
var sensitiveKeys = []string{
	"password", "passwd", "secret",
	"api_key", "apikey", "authorization",
	"access_token", "auth_token", "refresh_token",
	"private_key", "privatekey",
}

// NewRedactor creates a redactor with the built-in credential patterns.
func NewRedactor() *Redactor {
	return &Redactor{
		patterns: []redactPattern{
			{
				// Bearer tokens, before api keys so "Bearer sk-..." collapses once
				name:        PatternBearerToken,
				regex:       regexp.MustCompile(`Bearer\s+[a-zA-Z0-9\-._~+/]+=*`),
				replacement: "Bearer ***",
			},
			{
				// OpenAI/Anthropic style keys (sk-..., sk-ant-...)
				name:        PatternAPIKey,
				regex:       regexp.MustCompile(`sk-[a-zA-Z0-9\-_]{4,}`),
				replacement: "sk-***",
			},
			{
				name:        PatternPassword,
				regex:       regexp.MustCompile(`(password|passwd|pwd)[:=]\s*[^\s]+`),
				replacement: "$1: ***",
			},
		},
	}
}

// RedactString masks credentials in value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}
	for _, p := range r.patterns {
		value = p.regex.ReplaceAllString(value, p.replacement)
	}
	return value
}

// ReplaceAttr is a slog.HandlerOptions.ReplaceAttr function.
func (r *Redactor) ReplaceAttr(_ []string, a slog.Attr) slog.Attr {
	if isSensitiveKey(a.Key) {
		if a.Value.Kind() == slog.KindString {
			return slog.String(a.Key, RedactAPIKey(a.Value.String()))
		}
		return slog.String(a.Key, "***")
	}

	switch a.Value.Kind() {
	case slog.KindString:
		return slog.String(a.Key, r.RedactString(a.Value.String()))
	case slog.KindAny:
		// errors are logged via their message
		if err, ok := a.Value.Any().(error); ok {
			return slog.String(a.Key, r.RedactString(err.Error()))
		}
	}
	return a
}

// isSensitiveKey checks if a key name indicates sensitive data.
func isSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)
	for _, sensitive := range sensitiveKeys {
		if strings.Contains(lowerKey, sensitive) {
			return true
		}
	}
	return false
}

// RedactAPIKey redacts an API key, keeping only a prefix.
func RedactAPIKey(apiKey string) string {
	if apiKey == "" {
		return ""
	}
	if len(apiKey) <= 8 {
		return "***"
	}

	// Keep first 4 characters for identification
	return apiKey[:4] + "***"
}

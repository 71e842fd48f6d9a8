package logging

import (
	"log/slog"
	"regexp"
	"strings"

	"mercator-hq/opgraph/pkg/config"
)

// Masked replaces the value of a sensitive key.
const Masked = "***"

// Redactor masks sensitive values in log attributes and local value maps.
//
// A value is masked entirely when its key contains one of the configured
// sensitive keys. Other string values have the built-in and custom patterns
// applied.
type Redactor struct {
	keys     []string
	patterns []redactPattern
}

// redactPattern contains a compiled regex and replacement string.
type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// Built-in pattern names.
const (
	PatternEmail       = "email"
	PatternBearerToken = "bearer_token"
	PatternPassword    = "password"
	PatternAPIKey      = "api_key"
)

var defaultPatterns = []redactPattern{
	{
		name:        PatternBearerToken,
		regex:       regexp.MustCompile(`Bearer\s+[a-zA-Z0-9\-._~+/]+=*`),
		replacement: "Bearer ***",
	},
	{
		name:        PatternAPIKey,
		regex:       regexp.MustCompile(`(sk-[a-zA-Z0-9]{8,}|api[-_]?key[-_:=]\s*[a-zA-Z0-9]+)`),
		replacement: "sk-***",
	},
	{
		name:        PatternPassword,
		regex:       regexp.MustCompile(`(password|passwd|pwd)[:=]\s*[^\s&]+`),
		replacement: "$1=***",
	},
	{
		name:        PatternEmail,
		regex:       regexp.MustCompile(`[a-zA-Z0-9._%+-]+@([a-zA-Z0-9.-]+\.[a-zA-Z]{2,})`),
		replacement: "***@$1",
	},
}

// NewRedactor creates a Redactor with the built-in patterns, the given
// sensitive keys and custom patterns. Invalid custom patterns are skipped;
// configuration validation reports them.
func NewRedactor(keys []string, custom []config.RedactPattern) *Redactor {
	r := &Redactor{patterns: append([]redactPattern(nil), defaultPatterns...)}
	for _, k := range keys {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			r.keys = append(r.keys, k)
		}
	}
	for _, p := range custom {
		regex, err := regexp.Compile(p.Pattern)
		if err != nil {
			continue
		}
		r.patterns = append(r.patterns, redactPattern{name: p.Name, regex: regex, replacement: p.Replacement})
	}
	return r
}

// IsSensitiveKey reports whether values stored under key are masked.
func (r *Redactor) IsSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, k := range r.keys {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// RedactString applies the redaction patterns to a string value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}
	for _, p := range r.patterns {
		value = p.regex.ReplaceAllString(value, p.replacement)
	}
	return value
}

// RedactValue masks value if key is sensitive, otherwise redacts strings
// nested anywhere inside it.
func (r *Redactor) RedactValue(key string, value any) any {
	if r.IsSensitiveKey(key) {
		if value == nil {
			return nil
		}
		return Masked
	}
	switch v := value.(type) {
	case string:
		return r.RedactString(v)
	case map[string]any:
		return r.RedactLocals(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = r.RedactValue("", item)
		}
		return out
	default:
		return value
	}
}

// RedactLocals returns a copy of a local value map with sensitive entries
// masked. The input is not modified.
func (r *Redactor) RedactLocals(locals map[string]any) map[string]any {
	if locals == nil {
		return nil
	}
	out := make(map[string]any, len(locals))
	for k, v := range locals {
		out[k] = r.RedactValue(k, v)
	}
	return out
}

// ReplaceAttr is a slog.HandlerOptions.ReplaceAttr hook.
func (r *Redactor) ReplaceAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		return a
	}
	if r.IsSensitiveKey(a.Key) {
		return slog.String(a.Key, Masked)
	}
	switch a.Value.Kind() {
	case slog.KindString:
		return slog.String(a.Key, r.RedactString(a.Value.String()))
	case slog.KindAny:
		if m, ok := a.Value.Any().(map[string]any); ok {
			return slog.Any(a.Key, r.RedactLocals(m))
		}
	}
	return a
}

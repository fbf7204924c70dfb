package logger

import (
	"log/slog"
	"strings"
)

// Key fragments whose values are never logged.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"key",
	"credential",
	"private",
	"mpin",
	"pin",
}

// pemMarker starts every PEM block.
const pemMarker = "-----BEGIN "

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// redactSensitive masks a attribute whose key looks sensitive and any
// string value carrying PEM material, recursing into groups.
func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		s := a.Value.String()
		if s == "" {
			return a
		}
		if IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
		if strings.Contains(s, pemMarker) {
			return slog.String(a.Key, RedactPEM(s))
		}

	case slog.KindGroup:
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}

	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			msg := err.Error()
			if strings.Contains(msg, pemMarker) {
				return slog.String(a.Key, RedactPEM(msg))
			}
		}
	}
	return a
}

// IsSensitiveKey reports whether a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	for _, p := range sensitiveKeyPatterns {
		if strings.Contains(k, p) {
			return true
		}
	}
	return false
}

// RedactPEM replaces the body of every PEM block in s, keeping the
// BEGIN/END lines so the block type stays visible.
func RedactPEM(s string) string {
	var b strings.Builder
	for {
		start := strings.Index(s, pemMarker)
		if start < 0 {
			b.WriteString(s)
			return b.String()
		}
		headerEnd := strings.Index(s[start:], "-----\n")
		if headerEnd < 0 {
			headerEnd = strings.Index(s[start+len(pemMarker):], "-----")
			if headerEnd < 0 {
				b.WriteString(s[:start])
				b.WriteString(redactedValue)
				return b.String()
			}
			headerEnd += len(pemMarker)
		}
		bodyStart := start + headerEnd + len("-----")

		b.WriteString(s[:bodyStart])
		rest := s[bodyStart:]
		end := strings.Index(rest, "-----END ")
		if end < 0 {
			b.WriteString(redactedValue)
			return b.String()
		}
		b.WriteString("\n" + redactedValue + "\n")
		s = rest[end:]
		// Step past the END marker so the loop does not match it again.
		if close := strings.Index(s[len("-----END "):], "-----"); close >= 0 {
			cut := len("-----END ") + close + len("-----")
			b.WriteString(s[:cut])
			s = s[cut:]
		} else {
			b.WriteString(s)
			return b.String()
		}
	}
}

package observe

import (
	"net/url"
	"strings"
)

const redacted = "[REDACTED]"

// SensitiveKeys are matched case-insensitively as substrings of field keys.
// A matching field is replaced by "[REDACTED]", so "redis_password" and
// "auth.secret" are both hidden.
var SensitiveKeys = []string{
	"password",
	"secret",
	"token",
	"api_key",
	"apikey",
	"credential",
	"dsn",
}

func isSensitiveKey(key string) bool {
	key = strings.ToLower(key)
	for _, s := range SensitiveKeys {
		if strings.Contains(key, s) {
			return true
		}
	}
	return false
}

// Redact returns f with its value hidden when the key is sensitive and with
// URL passwords masked otherwise. Error values are kept as errors.
func Redact(f Field) Field {
	if isSensitiveKey(f.Key) {
		return Field{Key: f.Key, Value: redacted}
	}
	if _, ok := f.Value.(error); ok {
		return f
	}
	return Field{Key: f.Key, Value: redactValue(f.Value)}
}

// redactValue hides the password of URL-shaped strings such as
// redis://user:pw@host:6379/0. Other values pass through.
func redactValue(v any) any {
	s, ok := v.(string)
	if !ok || !strings.Contains(s, "://") || !strings.Contains(s, "@") {
		return v
	}
	u, err := url.Parse(s)
	if err != nil {
		return redacted
	}
	return u.Redacted()
}

package relay

import (
	"net/http"
	"net/url"
	"strings"
)

// RedactedValue replaces credentials in requests that are kept after a call
const RedactedValue = "[REDACTED]"

var credentialHeaders = map[string]bool{
	"Authorization":        true,
	"Proxy-Authorization":  true,
	"Cookie":               true,
	"Set-Cookie":           true,
	"X-Api-Key":            true,
	"X-Auth-Token":         true,
	"X-Amz-Security-Token": true,
}

var credentialMarkers = []string{"token", "secret", "password", "passwd", "api-key", "api_key", "apikey", "session", "signature"}

func isCredential(name string) bool {
	if credentialHeaders[http.CanonicalHeaderKey(name)] {
		return true
	}
	lower := strings.ToLower(name)
	for _, marker := range credentialMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// Redacted returns a copy of h with credential-bearing values replaced
func (h Headers) Redacted() Headers {
	if h == nil {
		return nil
	}
	out := make(Headers, len(h))
	for name, value := range h {
		if isCredential(name) {
			value = RedactedValue
		}
		out[name] = value
	}
	return out
}

// Redacted returns a copy of s safe to persist: credential headers, URL
// passwords and credential-looking query parameters are replaced. The body
// is kept as sent.
func (s RequestSpec) Redacted() RequestSpec {
	s.Headers = s.Headers.Redacted()
	s.URL = redactURL(s.URL)
	return s
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	if u.User != nil {
		if _, hasPassword := u.User.Password(); hasPassword {
			u.User = url.UserPassword(u.User.Username(), RedactedValue)
		}
	}

	if u.RawQuery != "" {
		query := u.Query()
		changed := false
		for name, values := range query {
			if !isCredential(name) {
				continue
			}
			for i := range values {
				values[i] = RedactedValue
			}
			changed = true
		}
		if changed {
			u.RawQuery = query.Encode()
		}
	}

	return u.String()
}

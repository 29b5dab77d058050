package session

import (
	"net/http"
	"strings"
	"time"
)

// ParseCookieHeader splits a raw Cookie header into a name to value map.
// Pairs are separated by ';' and split at their first '=', so values may
// contain '='. Pairs without '=' are skipped. The first occurrence of a name
// wins.
func ParseCookieHeader(header string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(header, ";") {
		pair = strings.TrimSpace(pair)
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		if _, seen := out[name]; seen {
			continue
		}
		out[name] = value
	}
	return out
}

// CookieValue returns the value of the named cookie in a raw Cookie header.
func CookieValue(header, name string) (string, bool) {
	v, ok := ParseCookieHeader(header)[name]
	return v, ok
}

// Cookie builds the session cookie for value.
func (m *Manager) Cookie(value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    value,
		Path:     m.cfg.Path,
		Expires:  expires.UTC(),
		MaxAge:   int(m.cfg.Lifetime / time.Second),
		Secure:   m.cfg.Secure,
		HttpOnly: true,
		SameSite: m.cfg.SameSite,
	}
}

// ClearCookie returns a cookie that makes the browser drop the session.
func (m *Manager) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    "",
		Path:     m.cfg.Path,
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		Secure:   m.cfg.Secure,
		HttpOnly: true,
		SameSite: m.cfg.SameSite,
	}
}

// SetCookieHeader renders the Set-Cookie header value for an issued session.
func SetCookieHeader(issued *Issued) string {
	if issued == nil || issued.Cookie == nil {
		return ""
	}
	return issued.Cookie.String()
}

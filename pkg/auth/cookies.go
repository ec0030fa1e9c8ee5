package auth

import (
	"net/http"
	"net/url"
	"strings"
)

// CookieName is the cookie consulted when the token slot is empty.
const CookieName = "token"

// CookieSource yields a `name=value; name2=value2` cookie string.
type CookieSource interface {
	Cookies() (string, error)
}

// StaticCookies is a fixed cookie header string.
type StaticCookies string

func (s StaticCookies) Cookies() (string, error) { return string(s), nil }

// JarCookies renders the cookies a jar would send to URL.
type JarCookies struct {
	Jar http.CookieJar
	URL *url.URL
}

func (j JarCookies) Cookies() (string, error) {
	if j.Jar == nil || j.URL == nil {
		return "", nil
	}
	cookies := j.Jar.Cookies(j.URL)
	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; "), nil
}

// MultiCookies concatenates several sources in order.
type MultiCookies []CookieSource

func (m MultiCookies) Cookies() (string, error) {
	parts := make([]string, 0, len(m))
	for _, src := range m {
		if src == nil {
			continue
		}
		raw, err := src.Cookies()
		if err != nil {
			return "", err
		}
		if raw = strings.TrimSpace(raw); raw != "" {
			parts = append(parts, raw)
		}
	}
	return strings.Join(parts, "; "), nil
}

// TokenFromCookie extracts the value of the first non-empty `token=` entry,
// bounded by `;` or the end of the string. It returns "" when there is none.
func TokenFromCookie(header string) string {
	for _, part := range strings.Split(header, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || strings.TrimSpace(name) != CookieName {
			continue
		}
		if value = strings.TrimSpace(value); value != "" {
			return value
		}
	}
	return ""
}

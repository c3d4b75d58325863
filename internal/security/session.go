package security

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SessionCookieName carries the signed quiz session token
const SessionCookieName = "quiz_session"

// GenerateSessionID creates a new UUID for a quiz session
func GenerateSessionID() string {
	return uuid.New().String()
}

// IsSecureRequest reports whether the browser reached us over HTTPS, either
// directly or through a proxy that says so in X-Forwarded-Proto or Forwarded
func IsSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}

	// proxies chain values as "https, http"; the first hop is the client's
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		first, _, _ := strings.Cut(proto, ",")
		return strings.EqualFold(strings.TrimSpace(first), "https")
	}

	if fwd := r.Header.Get("Forwarded"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		for _, pair := range strings.Split(first, ";") {
			key, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
			if ok && strings.EqualFold(key, "proto") {
				return strings.EqualFold(strings.Trim(value, `"`), "https")
			}
		}
	}

	return r.URL.Scheme == "https"
}

// NewSessionCookie wraps a signed session token. It expires with the token,
// and Secure follows the request scheme.
func NewSessionCookie(r *http.Request, token string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	}
}

// ExpiredSessionCookie tells the browser to drop its session cookie
func ExpiredSessionCookie(r *http.Request) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	}
}

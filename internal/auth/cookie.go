package auth

import (
	"net/http"
	"strings"
	"time"
)

const (
	// SessionCookieName carries the session token over plain HTTP.
	SessionCookieName = "authjs.session-token"
	// SecureSessionCookieName is used instead when the deployment terminates TLS.
	SecureSessionCookieName = "__Secure-authjs.session-token"
)

// TokenFromCookies returns the session token from the primary cookie,
// falling back to the secure cookie. Empty when neither is set.
func TokenFromCookies(r *http.Request) string {
	for _, name := range []string{SessionCookieName, SecureSessionCookieName} {
		if c, err := r.Cookie(name); err == nil && c.Value != "" {
			return c.Value
		}
	}
	return ""
}

// TokenFromRequest is TokenFromCookies plus an "Authorization: Bearer" fallback
// for non-browser clients.
func TokenFromRequest(r *http.Request) string {
	if token := TokenFromCookies(r); token != "" {
		return token
	}
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// SetSessionCookie writes the session cookie. secure selects the __Secure- name.
func SetSessionCookie(w http.ResponseWriter, token string, ttl time.Duration, secure bool) {
	name := SessionCookieName
	if secure {
		name = SecureSessionCookieName
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires both cookie variants.
func ClearSessionCookie(w http.ResponseWriter) {
	for _, name := range []string{SessionCookieName, SecureSessionCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   name == SecureSessionCookieName,
		})
	}
}

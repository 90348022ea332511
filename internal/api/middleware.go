package api

import (
	"askchat-backend/internal/auth"
	"askchat-backend/internal/ratelimit"
	"askchat-backend/pkg/httputil"
	"errors"
	"log"
	"math"
	"net/http"
	"strconv"
)

const rateLimitExceededMessage = "Rate limit exceeded"

// --- Admission Control ---

// AdmissionControl guards protectedPath: callers without a session cookie get
// 401, callers over their fixed-window quota get 429. Every other path passes
// through untouched. The cookie is only checked for presence here; verifying
// it is SessionMiddleware's job.
func AdmissionControl(protectedPath string, limiter *ratelimit.Limiter) func(http.Handler) http.Handler {
	unauthorizedMessage := "Unauthorized access to " + protectedPath

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != protectedPath {
				next.ServeHTTP(w, r)
				return
			}

			token := auth.TokenFromCookies(r)
			if token == "" {
				httputil.RespondError(w, http.StatusUnauthorized, unauthorizedMessage)
				return
			}

			// TODO: key on the verified user id instead of the raw token once
			// sessions are rotated; a refreshed cookie currently starts a new bucket.
			decision, err := limiter.Allow(r.Context(), token)
			if err != nil {
				// Fail open: a broken limiter backend must not take the endpoint down.
				log.Printf("WARN: Admission control: rate limiter unavailable, allowing request: %v", err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining()))

			if !decision.Allowed {
				retryAfter := decision.RetryAfter(limiter.Now())
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
				log.Printf("Admission control: rate limit exceeded on %s (count=%d)", protectedPath, decision.Count)
				httputil.RespondError(w, http.StatusTooManyRequests, rateLimitExceededMessage)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// --- Session Middleware ---

// SessionMiddleware verifies the session token from the cookies (or a Bearer
// header) and injects the user id into the request context.
func SessionMiddleware(sessions auth.SessionProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := sessions.Session(r.Context(), auth.TokenFromRequest(r))
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrNoSession):
					httputil.RespondError(w, http.StatusUnauthorized, "Authentication required")
				case errors.Is(err, auth.ErrSessionExpired):
					httputil.RespondError(w, http.StatusUnauthorized, "Session has expired")
				default:
					log.Printf("Session middleware: rejecting token: %v", err)
					httputil.RespondError(w, http.StatusUnauthorized, "Invalid session")
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), session.UserID)))
		})
	}
}

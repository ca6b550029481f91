package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"vidshare/internal/httputil"
	"vidshare/internal/model"
	"vidshare/internal/session"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// TokenKey is the context key for the raw session token
	TokenKey contextKey = "session_token"

	// SessionCookie is the cookie web clients carry the token in
	SessionCookie = "session_token"
)

// Session installs a fresh session.Cache on every request, together with the
// bearer token found in the Authorization header or the session cookie.
// Nothing is resolved here; handlers resolve on first use.
func Session(resolver session.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), TokenKey, tokenFromRequest(r))
			ctx = session.NewContext(ctx, session.NewCache(resolver))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects the request unless the session resolves to a user.
// An unreachable identity backend is reported as 503, not 401.
func RequireUser(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			outcome, ok := Resolve(r.Context())
			if !ok {
				httputil.WriteInternalError(w, "Session is not configured")
				return
			}

			switch outcome.Status {
			case session.StatusAuthenticated:
				next.ServeHTTP(w, r)
			case session.StatusUnreachable:
				logger.Warn("identity backend unreachable", zap.Error(outcome.Err))
				httputil.WriteError(w, http.StatusServiceUnavailable, model.CodeUnavailable, "Identity backend is unreachable")
			default:
				httputil.WriteUnauthorized(w, "Authentication required")
			}
		})
	}
}

// Resolve resolves the request's session cache. ok is false when the
// Session middleware did not run.
func Resolve(ctx context.Context) (session.Outcome, bool) {
	cache, ok := session.FromContext(ctx)
	if !ok {
		return session.Outcome{}, false
	}
	return cache.Resolve(ctx, TokenFromContext(ctx)), true
}

// TokenFromContext returns the session token of the request, or "".
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(TokenKey).(string)
	return token
}

// UserFromContext returns the resolved user when the session already settled
// as authenticated.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	cache, ok := session.FromContext(ctx)
	if !ok {
		return nil, false
	}
	outcome := cache.Outcome()
	return outcome.User, outcome.IsLoggedIn()
}

// tokenFromRequest checks the Authorization header first (mobile), then the
// cookie (web).
func tokenFromRequest(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

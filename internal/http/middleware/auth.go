package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/tendant/simple-helpdesk/internal/httputil"
	"github.com/tendant/simple-helpdesk/pkg/auth"
	"github.com/tendant/simple-helpdesk/pkg/domain"
)

type contextKey string

// CallerKey is the context key for the authenticated caller.
const CallerKey contextKey = "caller"

// Auth creates middleware that validates bearer access tokens and stores the
// caller they identify in the request context.
func Auth(tokens *auth.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var tokenString string

			authHeader := r.Header.Get("Authorization")
			if authHeader != "" {
				parts := strings.SplitN(authHeader, " ", 2)
				if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
					tokenString = strings.TrimSpace(parts[1])
				}
			}

			if tokenString == "" {
				httputil.Error(w, http.StatusUnauthorized, "missing authorization")
				return
			}

			caller, err := tokens.Caller(tokenString)
			if err != nil {
				httputil.Error(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

// RequireAgent rejects callers below the agent role.
// Must be used after Auth middleware.
func RequireAgent() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := GetCaller(r.Context())
			if !ok {
				httputil.Error(w, http.StatusUnauthorized, "authentication required")
				return
			}

			if !caller.IsAgentOrHigher() {
				httputil.Error(w, http.StatusForbidden, "agent role required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// WithCaller returns a copy of ctx carrying caller.
func WithCaller(ctx context.Context, caller domain.Caller) context.Context {
	return context.WithValue(ctx, CallerKey, caller)
}

// GetCaller extracts the caller from the request context.
func GetCaller(ctx context.Context) (domain.Caller, bool) {
	caller, ok := ctx.Value(CallerKey).(domain.Caller)
	return caller, ok
}

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/example/ujyalokhet-storefront/internal/auth"
)

// ExtractToken extracts JWT token from cookie or Authorization header
func ExtractToken(r *http.Request) string {
	// Try cookie first (for browser)
	if cookie, err := r.Cookie("access_token"); err == nil {
		return cookie.Value
	}
	// Fall back to Authorization header (for API clients)
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

type contextKey string

const (
	UserContextKey    contextKey = "user"
	TokenContextKey   contextKey = "token"
	SessionContextKey contextKey = "session"
)

// OptionalAuthMiddleware forwards the bearer token and, when it can be read,
// its claims. Requests without a token pass through; the backend decides
// what needs a login.
func OptionalAuthMiddleware(inspector *auth.Inspector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokenString := ExtractToken(r); tokenString != "" {
				ctx := context.WithValue(r.Context(), TokenContextKey, tokenString)
				if claims, err := inspector.Inspect(tokenString); err == nil {
					ctx = context.WithValue(ctx, UserContextKey, claims)
				}
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetToken returns the raw bearer token of the request
func GetToken(ctx context.Context) string {
	token, _ := ctx.Value(TokenContextKey).(string)
	return token
}

// GetUserFromContext retrieves user claims from the request context
func GetUserFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(UserContextKey).(*auth.Claims)
	return claims, ok
}

// GetUserID is a helper to get just the user ID from context
func GetUserID(ctx context.Context) string {
	claims, ok := GetUserFromContext(ctx)
	if !ok {
		return ""
	}
	return claims.UserID
}

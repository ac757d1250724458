package middleware

import (
	"context"
	"net/http"

	"github.com/example/ujyalokhet-storefront/internal/session"
)

// SessionMiddleware attaches the shopper's session ID, issuing a cookie on
// first contact.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := session.Ensure(w, r)
		ctx := context.WithValue(r.Context(), SessionContextKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetSessionID returns the session ID set by SessionMiddleware
func GetSessionID(ctx context.Context) string {
	id, _ := ctx.Value(SessionContextKey).(string)
	return id
}

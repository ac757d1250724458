package session

import (
	"net/http"

	"github.com/google/uuid"
)

const (
	CookieName = "storefront_session"
	cookieAge  = 30 * 24 * 60 * 60
)

// FromRequest returns the session ID carried by the request cookie, if it is
// well formed.
func FromRequest(r *http.Request) (string, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return "", false
	}
	id, err := uuid.Parse(c.Value)
	if err != nil {
		return "", false
	}
	return id.String(), true
}

// Ensure returns the request's session ID, issuing a new cookie when the
// request has none.
func Ensure(w http.ResponseWriter, r *http.Request) string {
	if id, ok := FromRequest(r); ok {
		return id
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   cookieAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
	return id
}

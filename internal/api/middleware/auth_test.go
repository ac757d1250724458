package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/example/ujyalokhet-storefront/internal/auth"
	"github.com/example/ujyalokhet-storefront/internal/session"
)

const testSecret = "test-secret-key"

func signToken(t *testing.T, secret string, userID, email string, exp time.Time) string {
	t.Helper()
	claims := auth.Claims{
		UserID: userID,
		Email:  email,
		Role:   "customer",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestOptionalAuthMiddleware_ValidToken_Header(t *testing.T) {
	middleware := OptionalAuthMiddleware(auth.NewInspector(testSecret))
	token := signToken(t, testSecret, "user-123", "test@example.com", time.Now().Add(time.Hour))

	var capturedClaims *auth.Claims
	var capturedToken string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedClaims, _ = GetUserFromContext(r.Context())
		capturedToken = GetToken(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	middleware(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, capturedClaims)
	assert.Equal(t, "user-123", capturedClaims.UserID)
	assert.Equal(t, "test@example.com", capturedClaims.Email)
	assert.Equal(t, token, capturedToken)
}

func TestOptionalAuthMiddleware_ValidToken_Cookie(t *testing.T) {
	middleware := OptionalAuthMiddleware(auth.NewInspector(""))
	token := signToken(t, "backend-only-secret", "user-456", "cookie@example.com", time.Now().Add(time.Hour))

	var userID string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID = GetUserID(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: token})

	middleware(handler).ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "user-456", userID)
}

func TestOptionalAuthMiddleware_InvalidTokenStillForwarded(t *testing.T) {
	middleware := OptionalAuthMiddleware(auth.NewInspector(testSecret))
	token := signToken(t, "wrong-secret", "user-1", "x@example.com", time.Now().Add(time.Hour))

	var hasClaims bool
	var forwarded string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasClaims = GetUserFromContext(r.Context())
		forwarded = GetToken(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	middleware(handler).ServeHTTP(httptest.NewRecorder(), req)

	assert.False(t, hasClaims)
	assert.Equal(t, token, forwarded)
}

func TestOptionalAuthMiddleware_NoToken(t *testing.T) {
	middleware := OptionalAuthMiddleware(auth.NewInspector(testSecret))

	called := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Empty(t, GetToken(r.Context()))
		assert.Empty(t, GetUserID(r.Context()))
	})

	middleware(handler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/cart", nil))

	assert.True(t, called)
}

func TestExtractToken_CookieTakesPrecedence(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: "cookie-token"})
	req.Header.Set("Authorization", "Bearer header-token")

	assert.Equal(t, "cookie-token", ExtractToken(req))
}

func TestExtractToken_NonBearerHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")

	assert.Empty(t, ExtractToken(req))
}

func TestSessionMiddleware(t *testing.T) {
	var id string
	handler := SessionMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id = GetSessionID(r.Context())
	}))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cart", nil))

	require.NotEmpty(t, id)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, session.CookieName, cookies[0].Name)
	assert.Equal(t, id, cookies[0].Value)
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	handler := RequestLogger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/cart/items", nil))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.WarnLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/cart/items", fields["path"])
	assert.Equal(t, int64(http.StatusBadRequest), fields["status"])
}

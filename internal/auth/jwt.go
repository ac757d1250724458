package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Claims represents the JWT claims issued by the marketplace backend.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Inspector reads bearer tokens before they are forwarded to the backend.
// With a secret the signature is verified; without one the token is only
// decoded, which is enough to fail fast on expiry and to attribute events.
type Inspector struct {
	secretKey []byte
	now       func() time.Time
}

// InspectorOption customises an Inspector.
type InspectorOption func(*Inspector)

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) InspectorOption {
	return func(i *Inspector) {
		if now != nil {
			i.now = now
		}
	}
}

// NewInspector creates an inspector. An empty secret disables verification.
func NewInspector(secretKey string, opts ...InspectorOption) *Inspector {
	i := &Inspector{now: time.Now}
	if secretKey != "" {
		i.secretKey = []byte(secretKey)
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Verifies reports whether signatures are checked.
func (i *Inspector) Verifies() bool {
	return len(i.secretKey) > 0
}

// Inspect parses the token and returns its claims.
func (i *Inspector) Inspect(tokenString string) (*Claims, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, ErrMissingToken
	}
	if i.Verifies() {
		return i.verify(tokenString)
	}
	return i.decode(tokenString)
}

func (i *Inspector) verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return i.secretKey, nil
	}, jwt.WithTimeFunc(i.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (i *Inspector) decode(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, ErrInvalidToken
	}
	if claims.ExpiresAt != nil && !i.now().Before(claims.ExpiresAt.Time) {
		return nil, ErrExpiredToken
	}
	return claims, nil
}

// Expired reports whether a present token is already past its expiry. Tokens
// that cannot be decoded are left for the backend to judge.
func (i *Inspector) Expired(tokenString string) bool {
	_, err := i.Inspect(tokenString)
	return errors.Is(err, ErrExpiredToken)
}

package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-testing-purposes"

var fixedNow = time.Date(2025, 6, 10, 16, 24, 13, 0, time.UTC)

func signToken(t *testing.T, secret string, expiresAt time.Time) string {
	t.Helper()
	claims := Claims{
		UserID: "user-123",
		Email:  "buyer@example.com",
		Role:   "consumer",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(expiresAt.Add(-time.Hour)),
			Subject:   "user-123",
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func clock() InspectorOption {
	return WithClock(func() time.Time { return fixedNow })
}

// ============================================
// Unverified Inspection Tests
// ============================================

func TestInspector_Decode_Valid(t *testing.T) {
	inspector := NewInspector("", clock())
	token := signToken(t, "backend-only-secret", fixedNow.Add(15*time.Minute))

	claims, err := inspector.Inspect(token)

	require.NoError(t, err)
	assert.False(t, inspector.Verifies())
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "buyer@example.com", claims.Email)
}

func TestInspector_Decode_Expired(t *testing.T) {
	inspector := NewInspector("", clock())
	token := signToken(t, "backend-only-secret", fixedNow.Add(-time.Minute))

	_, err := inspector.Inspect(token)

	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.True(t, inspector.Expired(token))
}

func TestInspector_Decode_Garbage(t *testing.T) {
	inspector := NewInspector("", clock())

	_, err := inspector.Inspect("not-a-jwt")

	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.False(t, inspector.Expired("not-a-jwt"))
}

func TestInspector_Missing(t *testing.T) {
	_, err := NewInspector("").Inspect("  ")

	assert.ErrorIs(t, err, ErrMissingToken)
}

// ============================================
// Verified Inspection Tests
// ============================================

func TestInspector_Verify_Valid(t *testing.T) {
	inspector := NewInspector(testSecret, clock())
	token := signToken(t, testSecret, fixedNow.Add(15*time.Minute))

	claims, err := inspector.Inspect(token)

	require.NoError(t, err)
	assert.True(t, inspector.Verifies())
	assert.Equal(t, "user-123", claims.Subject)
}

func TestInspector_Verify_WrongSecret(t *testing.T) {
	inspector := NewInspector(testSecret, clock())
	token := signToken(t, "wrong-secret", fixedNow.Add(15*time.Minute))

	_, err := inspector.Inspect(token)

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestInspector_Verify_Expired(t *testing.T) {
	inspector := NewInspector(testSecret, clock())
	token := signToken(t, testSecret, fixedNow.Add(-time.Second))

	_, err := inspector.Inspect(token)

	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestInspector_Verify_RejectsNonHMAC(t *testing.T) {
	inspector := NewInspector(testSecret, clock())
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = inspector.Inspect(token)

	assert.ErrorIs(t, err, ErrInvalidToken)
}

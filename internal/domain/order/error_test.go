package order

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_UserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains string
	}{
		{"validation with fields", &Error{Kind: KindValidation, Fields: []FieldError{{Field: "products[0].productId", Message: "bad id"}}}, "bad id"},
		{"validation with server message", &Error{Kind: KindValidation, Message: "Insufficient stock"}, "Insufficient stock"},
		{"transport", &Error{Kind: KindTransport}, "try again"},
		{"auth", &Error{Kind: KindAuth, Status: 401}, "log in"},
		{"server", &Error{Kind: KindServer, Status: 500}, "try again later"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, tt.err.UserMessage(), tt.contains)
		})
	}
}

func TestError_ErrorString(t *testing.T) {
	err := &Error{Kind: KindServer, Status: 503, Message: "unavailable"}

	assert.Equal(t, "order server error (status 503): unavailable", err.Error())
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := &Error{Kind: KindTransport, Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.True(t, err.Retryable())
	assert.False(t, (&Error{Kind: KindAuth}).Retryable())
}

package esewa

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

var ErrMissingField = errors.New("signed field missing from payload")

// Signer computes eSewa HMAC-SHA256 signatures with the merchant secret.
type Signer struct {
	secret []byte
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Sign returns the base64-encoded HMAC-SHA256 of message.
func (s *Signer) Sign(message string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Message joins name=value pairs in the given order, comma separated.
func Message(names []string, values map[string]string) (string, error) {
	parts := make([]string, 0, len(names))
	for _, name := range names {
		v, ok := values[name]
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrMissingField, name)
		}
		parts = append(parts, name+"="+v)
	}
	return strings.Join(parts, ","), nil
}

// SignFields signs the named values in order.
func (s *Signer) SignFields(names []string, values map[string]string) (string, error) {
	msg, err := Message(names, values)
	if err != nil {
		return "", err
	}
	return s.Sign(msg), nil
}

// VerifyFields recomputes the signature over names and compares it with
// signature in constant time.
func (s *Signer) VerifyFields(names []string, values map[string]string, signature string) bool {
	if len(names) == 0 || signature == "" {
		return false
	}
	want, err := s.SignFields(names, values)
	if err != nil {
		return false
	}
	return hmac.Equal([]byte(want), []byte(strings.TrimSpace(signature)))
}

// SplitFieldNames parses a signed_field_names value.
func SplitFieldNames(list string) []string {
	var names []string
	for _, name := range strings.Split(list, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

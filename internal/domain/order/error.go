package order

import (
	"fmt"
	"strings"
)

// Kind classifies order submission failures.
type Kind string

const (
	KindValidation Kind = "validation"
	KindTransport  Kind = "transport"
	KindAuth       Kind = "auth"
	KindServer     Kind = "server"
)

// FieldError names a single rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the discriminated failure returned by order submission. Status is
// the HTTP status received from the backend, zero when nothing was received.
type Error struct {
	Kind    Kind
	Fields  []FieldError
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "order %s error", e.Kind)
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	for _, f := range e.Fields {
		fmt.Fprintf(&b, "; %s: %s", f.Field, f.Message)
	}
	if e.Err != nil && e.Message == "" && len(e.Fields) == 0 {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage is the text shown to the shopper.
func (e *Error) UserMessage() string {
	switch e.Kind {
	case KindValidation:
		if len(e.Fields) > 0 {
			return "Please correct the highlighted order details: " + e.Fields[0].Message + "."
		}
		if e.Message != "" {
			return e.Message
		}
		return "The order was rejected. Please review your cart and delivery details."
	case KindTransport:
		return "Could not reach the order service. Please check your connection and try again."
	case KindAuth:
		return "Your session has expired. Please log in again to place the order."
	default:
		return "The order service failed to place your order. Please try again later."
	}
}

// Retryable reports whether resubmitting the same request may succeed.
func (e *Error) Retryable() bool {
	return e.Kind == KindTransport || e.Kind == KindServer
}

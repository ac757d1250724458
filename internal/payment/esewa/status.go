package esewa

import "strings"

// Status is the transaction status reported by eSewa.
type Status string

const (
	StatusComplete      Status = "COMPLETE"
	StatusPending       Status = "PENDING"
	StatusCanceled      Status = "CANCELED"
	StatusNotFound      Status = "NOT_FOUND"
	StatusAmbiguous     Status = "AMBIGUOUS"
	StatusFullRefund    Status = "FULL_REFUND"
	StatusPartialRefund Status = "PARTIAL_REFUND"
)

var statusMessages = map[Status]string{
	StatusComplete:      "Payment successful! Your order has been confirmed.",
	StatusPending:       "Your payment is pending. We'll update your order once eSewa confirms it.",
	StatusCanceled:      "Payment was canceled. Your cart has been kept so you can try again.",
	StatusNotFound:      "Payment session expired or was not found. Please try again.",
	StatusAmbiguous:     "Payment status is unclear. Please contact support before retrying.",
	StatusFullRefund:    "This payment was fully refunded.",
	StatusPartialRefund: "This payment was partially refunded. Please contact support.",
}

const (
	msgUnknownStatus = "Payment was not completed. Your cart has been kept so you can try again."
	msgUnverified    = "We could not verify this payment response. Your cart has been kept; please contact support."
	msgUnconfirmed   = "We could not confirm this payment with eSewa. Your cart has been kept; please check your orders or contact support."
	msgInvalid       = "We could not read the payment response. Please try again."
	msgFailed        = "Payment failed or was canceled. Your cart has been kept so you can try again."
	msgDuplicate     = "This payment response has already been processed."
)

// ParseStatus normalises a status string, accepting the British spelling of
// CANCELED.
func ParseStatus(s string) Status {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if st == "CANCELLED" {
		return StatusCanceled
	}
	return st
}

// Known reports whether the status is one eSewa documents.
func (s Status) Known() bool {
	_, ok := statusMessages[s]
	return ok
}

// Terminal reports whether no further status change is expected.
func (s Status) Terminal() bool {
	return s.Known() && s != StatusPending
}

// Message is the user-facing text for the status.
func (s Status) Message() string {
	if msg, ok := statusMessages[s]; ok {
		return msg
	}
	return msgUnknownStatus
}

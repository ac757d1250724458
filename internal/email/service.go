package email

import (
	"errors"
	"fmt"
	"net/mail"
	"net/smtp"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidRecipient is returned for a recipient that is not a single plain
// address.
var ErrInvalidRecipient = errors.New("invalid email recipient")

// SendFunc matches smtp.SendMail.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Service handles email sending via SMTP
type Service struct {
	host     string
	port     string
	from     string
	sendMail SendFunc
}

// NewService creates a new email service
func NewService(host, port, from string) *Service {
	return &Service{
		host:     host,
		port:     port,
		from:     from,
		sendMail: smtp.SendMail,
	}
}

// WithSendFunc replaces the SMTP transport, mainly for tests.
func (s *Service) WithSendFunc(fn SendFunc) *Service {
	s.sendMail = fn
	return s
}

// SendOrderConfirmation sends the confirmation for a cash-on-delivery order.
func (s *Service) SendOrderConfirmation(to, orderID string, total decimal.Decimal, items []OrderItem) error {
	subject := fmt.Sprintf("UjyaloKhet order confirmed (#%s)", shortID(orderID))
	body := BuildOrderConfirmationBody(orderID, total, items)
	return s.send(to, subject, body)
}

// SendPaymentReceipt sends the receipt for a completed eSewa payment.
func (s *Service) SendPaymentReceipt(to, orderID, transactionCode string, amount decimal.Decimal) error {
	subject := fmt.Sprintf("UjyaloKhet payment received (#%s)", shortID(orderID))
	body := BuildPaymentReceiptBody(orderID, transactionCode, amount)
	return s.send(to, subject, body)
}

func (s *Service) send(to, subject, body string) error {
	rcpt, err := recipient(to)
	if err != nil {
		return err
	}
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.from, rcpt.String(), subject, body)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return s.sendMail(addr, nil, s.from, []string{rcpt.Address}, []byte(msg))
}

// recipient parses to, which may come from an unverified token claim, and
// refuses anything that could break out of the To header.
func recipient(to string) (*mail.Address, error) {
	if strings.ContainsAny(to, "\r\n") {
		return nil, fmt.Errorf("%w: contains a line break", ErrInvalidRecipient)
	}
	rcpt, err := mail.ParseAddress(to)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecipient, err)
	}
	return rcpt, nil
}

func shortID(orderID string) string {
	if len(orderID) > 8 {
		return orderID[len(orderID)-8:]
	}
	return orderID
}

package email

import (
	"errors"
	"net/smtp"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	addr string
	from string
	to   []string
	msg  string
}

func newTestEmailService() (*Service, *[]sentMail) {
	var sent []sentMail
	svc := NewService("mail.local", "1025", "noreply@ujyalokhet.example").
		WithSendFunc(func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
			sent = append(sent, sentMail{addr: addr, from: from, to: to, msg: string(msg)})
			return nil
		})
	return svc, &sent
}

func TestService_SendOrderConfirmation(t *testing.T) {
	svc, sent := newTestEmailService()
	items := []OrderItem{
		{ProductID: "p1", Name: "Tomatoes <organic>", Quantity: 2, Price: decimal.NewFromInt(80)},
		{ProductID: "p2", Quantity: 1, Price: decimal.NewFromInt(150)},
	}

	err := svc.SendOrderConfirmation("buyer@example.com", "665f1c2e9b1d4a0012a3b4c5", decimal.NewFromInt(310), items)

	require.NoError(t, err)
	require.Len(t, *sent, 1)
	mail := (*sent)[0]
	assert.Equal(t, "mail.local:1025", mail.addr)
	assert.Equal(t, []string{"buyer@example.com"}, mail.to)
	assert.Contains(t, mail.msg, "Subject: UjyaloKhet order confirmed (#12a3b4c5)")
	assert.Contains(t, mail.msg, "Tomatoes &lt;organic&gt;")
	assert.Contains(t, mail.msg, "Rs. 160.00")
	assert.Contains(t, mail.msg, "Rs. 310.00")
	assert.Contains(t, mail.msg, ">p2<")
}

func TestService_SendPaymentReceipt(t *testing.T) {
	svc, sent := newTestEmailService()

	err := svc.SendPaymentReceipt("buyer@example.com", "order-1", "000AWEO", decimal.RequireFromString("1250.5"))

	require.NoError(t, err)
	require.Len(t, *sent, 1)
	assert.Contains(t, (*sent)[0].msg, "000AWEO")
	assert.Contains(t, (*sent)[0].msg, "Rs. 1,250.50")
}

func TestService_SendError(t *testing.T) {
	svc := NewService("h", "25", "f").WithSendFunc(func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	})

	err := svc.SendPaymentReceipt("x@example.com", "o", "c", decimal.NewFromInt(1))

	assert.Error(t, err)
}

func TestFormatRupees(t *testing.T) {
	tests := map[string]string{
		"0":         "0.00",
		"80":        "80.00",
		"1000":      "1,000.00",
		"1234567.8": "1,234,567.80",
		"-4500":     "-4,500.00",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatRupees(decimal.RequireFromString(in)), in)
	}
}

func TestService_RejectsHeaderInjection(t *testing.T) {
	svc, sent := newTestEmailService()

	err := svc.SendPaymentReceipt("buyer@example.com\r\nBcc: everyone@example.com", "order-1", "000AWEO", decimal.NewFromInt(100))

	assert.ErrorIs(t, err, ErrInvalidRecipient)
	assert.Empty(t, *sent)
}

func TestService_RejectsMalformedRecipient(t *testing.T) {
	svc, sent := newTestEmailService()

	err := svc.SendOrderConfirmation("not an address", "order-1", decimal.NewFromInt(100), nil)

	assert.ErrorIs(t, err, ErrInvalidRecipient)
	assert.Empty(t, *sent)
}

func TestService_RecipientHeaderIsNormalised(t *testing.T) {
	svc, sent := newTestEmailService()

	err := svc.SendPaymentReceipt("Ram Thapa <ram@example.com>", "order-1", "000AWEO", decimal.NewFromInt(100))

	require.NoError(t, err)
	require.Len(t, *sent, 1)
	assert.Equal(t, []string{"ram@example.com"}, (*sent)[0].to)
	assert.Contains(t, (*sent)[0].msg, "To: \"Ram Thapa\" <ram@example.com>\r\n")
	assert.NotContains(t, (*sent)[0].msg, "Bcc:")
}

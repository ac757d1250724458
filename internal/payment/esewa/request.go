package esewa

import (
	"errors"
	"net/url"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/example/ujyalokhet-storefront/internal/domain/order"
)

// RequestSignedFields is the fixed field order of an outbound signature.
var RequestSignedFields = []string{"total_amount", "transaction_uuid", "product_code"}

var (
	ErrMissingOrderID = errors.New("order id is required")
	ErrInvalidAmount  = errors.New("total amount must be positive")
	ErrNegativeCharge = errors.New("tax and charges must not be negative")
)

// PaymentInput is what the checkout knows when it starts a payment.
// TotalAmount is the order total; the charges are added on top and default
// to zero.
type PaymentInput struct {
	OrderID        order.ID
	TotalAmount    decimal.Decimal
	ProductCode    string
	TaxAmount      decimal.Decimal
	ServiceCharge  decimal.Decimal
	DeliveryCharge decimal.Decimal
}

// PaymentRequest is a signed eSewa v2 form submission.
type PaymentRequest struct {
	OrderID          order.ID
	FormURL          string
	Amount           decimal.Decimal
	TaxAmount        decimal.Decimal
	ServiceCharge    decimal.Decimal
	DeliveryCharge   decimal.Decimal
	TotalAmount      decimal.Decimal
	TransactionUUID  string
	ProductCode      string
	SuccessURL       string
	FailureURL       string
	SignedFieldNames string
	Signature        string
}

// FormField is one hidden input of the outbound form.
type FormField struct {
	Name  string
	Value string
}

// Fields returns the form inputs in eSewa's documented order.
func (r PaymentRequest) Fields() []FormField {
	return []FormField{
		{"amount", FormatAmount(r.Amount)},
		{"tax_amount", FormatAmount(r.TaxAmount)},
		{"total_amount", FormatAmount(r.TotalAmount)},
		{"transaction_uuid", r.TransactionUUID},
		{"product_code", r.ProductCode},
		{"product_service_charge", FormatAmount(r.ServiceCharge)},
		{"product_delivery_charge", FormatAmount(r.DeliveryCharge)},
		{"success_url", r.SuccessURL},
		{"failure_url", r.FailureURL},
		{"signed_field_names", r.SignedFieldNames},
		{"signature", r.Signature},
	}
}

// Form returns the fields as url.Values for a POST.
func (r PaymentRequest) Form() url.Values {
	values := make(url.Values, 11)
	for _, f := range r.Fields() {
		values.Set(f.Name, f.Value)
	}
	return values
}

// FormatAmount renders an amount the way it is signed and posted.
func FormatAmount(d decimal.Decimal) string {
	return d.String()
}

// BuilderConfig holds the merchant settings used for every request.
type BuilderConfig struct {
	SecretKey   string
	ProductCode string
	FormURL     string
	SuccessURL  string
	FailureURL  string
}

// RequestBuilder assembles signed payment requests.
type RequestBuilder struct {
	signer *Signer
	cfg    BuilderConfig
	idGen  func() string
}

// BuilderOption customises a RequestBuilder.
type BuilderOption func(*RequestBuilder)

// WithIDGenerator replaces the transaction identifier source.
func WithIDGenerator(gen func() string) BuilderOption {
	return func(b *RequestBuilder) {
		if gen != nil {
			b.idGen = gen
		}
	}
}

func NewRequestBuilder(cfg BuilderConfig, opts ...BuilderOption) *RequestBuilder {
	b := &RequestBuilder{
		signer: NewSigner(cfg.SecretKey),
		cfg:    cfg,
		idGen:  func() string { return ulid.Make().String() },
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build returns a signed request with a fresh transaction identifier. It has
// no side effects beyond generating that identifier.
func (b *RequestBuilder) Build(in PaymentInput) (PaymentRequest, error) {
	if strings.TrimSpace(string(in.OrderID)) == "" {
		return PaymentRequest{}, ErrMissingOrderID
	}
	if !in.TotalAmount.IsPositive() {
		return PaymentRequest{}, ErrInvalidAmount
	}
	if in.TaxAmount.IsNegative() || in.ServiceCharge.IsNegative() || in.DeliveryCharge.IsNegative() {
		return PaymentRequest{}, ErrNegativeCharge
	}

	productCode := in.ProductCode
	if productCode == "" {
		productCode = b.cfg.ProductCode
	}

	req := PaymentRequest{
		OrderID:          in.OrderID,
		FormURL:          b.cfg.FormURL,
		Amount:           in.TotalAmount,
		TaxAmount:        in.TaxAmount,
		ServiceCharge:    in.ServiceCharge,
		DeliveryCharge:   in.DeliveryCharge,
		TotalAmount:      in.TotalAmount.Add(in.TaxAmount).Add(in.ServiceCharge).Add(in.DeliveryCharge),
		TransactionUUID:  b.idGen(),
		ProductCode:      productCode,
		SuccessURL:       b.cfg.SuccessURL,
		FailureURL:       b.cfg.FailureURL,
		SignedFieldNames: strings.Join(RequestSignedFields, ","),
	}

	signature, err := b.signer.SignFields(RequestSignedFields, map[string]string{
		"total_amount":     FormatAmount(req.TotalAmount),
		"transaction_uuid": req.TransactionUUID,
		"product_code":     req.ProductCode,
	})
	if err != nil {
		return PaymentRequest{}, err
	}
	req.Signature = signature
	return req, nil
}

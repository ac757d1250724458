package order

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/example/ujyalokhet-storefront/internal/domain/cart"
)

// ID identifies an order issued by the backend.
type ID string

type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentESewa          PaymentMethod = "esewa"
)

// Valid reports whether the backend accepts the method.
func (m PaymentMethod) Valid() bool {
	return m == PaymentCashOnDelivery || m == PaymentESewa
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

var (
	ErrEmptyOrder           = errors.New("order must have at least one item")
	ErrInvalidProductID     = errors.New("product id must be a 24-character hex identifier")
	ErrInvalidQuantity      = errors.New("quantity must be positive")
	ErrInvalidPaymentMethod = errors.New("unknown payment method")
)

// productIDPattern matches the backend's object identifiers.
var productIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

// Item is one line of an order request.
type Item struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// DeliveryAddress is forwarded to the backend as entered.
type DeliveryAddress struct {
	Province string `json:"province"`
	City     string `json:"city"`
	Street   string `json:"street"`
	Phone    string `json:"phone,omitempty"`
}

// Request is the body of POST /orders.
type Request struct {
	Products        []Item          `json:"products"`
	DeliveryAddress DeliveryAddress `json:"deliveryAddress"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus,omitempty"`
}

// NewRequest builds a pending order request from a cart snapshot.
func NewRequest(snap cart.Snapshot, address DeliveryAddress, method PaymentMethod) Request {
	items := make([]Item, 0, len(snap))
	for _, line := range snap {
		items = append(items, Item{ProductID: line.Product.ID, Quantity: line.Quantity})
	}
	return Request{
		Products:        items,
		DeliveryAddress: address,
		PaymentMethod:   method,
		PaymentStatus:   PaymentPending,
	}
}

// Validate checks what the backend would reject before anything is sent. It
// returns an *Error of KindValidation listing every offending field.
func (r Request) Validate() error {
	if len(r.Products) == 0 {
		return &Error{
			Kind:   KindValidation,
			Fields: []FieldError{{Field: "products", Message: ErrEmptyOrder.Error()}},
			Err:    ErrEmptyOrder,
		}
	}

	var fields []FieldError
	var first error
	record := func(field string, err error) {
		fields = append(fields, FieldError{Field: field, Message: err.Error()})
		if first == nil {
			first = err
		}
	}

	for i, item := range r.Products {
		if !productIDPattern.MatchString(item.ProductID) {
			record(fmt.Sprintf("products[%d].productId", i), ErrInvalidProductID)
		}
		if item.Quantity <= 0 {
			record(fmt.Sprintf("products[%d].quantity", i), ErrInvalidQuantity)
		}
	}
	if !r.PaymentMethod.Valid() {
		record("paymentMethod", ErrInvalidPaymentMethod)
	}

	if len(fields) == 0 {
		return nil
	}
	return &Error{Kind: KindValidation, Fields: fields, Err: first}
}

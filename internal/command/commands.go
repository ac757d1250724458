package command

import "github.com/example/ujyalokhet-storefront/internal/domain/order"

// Cart Commands
type AddToCart struct {
	SessionID string `json:"-"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type UpdateCartItem struct {
	SessionID string `json:"-"`
	ProductID string `json:"-"`
	Quantity  int    `json:"quantity"`
}

type RemoveFromCart struct {
	SessionID string `json:"-"`
	ProductID string `json:"-"`
}

type ClearCart struct {
	SessionID string `json:"-"`
}

// Checkout Commands
type Checkout struct {
	SessionID       string                `json:"-"`
	Token           string                `json:"-"`
	DeliveryAddress order.DeliveryAddress `json:"delivery_address"`
	PaymentMethod   order.PaymentMethod   `json:"payment_method"`
}

// HandlePaymentCallback applies an eSewa return navigation. URL is the full
// request URL as received, including any malformed query.
type HandlePaymentCallback struct {
	SessionID string
	Token     string
	URL       string
}

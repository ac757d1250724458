package readmodel

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItemReadModel represents an item in the cart
type CartItemReadModel struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Stock     int             `json:"stock"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// CartReadModel is the read model for shopping cart
type CartReadModel struct {
	SessionID  string              `json:"session_id"`
	Items      []CartItemReadModel `json:"items"`
	TotalItems int                 `json:"total_items"`
	TotalPrice decimal.Decimal     `json:"total_price"`
}

// OrderItemReadModel represents an item in an order
type OrderItemReadModel struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// OrderReadModel is the read model for orders
type OrderReadModel struct {
	ID            string               `json:"id"`
	Items         []OrderItemReadModel `json:"items"`
	Total         decimal.Decimal      `json:"total"`
	Status        string               `json:"status"`
	PaymentMethod string               `json:"payment_method"`
	PaymentStatus string               `json:"payment_status"`
	CreatedAt     time.Time            `json:"created_at"`
}

// AddressReadModel is the delivery address offered to prefill checkout
type AddressReadModel struct {
	Province string `json:"province"`
	City     string `json:"city"`
	Street   string `json:"street"`
	Phone    string `json:"phone,omitempty"`
	Saved    bool   `json:"saved"`
}

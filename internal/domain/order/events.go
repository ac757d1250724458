package order

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderPlaced    = "OrderPlaced"
	EventPaymentSettled = "PaymentSettled"
)

// PlacedItem is an ordered line with the catalog snapshot it was priced at.
type PlacedItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// OrderPlaced is published once the backend accepted an order.
type OrderPlaced struct {
	OrderID         ID              `json:"order_id"`
	SessionID       string          `json:"session_id"`
	Email           string          `json:"email,omitempty"`
	Items           []PlacedItem    `json:"items"`
	Total           decimal.Decimal `json:"total"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	DeliveryAddress DeliveryAddress `json:"delivery_address"`
	PlacedAt        time.Time       `json:"placed_at"`
}

// PaymentSettled is published when a gateway callback reached a terminal,
// verified outcome.
type PaymentSettled struct {
	OrderID         ID              `json:"order_id,omitempty"`
	SessionID       string          `json:"session_id"`
	Email           string          `json:"email,omitempty"`
	TransactionUUID string          `json:"transaction_uuid"`
	TransactionCode string          `json:"transaction_code,omitempty"`
	Status          string          `json:"status"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	LowTrust        bool            `json:"low_trust,omitempty"`
	SettledAt       time.Time       `json:"settled_at"`
}

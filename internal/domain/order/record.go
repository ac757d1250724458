package order

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Record is an order as listed by the backend.
type Record struct {
	ID              ID              `json:"_id"`
	CustomerID      string          `json:"customerId"`
	Products        []RecordLine    `json:"products"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	Status          string          `json:"status"`
	DeliveryAddress DeliveryAddress `json:"deliveryAddress"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// RecordLine is the product snapshot stored with an order.
type RecordLine struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName,omitempty"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// UnmarshalJSON accepts productId either as an identifier or as the populated
// product document.
func (l *RecordLine) UnmarshalJSON(data []byte) error {
	var raw struct {
		ProductID   json.RawMessage `json:"productId"`
		ProductName string          `json:"productName"`
		Quantity    int             `json:"quantity"`
		Price       decimal.Decimal `json:"price"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	l.ProductName = raw.ProductName
	l.Quantity = raw.Quantity
	l.Price = raw.Price
	l.ProductID = ""

	if len(raw.ProductID) == 0 || string(raw.ProductID) == "null" {
		return nil
	}
	if raw.ProductID[0] == '"' {
		return json.Unmarshal(raw.ProductID, &l.ProductID)
	}
	var populated struct {
		ID   string `json:"_id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw.ProductID, &populated); err != nil {
		return err
	}
	l.ProductID = populated.ID
	if l.ProductName == "" {
		l.ProductName = populated.Name
	}
	return nil
}

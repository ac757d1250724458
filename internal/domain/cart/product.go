package cart

import "github.com/shopspring/decimal"

// Product is the read-only catalog snapshot a cart line holds. Stock is the
// available quantity at the time the snapshot was taken; it is serialized as
// "quantity" to stay compatible with records written by the web client.
type Product struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"quantity"`
}

// Line is one product-and-quantity entry in the cart.
type Line struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Subtotal returns quantity × unit price.
func (l Line) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Totals are the values derived from the cart lines.
type Totals struct {
	Items int             `json:"total_items"`
	Price decimal.Decimal `json:"total_price"`
}

// Snapshot is an immutable copy of the cart lines in insertion order.
type Snapshot []Line

// Totals sums quantities and subtotals.
func (s Snapshot) Totals() Totals {
	t := Totals{Price: decimal.Zero}
	for _, line := range s {
		t.Items += line.Quantity
		t.Price = t.Price.Add(line.Subtotal())
	}
	return t
}

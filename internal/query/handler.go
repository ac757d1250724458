package query

import (
	"context"

	"go.uber.org/zap"

	"github.com/example/ujyalokhet-storefront/internal/domain/cart"
	"github.com/example/ujyalokhet-storefront/internal/domain/order"
	"github.com/example/ujyalokhet-storefront/internal/logging"
	"github.com/example/ujyalokhet-storefront/internal/session"
)

// Carts resolves the cart store of a session.
type Carts interface {
	Cart(ctx context.Context, sessionID string) *cart.Store
}

// OrderLister reads the shopper's order history from the backend.
type OrderLister interface {
	ListOrders(ctx context.Context, token string) ([]order.Record, error)
}

type Handler struct {
	carts     Carts
	orders    OrderLister
	addresses *session.AddressBook
	logger    *zap.Logger
}

func NewHandler(carts Carts, orders OrderLister, addresses *session.AddressBook, logger *zap.Logger) *Handler {
	return &Handler{
		carts:     carts,
		orders:    orders,
		addresses: addresses,
		logger:    logging.Component(logger, "query"),
	}
}

// Cart
func (h *Handler) GetCart(ctx context.Context, sessionID string) *CartReadModel {
	snap := h.carts.Cart(ctx, sessionID).Snapshot()
	totals := snap.Totals()

	items := make([]CartItemReadModel, 0, len(snap))
	for _, line := range snap {
		items = append(items, CartItemReadModel{
			ProductID: line.Product.ID,
			Name:      line.Product.Name,
			Price:     line.Product.Price,
			Quantity:  line.Quantity,
			Stock:     line.Product.Stock,
			Subtotal:  line.Subtotal(),
		})
	}
	return &CartReadModel{
		SessionID:  sessionID,
		Items:      items,
		TotalItems: totals.Items,
		TotalPrice: totals.Price,
	}
}

// Orders, newest first as returned by the backend client
func (h *Handler) ListOrders(ctx context.Context, token string) ([]*OrderReadModel, error) {
	records, err := h.orders.ListOrders(ctx, token)
	if err != nil {
		return nil, err
	}
	orders := make([]*OrderReadModel, 0, len(records))
	for _, rec := range records {
		items := make([]OrderItemReadModel, 0, len(rec.Products))
		for _, line := range rec.Products {
			items = append(items, OrderItemReadModel{
				ProductID: line.ProductID,
				Name:      line.ProductName,
				Quantity:  line.Quantity,
				Price:     line.Price,
			})
		}
		orders = append(orders, &OrderReadModel{
			ID:            string(rec.ID),
			Items:         items,
			Total:         rec.TotalAmount,
			Status:        rec.Status,
			PaymentMethod: string(rec.PaymentMethod),
			PaymentStatus: string(rec.PaymentStatus),
			CreatedAt:     rec.CreatedAt,
		})
	}
	return orders, nil
}

// Address returns the last delivery address used by the session, or an
// empty one.
func (h *Handler) Address(ctx context.Context, sessionID string) *AddressReadModel {
	if h.addresses == nil {
		return &AddressReadModel{}
	}
	addr, ok, err := h.addresses.Load(ctx, sessionID)
	if err != nil {
		h.logger.Warn("failed to load saved address", zap.String("session_id", sessionID), zap.Error(err))
		return &AddressReadModel{}
	}
	if !ok {
		return &AddressReadModel{}
	}
	return &AddressReadModel{
		Province: addr.Province,
		City:     addr.City,
		Street:   addr.Street,
		Phone:    addr.Phone,
		Saved:    true,
	}
}

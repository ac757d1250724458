package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/ujyalokhet-storefront/internal/auth"
	"github.com/example/ujyalokhet-storefront/internal/domain/cart"
	"github.com/example/ujyalokhet-storefront/internal/domain/order"
	"github.com/example/ujyalokhet-storefront/internal/events"
	"github.com/example/ujyalokhet-storefront/internal/logging"
	"github.com/example/ujyalokhet-storefront/internal/payment/esewa"
	"github.com/example/ujyalokhet-storefront/internal/session"
)

var (
	ErrOutOfStock  = errors.New("product is out of stock")
	ErrNotInCart   = errors.New("product is not in the cart")
	ErrMissingItem = errors.New("product id is required")
)

// Catalog looks up the current product snapshot.
type Catalog interface {
	GetProduct(ctx context.Context, id string) (cart.Product, error)
}

// OrderGateway submits orders to the backend.
type OrderGateway interface {
	PlaceOrder(ctx context.Context, token string, req order.Request) (order.ID, error)
}

// Carts resolves the cart store of a session.
type Carts interface {
	Cart(ctx context.Context, sessionID string) *cart.Store
}

// Deps groups the collaborators of a Handler.
type Deps struct {
	Catalog   Catalog
	Orders    OrderGateway
	Carts     Carts
	Addresses *session.AddressBook
	Payments  *esewa.RequestBuilder
	Pending   *esewa.PendingStore
	Callbacks *esewa.Processor
	Tokens    *auth.Inspector
	Publisher events.Publisher
	Logger    *zap.Logger
	Now       func() time.Time
}

type Handler struct {
	catalog   Catalog
	orders    OrderGateway
	carts     Carts
	addresses *session.AddressBook
	payments  *esewa.RequestBuilder
	pending   *esewa.PendingStore
	callbacks *esewa.Processor
	tokens    *auth.Inspector
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewHandler(d Deps) *Handler {
	h := &Handler{
		catalog:   d.Catalog,
		orders:    d.Orders,
		carts:     d.Carts,
		addresses: d.Addresses,
		payments:  d.Payments,
		pending:   d.Pending,
		callbacks: d.Callbacks,
		tokens:    d.Tokens,
		publisher: d.Publisher,
		logger:    logging.Component(d.Logger, "command"),
		now:       d.Now,
	}
	if h.publisher == nil {
		h.publisher = events.NopPublisher{}
	}
	if h.tokens == nil {
		h.tokens = auth.NewInspector("")
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}

// CartChange reports the line quantity after a mutation. Clamped is set when
// stock limited the result below what was asked for.
type CartChange struct {
	ProductID string `json:"product_id"`
	Requested int    `json:"requested"`
	Quantity  int    `json:"quantity"`
	Clamped   bool   `json:"clamped"`
}

// AddToCart looks the product up in the catalog and merges it into the cart
func (h *Handler) AddToCart(ctx context.Context, cmd AddToCart) (CartChange, error) {
	if cmd.ProductID == "" {
		return CartChange{}, ErrMissingItem
	}
	product, err := h.catalog.GetProduct(ctx, cmd.ProductID)
	if err != nil {
		return CartChange{}, err
	}

	requested := max(cmd.Quantity, 1)
	store := h.carts.Cart(ctx, cmd.SessionID)
	before := store.Quantity(product.ID)
	got := store.AddItem(ctx, product, requested)
	if got == 0 {
		return CartChange{ProductID: product.ID, Requested: requested}, ErrOutOfStock
	}
	return CartChange{
		ProductID: product.ID,
		Requested: requested,
		Quantity:  got,
		Clamped:   got < before+requested,
	}, nil
}

// UpdateCartItem sets a line quantity; zero or less removes the line
func (h *Handler) UpdateCartItem(ctx context.Context, cmd UpdateCartItem) (CartChange, error) {
	store := h.carts.Cart(ctx, cmd.SessionID)
	if !store.Contains(cmd.ProductID) {
		return CartChange{}, ErrNotInCart
	}
	got := store.UpdateQuantity(ctx, cmd.ProductID, cmd.Quantity)
	return CartChange{
		ProductID: cmd.ProductID,
		Requested: cmd.Quantity,
		Quantity:  got,
		Clamped:   cmd.Quantity > 0 && got < cmd.Quantity,
	}, nil
}

// RemoveFromCart removes an item from cart
func (h *Handler) RemoveFromCart(ctx context.Context, cmd RemoveFromCart) {
	h.carts.Cart(ctx, cmd.SessionID).RemoveItem(ctx, cmd.ProductID)
}

// ClearCart clears all items from cart
func (h *Handler) ClearCart(ctx context.Context, cmd ClearCart) {
	h.carts.Cart(ctx, cmd.SessionID).Clear(ctx)
}

// CheckoutResult is the outcome of a placed order. Payment is set for eSewa
// orders and holds the signed form the browser must be sent to.
type CheckoutResult struct {
	OrderID       order.ID              `json:"order_id"`
	PaymentMethod order.PaymentMethod   `json:"payment_method"`
	Total         string                `json:"total"`
	Payment       *esewa.PaymentRequest `json:"-"`
}

// Checkout places the cart as an order. Cash-on-delivery orders clear the
// cart immediately; eSewa orders keep it until the payment callback confirms.
func (h *Handler) Checkout(ctx context.Context, cmd Checkout) (CheckoutResult, error) {
	store := h.carts.Cart(ctx, cmd.SessionID)
	snap := store.Snapshot()
	totals := snap.Totals()
	log := h.logger.With(zap.String("session_id", cmd.SessionID), zap.String("payment_method", string(cmd.PaymentMethod)))

	req := order.NewRequest(snap, cmd.DeliveryAddress, cmd.PaymentMethod)
	orderID, err := h.orders.PlaceOrder(ctx, cmd.Token, req)
	if err != nil {
		log.Info("order rejected", zap.Error(err))
		return CheckoutResult{}, err
	}
	log = log.With(zap.String("order_id", string(orderID)))
	log.Info("order placed", zap.Int("items", totals.Items), zap.String("total", totals.Price.String()))

	if h.addresses != nil {
		if err := h.addresses.Save(ctx, cmd.SessionID, cmd.DeliveryAddress); err != nil {
			log.Warn("failed to save delivery address", zap.Error(err))
		}
	}

	result := CheckoutResult{OrderID: orderID, PaymentMethod: cmd.PaymentMethod, Total: totals.Price.String()}

	if cmd.PaymentMethod == order.PaymentESewa {
		payment, err := h.payments.Build(esewa.PaymentInput{OrderID: orderID, TotalAmount: totals.Price})
		if err != nil {
			return CheckoutResult{}, fmt.Errorf("build payment request for order %s: %w", orderID, err)
		}
		pending := esewa.PendingPayment{
			OrderID:         orderID,
			TransactionUUID: payment.TransactionUUID,
			TotalAmount:     payment.TotalAmount,
			CreatedAt:       h.now().UTC(),
		}
		if err := h.pending.Save(ctx, cmd.SessionID, pending); err != nil {
			return CheckoutResult{}, fmt.Errorf("save pending payment for order %s: %w", orderID, err)
		}
		result.Payment = &payment
	} else {
		store.Clear(ctx)
	}

	h.publish(ctx, events.AggregateOrder, string(orderID), order.EventOrderPlaced, h.orderPlaced(cmd, orderID, snap))
	return result, nil
}

// HandlePaymentCallback processes an eSewa return navigation against the
// session's cart and announces settled outcomes.
func (h *Handler) HandlePaymentCallback(ctx context.Context, cmd HandlePaymentCallback) esewa.Result {
	store := h.carts.Cart(ctx, cmd.SessionID)
	result := h.callbacks.Process(ctx, cmd.SessionID, cmd.URL, store)
	if !result.Settled() {
		return result
	}

	settled := order.PaymentSettled{
		OrderID:         result.OrderID,
		SessionID:       cmd.SessionID,
		Email:           h.email(cmd.Token),
		TransactionUUID: result.TransactionUUID,
		TransactionCode: result.TransactionCode,
		Status:          string(result.Status),
		TotalAmount:     result.TotalAmount,
		LowTrust:        result.LowTrust,
		SettledAt:       h.now().UTC(),
	}
	key := string(result.OrderID)
	if key == "" {
		key = result.TransactionUUID
	}
	h.publish(ctx, events.AggregatePayment, key, order.EventPaymentSettled, settled)
	return result
}

func (h *Handler) orderPlaced(cmd Checkout, orderID order.ID, snap cart.Snapshot) order.OrderPlaced {
	items := make([]order.PlacedItem, len(snap))
	for i, line := range snap {
		items[i] = order.PlacedItem{
			ProductID: line.Product.ID,
			Name:      line.Product.Name,
			Quantity:  line.Quantity,
			UnitPrice: line.Product.Price,
		}
	}
	return order.OrderPlaced{
		OrderID:         orderID,
		SessionID:       cmd.SessionID,
		Email:           h.email(cmd.Token),
		Items:           items,
		Total:           snap.Totals().Price,
		PaymentMethod:   cmd.PaymentMethod,
		DeliveryAddress: cmd.DeliveryAddress,
		PlacedAt:        h.now().UTC(),
	}
}

// email returns the address claimed by the token, if it can be read.
func (h *Handler) email(token string) string {
	if token == "" {
		return ""
	}
	claims, err := h.tokens.Inspect(token)
	if err != nil {
		return ""
	}
	return claims.Email
}

func (h *Handler) publish(ctx context.Context, aggregateType, aggregateID, eventType string, payload any) {
	event, err := events.New(aggregateType, aggregateID, eventType, payload, h.now())
	if err != nil {
		h.logger.Error("failed to encode event", zap.String("event_type", eventType), zap.Error(err))
		return
	}
	if err := h.publisher.Publish(ctx, aggregateID, event); err != nil {
		h.logger.Warn("failed to publish event", zap.String("event_type", eventType), zap.Error(err))
	}
}

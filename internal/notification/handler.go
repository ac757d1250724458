package notification

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/example/ujyalokhet-storefront/internal/domain/order"
	"github.com/example/ujyalokhet-storefront/internal/email"
	"github.com/example/ujyalokhet-storefront/internal/events"
	"github.com/example/ujyalokhet-storefront/internal/logging"
)

// Mailer is the subset of email.Service the handler uses.
type Mailer interface {
	SendOrderConfirmation(to, orderID string, total decimal.Decimal, items []email.OrderItem) error
	SendPaymentReceipt(to, orderID, transactionCode string, amount decimal.Decimal) error
}

// Handler processes events for sending notifications
type Handler struct {
	mailer Mailer
	logger *zap.Logger
}

// NewHandler creates a new notification handler
func NewHandler(mailer Mailer, logger *zap.Logger) *Handler {
	return &Handler{
		mailer: mailer,
		logger: logging.Component(logger, "notifier"),
	}
}

// HandleEvent processes an event from Kafka
func (h *Handler) HandleEvent(ctx context.Context, key, value []byte) error {
	var event events.Event
	if err := json.Unmarshal(value, &event); err != nil {
		h.logger.Warn("failed to unmarshal event", zap.ByteString("key", key), zap.Error(err))
		return err
	}

	switch event.EventType {
	case order.EventOrderPlaced:
		return h.handleOrderPlaced(event)
	case order.EventPaymentSettled:
		return h.handlePaymentSettled(event)
	}
	return nil
}

// handleOrderPlaced confirms cash-on-delivery orders. eSewa orders are
// confirmed by the payment receipt instead.
func (h *Handler) handleOrderPlaced(event events.Event) error {
	var e order.OrderPlaced
	if err := event.Decode(&e); err != nil {
		h.logger.Warn("failed to unmarshal OrderPlaced event", zap.Error(err))
		return err
	}
	log := h.logger.With(zap.String("order_id", string(e.OrderID)))

	if e.PaymentMethod != order.PaymentCashOnDelivery {
		return nil
	}
	if e.Email == "" {
		log.Info("no email address for order, skipping confirmation")
		return nil
	}

	items := make([]email.OrderItem, len(e.Items))
	for i, item := range e.Items {
		items[i] = email.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.UnitPrice,
		}
	}

	if err := h.mailer.SendOrderConfirmation(e.Email, string(e.OrderID), e.Total, items); err != nil {
		log.Error("failed to send order confirmation", zap.String("to", e.Email), zap.Error(err))
		return err
	}
	log.Info("order confirmation email sent", zap.String("to", e.Email))
	return nil
}

func (h *Handler) handlePaymentSettled(event events.Event) error {
	var e order.PaymentSettled
	if err := event.Decode(&e); err != nil {
		h.logger.Warn("failed to unmarshal PaymentSettled event", zap.Error(err))
		return err
	}
	log := h.logger.With(zap.String("order_id", string(e.OrderID)), zap.String("transaction_uuid", e.TransactionUUID))

	if e.Status != "COMPLETE" || e.Email == "" {
		return nil
	}
	if e.LowTrust {
		log.Warn("not sending a receipt for an unsigned payment confirmation")
		return nil
	}

	if err := h.mailer.SendPaymentReceipt(e.Email, string(e.OrderID), e.TransactionCode, e.TotalAmount); err != nil {
		log.Error("failed to send payment receipt", zap.String("to", e.Email), zap.Error(err))
		return err
	}
	log.Info("payment receipt email sent", zap.String("to", e.Email))
	return nil
}

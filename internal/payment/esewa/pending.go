package esewa

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/ujyalokhet-storefront/internal/domain/order"
	"github.com/example/ujyalokhet-storefront/internal/infrastructure/store"
)

const pendingKeyPrefix = "payment:pending:"

// PendingKey returns the slot key of a session's in-flight payment.
func PendingKey(sessionID string) string {
	return pendingKeyPrefix + sessionID
}

// PendingPayment links an outbound transaction to the order it pays for. It
// is written before the redirect and survives it.
type PendingPayment struct {
	OrderID         order.ID        `json:"order_id"`
	TransactionUUID string          `json:"transaction_uuid"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	CreatedAt       time.Time       `json:"created_at"`
}

// PendingStore persists PendingPayment records in a storage slot.
type PendingStore struct {
	slot store.Slot
}

func NewPendingStore(slot store.Slot) *PendingStore {
	return &PendingStore{slot: slot}
}

func (s *PendingStore) Save(ctx context.Context, sessionID string, p PendingPayment) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode pending payment: %w", err)
	}
	return s.slot.Save(ctx, PendingKey(sessionID), data)
}

// Load returns the session's pending payment. A corrupt record is reported as
// absent.
func (s *PendingStore) Load(ctx context.Context, sessionID string) (PendingPayment, bool, error) {
	data, ok, err := s.slot.Load(ctx, PendingKey(sessionID))
	if err != nil || !ok {
		return PendingPayment{}, false, err
	}
	var p PendingPayment
	if err := json.Unmarshal(data, &p); err != nil {
		return PendingPayment{}, false, nil
	}
	return p, true, nil
}

func (s *PendingStore) Delete(ctx context.Context, sessionID string) error {
	return s.slot.Delete(ctx, PendingKey(sessionID))
}

package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/ujyalokhet-storefront/internal/domain/order"
	"github.com/example/ujyalokhet-storefront/internal/infrastructure/store"
)

const addressKeyPrefix = "address:"

// AddressKey returns the slot key of a session's last delivery address.
func AddressKey(sessionID string) string {
	return addressKeyPrefix + sessionID
}

// AddressBook remembers the delivery address of the last placed order so the
// checkout form can be prefilled.
type AddressBook struct {
	slot store.Slot
}

func NewAddressBook(slot store.Slot) *AddressBook {
	return &AddressBook{slot: slot}
}

func (b *AddressBook) Save(ctx context.Context, sessionID string, addr order.DeliveryAddress) error {
	data, err := json.Marshal(addr)
	if err != nil {
		return fmt.Errorf("encode address: %w", err)
	}
	return b.slot.Save(ctx, AddressKey(sessionID), data)
}

// Load returns the saved address. A corrupt record is reported as absent.
func (b *AddressBook) Load(ctx context.Context, sessionID string) (order.DeliveryAddress, bool, error) {
	data, ok, err := b.slot.Load(ctx, AddressKey(sessionID))
	if err != nil || !ok {
		return order.DeliveryAddress{}, false, err
	}
	var addr order.DeliveryAddress
	if err := json.Unmarshal(data, &addr); err != nil {
		return order.DeliveryAddress{}, false, nil
	}
	return addr, true, nil
}

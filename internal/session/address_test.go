package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ujyalokhet-storefront/internal/domain/order"
	"github.com/example/ujyalokhet-storefront/internal/infrastructure/store/mocks"
)

func TestAddressBook_SaveLoad(t *testing.T) {
	slot := mocks.NewMockSlot()
	book := NewAddressBook(slot)
	ctx := context.Background()
	addr := order.DeliveryAddress{Province: "Bagmati", City: "Kathmandu", Street: "Thamel Marg", Phone: "9800000000"}

	require.NoError(t, book.Save(ctx, "s1", addr))
	got, ok, err := book.Load(ctx, "s1")

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, addr, got)
	assert.Equal(t, "address:s1", slot.SaveCalls[0].Key)
}

func TestAddressBook_Missing(t *testing.T) {
	book := NewAddressBook(mocks.NewMockSlot())

	_, ok, err := book.Load(context.Background(), "s1")

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAddressBook_CorruptRecord(t *testing.T) {
	slot := mocks.NewMockSlot()
	slot.Set(AddressKey("s1"), []byte("nope"))

	_, ok, err := NewAddressBook(slot).Load(context.Background(), "s1")

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAddressBook_LoadError(t *testing.T) {
	slot := mocks.NewMockSlot()
	slot.LoadErr = errors.New("timeout")

	_, _, err := NewAddressBook(slot).Load(context.Background(), "s1")

	assert.Error(t, err)
}

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySlot_SaveLoadDelete(t *testing.T) {
	slot := NewMemorySlot()
	ctx := context.Background()

	_, ok, err := slot.Load(ctx, "cart:s1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, slot.Save(ctx, "cart:s1", []byte(`[]`)))
	data, ok, err := slot.Load(ctx, "cart:s1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[]`, string(data))

	require.NoError(t, slot.Delete(ctx, "cart:s1"))
	require.NoError(t, slot.Delete(ctx, "cart:s1"))
	_, ok, _ = slot.Load(ctx, "cart:s1")
	assert.False(t, ok)
}

func TestMemorySlot_CopiesData(t *testing.T) {
	slot := NewMemorySlot()
	ctx := context.Background()
	buf := []byte("abc")

	require.NoError(t, slot.Save(ctx, "k", buf))
	buf[0] = 'z'

	data, _, _ := slot.Load(ctx, "k")
	assert.Equal(t, "abc", string(data))

	data[1] = 'z'
	again, _, _ := slot.Load(ctx, "k")
	assert.Equal(t, "abc", string(again))
}

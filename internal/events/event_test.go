package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WrapsPayload(t *testing.T) {
	at := time.Date(2025, 6, 10, 22, 9, 13, 0, time.FixedZone("NPT", 5*3600+45*60))

	e, err := New(AggregateOrder, "order-1", "OrderPlaced", map[string]int{"total": 310}, at)

	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "order-1", e.AggregateID)
	assert.Equal(t, AggregateOrder, e.AggregateType)
	assert.Equal(t, time.UTC, e.Timestamp.Location())
	assert.True(t, at.Equal(e.Timestamp))

	var payload map[string]int
	require.NoError(t, e.Decode(&payload))
	assert.Equal(t, 310, payload["total"])
}

func TestNew_UnencodablePayload(t *testing.T) {
	_, err := New(AggregateCart, "s", "CartUpdated", make(chan int), time.Now())

	assert.Error(t, err)
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	e, err := New(AggregateCart, "s", "CartUpdated", struct{}{}, time.Now())
	require.NoError(t, err)

	require.NoError(t, r.Publish(context.Background(), "s", e))
	require.NoError(t, NopPublisher{}.Publish(context.Background(), "s", e))

	assert.Equal(t, []string{"s"}, r.Keys)
	assert.Equal(t, []string{"CartUpdated"}, r.Types())
}

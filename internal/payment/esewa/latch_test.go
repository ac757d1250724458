package esewa

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLatch_HoldsWithinWindow(t *testing.T) {
	clock := newManualClock()
	latch := NewLatch(3*time.Second, clock.Now)

	assert.True(t, latch.Acquire("s::txn"))
	clock.Advance(2999 * time.Millisecond)
	assert.False(t, latch.Acquire("s::txn"))
}

func TestLatch_ResetsAfterWindow(t *testing.T) {
	clock := newManualClock()
	latch := NewLatch(3*time.Second, clock.Now)

	assert.True(t, latch.Acquire("s::txn"))
	clock.Advance(3 * time.Second)

	assert.True(t, latch.Acquire("s::txn"))
}

func TestLatch_KeysAreIndependent(t *testing.T) {
	latch := NewLatch(time.Minute, newManualClock().Now)

	assert.True(t, latch.Acquire("a"))
	assert.True(t, latch.Acquire("b"))
}

func TestLatch_Release(t *testing.T) {
	latch := NewLatch(time.Minute, newManualClock().Now)
	latch.Acquire("a")

	latch.Release("a")

	assert.True(t, latch.Acquire("a"))
}

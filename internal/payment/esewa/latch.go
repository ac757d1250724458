package esewa

import (
	"sync"
	"time"
)

// Latch lets a callback be applied at most once per window. A key stays held
// until its deadline passes, after which a genuinely new attempt with the same
// key may proceed.
type Latch struct {
	mu     sync.Mutex
	window time.Duration
	now    func() time.Time
	held   map[string]time.Time
}

func NewLatch(window time.Duration, now func() time.Time) *Latch {
	if now == nil {
		now = time.Now
	}
	return &Latch{
		window: window,
		now:    now,
		held:   make(map[string]time.Time),
	}
}

// Acquire holds key and reports true, or reports false while key is still
// held from an earlier call.
func (l *Latch) Acquire(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for k, deadline := range l.held {
		if !now.Before(deadline) {
			delete(l.held, k)
		}
	}
	if _, ok := l.held[key]; ok {
		return false
	}
	l.held[key] = now.Add(l.window)
	return true
}

// Release drops key before its deadline.
func (l *Latch) Release(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
}

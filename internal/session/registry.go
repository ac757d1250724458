package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/ujyalokhet-storefront/internal/domain/cart"
	"github.com/example/ujyalokhet-storefront/internal/events"
	"github.com/example/ujyalokhet-storefront/internal/infrastructure/store"
	"github.com/example/ujyalokhet-storefront/internal/logging"
)

// DefaultIdleTTL is how long an untouched store stays in memory.
const DefaultIdleTTL = 30 * time.Minute

type entry struct {
	store    *cart.Store
	lastUsed time.Time
}

// Registry hands out the single cart store of each session. Stores are opened
// from the slot on first use and evicted by Sweep once idle; the persisted
// record brings them back on the next access.
type Registry struct {
	mu        sync.Mutex
	carts     map[string]*entry
	slot      store.Slot
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
	idleTTL   time.Duration
}

// Option customises a Registry.
type Option func(*Registry)

func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithIdleTTL sets how long a store may go unused before Sweep evicts it.
func WithIdleTTL(ttl time.Duration) Option {
	return func(r *Registry) {
		if ttl > 0 {
			r.idleTTL = ttl
		}
	}
}

// WithClock sets the timestamp source for cart events and idle tracking.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRegistry creates a registry persisting carts in slot. A nil publisher
// drops cart events.
func NewRegistry(slot store.Slot, publisher events.Publisher, opts ...Option) *Registry {
	r := &Registry{
		carts:     make(map[string]*entry),
		slot:      slot,
		publisher: publisher,
		now:       time.Now,
		idleTTL:   DefaultIdleTTL,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.publisher == nil {
		r.publisher = events.NopPublisher{}
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	return r
}

// Cart returns the session's store, restoring it on first access.
func (r *Registry) Cart(ctx context.Context, sessionID string) *cart.Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if e, ok := r.carts[sessionID]; ok {
		e.lastUsed = now
		return e.store
	}
	s := cart.Open(ctx, r.slot, cart.StorageKey(sessionID), cart.WithLogger(r.logger))
	s.Subscribe(r.publishChanges(sessionID))
	r.carts[sessionID] = &entry{store: s, lastUsed: now}
	return s
}

// Sweep evicts stores unused for longer than the idle TTL and returns how
// many it dropped.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.idleTTL)
	evicted := 0
	for id, e := range r.carts {
		if e.lastUsed.Before(cutoff) {
			r.forgetLocked(id)
			evicted++
		}
	}
	return evicted
}

// Run calls Sweep every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	log := logging.Component(r.logger, "session")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				log.Debug("evicted idle carts", zap.Int("evicted", n))
			}
		}
	}
}

// forgetLocked drops the in-memory store. The persisted record is kept.
func (r *Registry) forgetLocked(sessionID string) {
	delete(r.carts, sessionID)
}

func (r *Registry) publishChanges(sessionID string) cart.Listener {
	log := logging.Component(r.logger, "session").With(zap.String("session_id", sessionID))
	return func(snap cart.Snapshot) {
		payload := cart.NewCartUpdated(sessionID, snap, r.now())
		event, err := events.New(events.AggregateCart, sessionID, cart.EventCartUpdated, payload, r.now())
		if err != nil {
			log.Error("failed to encode cart event", zap.Error(err))
			return
		}
		if err := r.publisher.Publish(context.Background(), sessionID, event); err != nil {
			log.Warn("failed to publish cart event", zap.Error(err))
		}
	}
}

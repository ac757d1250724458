package cart

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/example/ujyalokhet-storefront/internal/infrastructure/store"
	"github.com/example/ujyalokhet-storefront/internal/logging"
)

const storageKeyPrefix = "cart:"

// StorageKey returns the slot key holding the cart of a session.
func StorageKey(sessionID string) string {
	return storageKeyPrefix + sessionID
}

// Listener receives the new snapshot after every change.
type Listener func(Snapshot)

type subscription struct {
	id int
	fn Listener
}

// Store owns the authoritative cart of one session. Every mutation recomputes
// the totals, persists the snapshot to the slot and then notifies subscribers,
// all before returning. Subscribers see snapshots in mutation order and must
// not mutate the store from a callback.
type Store struct {
	mu       sync.Mutex
	notifyMu sync.Mutex
	lines    []Line
	totals   Totals
	slot     store.Slot
	key      string
	logger   *zap.Logger

	subMu  sync.Mutex
	subs   []subscription
	nextID int
}

// Option customises a Store.
type Option func(*Store)

// WithLogger sets the logger used for persistence failures.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		s.logger = logging.Component(logger, "cart")
	}
}

// NewStore returns an empty store bound to the slot record under key.
func NewStore(slot store.Slot, key string, opts ...Option) *Store {
	s := &Store{
		slot:   slot,
		key:    key,
		logger: zap.NewNop(),
		totals: Snapshot(nil).Totals(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Open constructs a store and restores it from the slot.
func Open(ctx context.Context, slot store.Slot, key string, opts ...Option) *Store {
	s := NewStore(slot, key, opts...)
	s.Load(ctx)
	return s
}

// Load replaces the in-memory cart with the persisted record. A missing,
// unreadable or corrupt record leaves an empty cart.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	s.lines = s.restore(ctx)
	s.totals = Snapshot(s.lines).Totals()
	snap := s.snapshotLocked()
	s.unlockAndNotify(snap)
}

func (s *Store) restore(ctx context.Context) []Line {
	if s.slot == nil {
		return nil
	}
	data, ok, err := s.slot.Load(ctx, s.key)
	if err != nil {
		s.logger.Warn("failed to load cart, starting empty", zap.String("key", s.key), zap.Error(err))
		return nil
	}
	if !ok || len(data) == 0 {
		return nil
	}

	var persisted []Line
	if err := json.Unmarshal(data, &persisted); err != nil {
		s.logger.Warn("corrupt cart record, starting empty", zap.String("key", s.key), zap.Error(err))
		return nil
	}
	return sanitize(persisted)
}

// sanitize drops lines that violate the cart invariants, merges duplicates and
// clamps quantities to the recorded stock.
func sanitize(lines []Line) []Line {
	out := make([]Line, 0, len(lines))
	index := make(map[string]int, len(lines))
	for _, line := range lines {
		if line.Product.ID == "" || line.Quantity <= 0 {
			continue
		}
		if i, ok := index[line.Product.ID]; ok {
			out[i].Quantity += line.Quantity
			continue
		}
		index[line.Product.ID] = len(out)
		out = append(out, line)
	}

	kept := out[:0]
	for _, line := range out {
		if line.Product.Stock > 0 && line.Quantity > line.Product.Stock {
			line.Quantity = line.Product.Stock
		}
		if line.Quantity > 0 {
			kept = append(kept, line)
		}
	}
	return kept
}

// Save persists the current cart.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(ctx)
}

// AddItem merges quantity into the product's line, clamped to the product's
// stock, and returns the resulting line quantity. A quantity below one adds a
// single unit. Callers compare the result with what they asked for to warn
// about clamping.
func (s *Store) AddItem(ctx context.Context, product Product, quantity int) int {
	if product.ID == "" {
		return 0
	}
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	effective := 0
	if i := s.indexLocked(product.ID); i >= 0 {
		line := &s.lines[i]
		line.Product = product
		line.Quantity = min(line.Quantity+quantity, product.Stock)
		effective = line.Quantity
		if effective <= 0 {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			effective = 0
		}
	} else {
		effective = min(quantity, product.Stock)
		if effective <= 0 {
			s.mu.Unlock()
			return 0
		}
		s.lines = append(s.lines, Line{Product: product, Quantity: effective})
	}
	snap := s.commitLocked(ctx)
	s.unlockAndNotify(snap)
	return effective
}

// RemoveItem deletes the product's line. Removing an absent product is a no-op.
func (s *Store) RemoveItem(ctx context.Context, productID string) {
	s.mu.Lock()
	i := s.indexLocked(productID)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
	snap := s.commitLocked(ctx)
	s.unlockAndNotify(snap)
}

// UpdateQuantity sets the line quantity, clamped to stock, and returns the
// resulting quantity. A quantity of zero or less removes the line.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, quantity int) int {
	if quantity <= 0 {
		s.RemoveItem(ctx, productID)
		return 0
	}

	s.mu.Lock()
	i := s.indexLocked(productID)
	if i < 0 {
		s.mu.Unlock()
		return 0
	}
	line := &s.lines[i]
	line.Quantity = min(quantity, line.Product.Stock)
	effective := line.Quantity
	if effective <= 0 {
		s.lines = append(s.lines[:i], s.lines[i+1:]...)
		effective = 0
	}
	snap := s.commitLocked(ctx)
	s.unlockAndNotify(snap)
	return effective
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	s.lines = nil
	snap := s.commitLocked(ctx)
	s.unlockAndNotify(snap)
}

// Snapshot returns a copy of the current lines.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Totals returns the derived item count and price.
func (s *Store) Totals() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totals
}

// Contains reports whether the product has a line.
func (s *Store) Contains(productID string) bool {
	return s.Quantity(productID) > 0
}

// Quantity returns the product's line quantity, or zero.
func (s *Store) Quantity(productID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(productID); i >= 0 {
		return s.lines[i].Quantity
	}
	return 0
}

// IsEmpty reports whether the cart has no lines.
func (s *Store) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines) == 0
}

// Subscribe registers fn for change notifications and returns a func that
// removes it.
func (s *Store) Subscribe(fn Listener) func() {
	if fn == nil {
		return func() {}
	}
	s.subMu.Lock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription{id: id, fn: fn})
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// unlockAndNotify releases s.mu and delivers snap. notifyMu is taken before
// s.mu is released so that a later mutation cannot overtake this one.
func (s *Store) unlockAndNotify(snap Snapshot) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	s.mu.Unlock()
	s.notify(snap)
}

func (s *Store) notify(snap Snapshot) {
	s.subMu.Lock()
	subs := make([]subscription, len(s.subs))
	copy(subs, s.subs)
	s.subMu.Unlock()

	for _, sub := range subs {
		sub.fn(snap)
	}
}

// commitLocked recomputes totals, persists and returns the snapshot to publish.
func (s *Store) commitLocked(ctx context.Context) Snapshot {
	s.totals = Snapshot(s.lines).Totals()
	if err := s.persistLocked(ctx); err != nil {
		s.logger.Error("failed to persist cart", zap.String("key", s.key), zap.Error(err))
	}
	return s.snapshotLocked()
}

func (s *Store) persistLocked(ctx context.Context) error {
	if s.slot == nil {
		return nil
	}
	lines := s.lines
	if lines == nil {
		lines = []Line{}
	}
	data, err := json.Marshal(lines)
	if err != nil {
		return err
	}
	return s.slot.Save(ctx, s.key, data)
}

func (s *Store) snapshotLocked() Snapshot {
	snap := make(Snapshot, len(s.lines))
	copy(snap, s.lines)
	return snap
}

func (s *Store) indexLocked(productID string) int {
	for i, line := range s.lines {
		if line.Product.ID == productID {
			return i
		}
	}
	return -1
}

// Package checkout holds the line items of one shopper session and publishes
// every new collection to its subscribers.
package checkout

import (
	"sync"

	"github.com/khalifgfrz/coffee-shop-storefront/internal/domain"
)

// Listener receives the full collection after each mutation. The slice is a
// copy owned by the listener.
type Listener func(items []domain.LineItem)

// Store is the checkout state of a single session. All mutations and their
// publication are serialized, so listeners observe collections in mutation
// order. Listeners must not call back into the Store.
type Store struct {
	mu        sync.RWMutex
	items     []domain.LineItem
	listeners map[uint64]Listener
	order     []uint64
	nextID    uint64
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{listeners: make(map[uint64]Listener)}
}

// AddOrUpdate adds candidate to the checkout. If an item with the same UUID is
// already present its count is incremented and every other field is kept;
// otherwise candidate is appended with count 1 and default options filled in.
func (s *Store) AddOrUpdate(candidate domain.LineItem) domain.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result domain.LineItem
	if idx := s.indexOf(candidate.UUID); idx >= 0 {
		updated := s.items[idx]
		updated.Count++
		s.items[idx] = updated
		result = updated
	} else {
		candidate.Count = 1
		candidate = candidate.WithOptions(candidate.Options().WithDefaults())
		s.items = append(s.items, candidate)
		result = candidate
	}

	s.publishLocked()
	return result
}

// UpdateOptions changes the options of the item identified by uuid in place.
// It reports false when no such item exists.
func (s *Store) UpdateOptions(uuid string, opts domain.Options) (domain.LineItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(uuid)
	if idx < 0 {
		return domain.LineItem{}, false
	}
	s.items[idx] = s.items[idx].WithOptions(opts)
	updated := s.items[idx]

	s.publishLocked()
	return updated, true
}

// Remove deletes the item identified by uuid. It reports false when no such
// item exists.
func (s *Store) Remove(uuid string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(uuid)
	if idx < 0 {
		return false
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)

	s.publishLocked()
	return true
}

// Clear empties the checkout.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.publishLocked()
}

// Restore replaces the collection with items without notifying listeners.
// Duplicate UUIDs keep the first occurrence.
func (s *Store) Restore(items []domain.LineItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make([]domain.LineItem, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if _, dup := seen[it.UUID]; dup {
			continue
		}
		seen[it.UUID] = struct{}{}
		s.items = append(s.items, it)
	}
}

// Items returns a copy of the current collection in insertion order.
func (s *Store) Items() []domain.LineItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Item returns the item identified by uuid.
func (s *Store) Item(uuid string) (domain.LineItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexOf(uuid)
	if idx < 0 {
		return domain.LineItem{}, false
	}
	return s.items[idx], true
}

// ItemCount returns the sum of counts over all items.
func (s *Store) ItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, it := range s.items {
		total += it.Count
	}
	return total
}

// Total returns the sum of price times count over all items.
func (s *Store) Total() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	for _, it := range s.items {
		total += it.Subtotal()
	}
	return total
}

// Subscribe registers fn and returns a func that removes it. Listeners are
// called synchronously in registration order.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.order = append(s.order, id)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.listeners, id)
			for i, v := range s.order {
				if v == id {
					s.order = append(s.order[:i], s.order[i+1:]...)
					break
				}
			}
		})
	}
}

func (s *Store) indexOf(uuid string) int {
	for i := range s.items {
		if s.items[i].UUID == uuid {
			return i
		}
	}
	return -1
}

func (s *Store) snapshotLocked() []domain.LineItem {
	out := make([]domain.LineItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) publishLocked() {
	for _, id := range s.order {
		s.listeners[id](s.snapshotLocked())
	}
}

// Package memory provides an in-process session repository for single
// instance deployments and tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/khalifgfrz/coffee-shop-storefront/internal/domain"
	apperrors "github.com/khalifgfrz/coffee-shop-storefront/pkg/errors"
)

type entry struct {
	data      []byte
	expiresAt time.Time
}

// SessionRepository keeps JSON snapshots in a map. Snapshots are serialized
// so callers never share memory with the stored copy.
type SessionRepository struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// NewSessionRepository creates an in-memory repository whose entries expire
// after ttl.
func NewSessionRepository(ttl time.Duration) *SessionRepository {
	return &SessionRepository{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (r *SessionRepository) Get(_ context.Context, id string) (*domain.Session, error) {
	r.mu.Lock()
	e, ok := r.entries[id]
	if ok && r.now().After(e.expiresAt) {
		delete(r.entries, id)
		ok = false
	}
	r.mu.Unlock()

	if !ok {
		return nil, apperrors.NotFound("session", id)
	}

	var s domain.Session
	if err := json.Unmarshal(e.data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &s, nil
}

func (r *SessionRepository) Save(_ context.Context, s *domain.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	r.mu.Lock()
	r.entries[s.ID] = entry{data: data, expiresAt: r.now().Add(r.ttl)}
	r.mu.Unlock()
	return nil
}

func (r *SessionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	delete(r.entries, id)
	r.mu.Unlock()
	return nil
}

func (r *SessionRepository) Ping(context.Context) error { return nil }

// Purge drops expired entries and returns how many were removed.
func (r *SessionRepository) Purge() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	n := 0
	for id, e := range r.entries {
		if now.After(e.expiresAt) {
			delete(r.entries, id)
			n++
		}
	}
	return n
}

// Len returns the number of stored entries, expired or not.
func (r *SessionRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

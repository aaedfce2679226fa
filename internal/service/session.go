package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/khalifgfrz/coffee-shop-storefront/internal/checkout"
	"github.com/khalifgfrz/coffee-shop-storefront/internal/domain"
	"github.com/khalifgfrz/coffee-shop-storefront/internal/repository"
	apperrors "github.com/khalifgfrz/coffee-shop-storefront/pkg/errors"
)

// Session is the live state of one shopper: the checkout store plus the
// account token and the last displayed product listing.
type Session struct {
	ID    string
	Store *checkout.Store

	mu        sync.Mutex
	token     string
	userID    string
	email     string
	listing   *domain.ProductPage
	filter    domain.ListingFilter
	createdAt time.Time
	lastSeen  time.Time

	persistMu sync.Mutex
	destroyed bool // guarded by persistMu
	done      chan struct{}
	closeOnce sync.Once
}

func newSession(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		Store:     checkout.NewStore(),
		createdAt: now,
		lastSeen:  now,
		done:      make(chan struct{}),
	}
}

// Token returns the bearer token, empty when logged out.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// UserID returns the user id read from the token, if any.
func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// Listing returns the last displayed product page, or nil.
func (s *Session) Listing() *domain.ProductPage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listing
}

// Done is closed when the session is destroyed or evicted.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) setAuth(token string, claims TokenClaims) {
	s.mu.Lock()
	s.token = token
	s.userID = claims.UserID
	s.email = claims.Email
	s.mu.Unlock()
}

// displayed returns the last displayed page together with the filter that
// produced it.
func (s *Session) displayed() (*domain.ProductPage, domain.ListingFilter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listing, s.filter
}

func (s *Session) setListing(p *domain.ProductPage, f domain.ListingFilter) {
	s.mu.Lock()
	s.listing = p
	s.filter = f
	s.mu.Unlock()
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *Session) snapshot(now time.Time, ttl time.Duration) *domain.Session {
	items := s.Store.Items()

	s.mu.Lock()
	defer s.mu.Unlock()
	var filter *domain.ListingFilter
	if s.listing != nil {
		f := s.filter
		filter = &f
	}
	return &domain.Session{
		ID:            s.ID,
		Token:         s.token,
		UserID:        s.userID,
		Email:         s.email,
		Items:         items,
		Listing:       s.listing,
		ListingFilter: filter,
		CreatedAt:     s.createdAt,
		UpdatedAt:     now,
		ExpiresAt:     now.Add(ttl),
	}
}

func (s *Session) restore(snap *domain.Session) {
	s.mu.Lock()
	s.token = snap.Token
	s.userID = snap.UserID
	s.email = snap.Email
	s.listing = snap.Listing
	switch {
	case snap.ListingFilter != nil:
		s.filter = *snap.ListingFilter
	case snap.Listing != nil:
		s.filter = domain.DefaultListingFilter()
		s.filter.Page = snap.Listing.Page
	}
	if !snap.CreatedAt.IsZero() {
		s.createdAt = snap.CreatedAt
	}
	s.mu.Unlock()
	s.Store.Restore(snap.Items)
}

// SessionRegistry owns every live Session. Sessions are created on first use,
// hydrated from the repository when a snapshot exists, and evicted after
// being idle for longer than the TTL.
type SessionRegistry struct {
	repo   repository.SessionRepository
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
	onCreate []func(*Session)
}

// NewSessionRegistry creates a registry backed by repo.
func NewSessionRegistry(repo repository.SessionRepository, ttl time.Duration, logger *slog.Logger) *SessionRegistry {
	return &SessionRegistry{
		repo:     repo,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// OnCreate registers fn to run for every session the registry brings into
// memory, before the session is handed to any caller.
func (r *SessionRegistry) OnCreate(fn func(*Session)) {
	r.mu.Lock()
	r.onCreate = append(r.onCreate, fn)
	r.mu.Unlock()
}

// Session returns the live session for id, hydrating it from the repository
// or creating an empty one. Repository failures are logged and an empty
// session is used.
func (r *SessionRegistry) Session(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}

	now := r.now()
	r.mu.Lock()
	if s, ok := r.sessions[id]; ok {
		r.mu.Unlock()
		s.touch(now)
		return s, nil
	}
	r.mu.Unlock()

	fresh := newSession(id, now)
	snap, err := r.repo.Get(ctx, id)
	switch {
	case err == nil:
		if !snap.Expired(now) {
			fresh.restore(snap)
		}
	case errors.Is(err, apperrors.ErrNotFound):
	default:
		r.logger.WarnContext(ctx, "failed to load session snapshot",
			slog.String("session_id", id),
			slog.String("error", err.Error()),
		)
	}

	r.mu.Lock()
	if s, ok := r.sessions[id]; ok {
		r.mu.Unlock()
		s.touch(now)
		return s, nil
	}
	for _, fn := range r.onCreate {
		fn(fresh)
	}
	r.sessions[id] = fresh
	sessionsActive.Set(float64(len(r.sessions)))
	r.mu.Unlock()

	return fresh, nil
}

// Persist saves the current snapshot of s. Errors are logged and swallowed;
// the in-memory state stays authoritative. A destroyed session is never
// written back, so a request still holding it cannot undo a logout.
func (r *SessionRegistry) Persist(ctx context.Context, s *Session) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if s.destroyed {
		return
	}

	if err := r.repo.Save(ctx, s.snapshot(r.now(), r.ttl)); err != nil {
		snapshotSaveErrors.Inc()
		r.logger.WarnContext(ctx, "failed to save session snapshot",
			slog.String("session_id", s.ID),
			slog.String("error", err.Error()),
		)
	}
}

// Destroy removes the session from memory and from the repository.
func (r *SessionRegistry) Destroy(ctx context.Context, id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	sessionsActive.Set(float64(len(r.sessions)))
	r.mu.Unlock()

	if !ok {
		if err := r.repo.Delete(ctx, id); err != nil {
			return apperrors.Wrap(err, "delete session")
		}
		return nil
	}

	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	s.destroyed = true
	s.close()
	sessionsEvicted.WithLabelValues("destroyed").Inc()

	if err := r.repo.Delete(ctx, id); err != nil {
		return apperrors.Wrap(err, "delete session")
	}
	return nil
}

// Evict drops sessions idle for longer than the TTL from memory and returns
// how many were dropped. Their snapshots stay in the repository until they
// expire there.
func (r *SessionRegistry) Evict() int {
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	var idle []*Session
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			idle = append(idle, s)
			delete(r.sessions, id)
		}
	}
	sessionsActive.Set(float64(len(r.sessions)))
	r.mu.Unlock()

	for _, s := range idle {
		s.close()
	}
	if len(idle) > 0 {
		sessionsEvicted.WithLabelValues("idle").Add(float64(len(idle)))
	}
	return len(idle)
}

// Run evicts idle sessions every interval until ctx is cancelled.
func (r *SessionRegistry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Evict(); n > 0 {
				r.logger.Info("evicted idle sessions", slog.Int("count", n))
			}
		}
	}
}

// Len returns the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/khalifgfrz/coffee-shop-storefront/internal/domain"
	apperrors "github.com/khalifgfrz/coffee-shop-storefront/pkg/errors"
)

func TestSessionRegistry_CreatesOncePerID(t *testing.T) {
	reg, _ := newMemoryRegistry()
	ctx := context.Background()
	created := 0
	reg.OnCreate(func(*Session) { created++ })

	a, err := reg.Session(ctx, "s1")
	require.NoError(t, err)
	b, err := reg.Session(ctx, "s1")
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, reg.Len())
}

func TestSessionRegistry_EmptyID(t *testing.T) {
	reg, _ := newMemoryRegistry()

	_, err := reg.Session(context.Background(), "")

	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestSessionRegistry_HydratesFromRepository(t *testing.T) {
	reg, repo := newMemoryRegistry()
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, &domain.Session{
		ID:        "s1",
		Token:     "tok",
		Items:     []domain.LineItem{{UUID: "u1", Count: 2, Delivery: 1, Payment: 1, Size: 1}},
		Listing:   &domain.ProductPage{Page: 2, TotalPage: 5},
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	sess, err := reg.Session(ctx, "s1")

	require.NoError(t, err)
	assert.Equal(t, "tok", sess.Token())
	assert.Equal(t, 2, sess.Store.ItemCount())
	require.NotNil(t, sess.Listing())
	assert.Equal(t, 2, sess.Listing().Page)
}

func TestSessionRegistry_RepositoryFailureStartsEmpty(t *testing.T) {
	repo := new(mockSessionRepository)
	reg := NewSessionRegistry(repo, time.Hour, newTestLogger())
	ctx := context.Background()
	repo.On("Get", ctx, "s1").Return(nil, errors.New("connection refused"))

	sess, err := reg.Session(ctx, "s1")

	require.NoError(t, err)
	assert.Equal(t, 0, sess.Store.ItemCount())
	repo.AssertExpectations(t)
}

func TestSessionRegistry_PersistFailureKeepsState(t *testing.T) {
	repo := new(mockSessionRepository)
	reg := NewSessionRegistry(repo, time.Hour, newTestLogger())
	ctx := context.Background()
	repo.On("Get", ctx, "s1").Return(nil, apperrors.NotFound("session", "s1"))
	repo.On("Save", ctx, mock.AnythingOfType("*domain.Session")).Return(errors.New("redis down"))

	sess, err := reg.Session(ctx, "s1")
	require.NoError(t, err)
	sess.Store.AddOrUpdate(domain.LineItem{UUID: "u1"})
	reg.Persist(ctx, sess)

	assert.Equal(t, 1, sess.Store.ItemCount())
	repo.AssertExpectations(t)
}

func TestSessionRegistry_PersistWritesSnapshot(t *testing.T) {
	reg, repo := newMemoryRegistry()
	ctx := context.Background()
	sess, err := reg.Session(ctx, "s1")
	require.NoError(t, err)
	sess.Store.AddOrUpdate(domain.LineItem{UUID: "u1", ProductName: "Latte"})
	sess.setAuth("tok", TokenClaims{UserID: "user-1", Email: "a@b.co"})

	reg.Persist(ctx, sess)

	snap, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "tok", snap.Token)
	assert.Equal(t, "user-1", snap.UserID)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "Latte", snap.Items[0].ProductName)
	assert.False(t, snap.ExpiresAt.IsZero())
}

func TestSessionRegistry_Destroy(t *testing.T) {
	reg, repo := newMemoryRegistry()
	ctx := context.Background()
	sess, err := reg.Session(ctx, "s1")
	require.NoError(t, err)
	sess.Store.AddOrUpdate(domain.LineItem{UUID: "u1"})
	reg.Persist(ctx, sess)

	require.NoError(t, reg.Destroy(ctx, "s1"))

	select {
	case <-sess.Done():
	default:
		t.Fatal("session should be closed")
	}
	assert.Equal(t, 0, reg.Len())
	_, err = repo.Get(ctx, "s1")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	fresh, err := reg.Session(ctx, "s1")
	require.NoError(t, err)
	assert.NotSame(t, sess, fresh)
	assert.Equal(t, 0, fresh.Store.ItemCount())
}

func TestSessionRegistry_PersistAfterDestroyKeepsLogout(t *testing.T) {
	reg, repo := newMemoryRegistry()
	ctx := context.Background()
	inflight, err := reg.Session(ctx, "s1")
	require.NoError(t, err)
	inflight.setAuth("tok", TokenClaims{UserID: "7"})
	reg.Persist(ctx, inflight)

	require.NoError(t, reg.Destroy(ctx, "s1"))
	inflight.Store.AddOrUpdate(domain.LineItem{UUID: "u1"})
	reg.Persist(ctx, inflight)

	_, err = repo.Get(ctx, "s1")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	again, err := reg.Session(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, again.Token())
	assert.Equal(t, 0, again.Store.ItemCount())
}

func TestSessionRegistry_PersistAfterEvictStillSaves(t *testing.T) {
	reg, repo := newMemoryRegistry()
	ctx := context.Background()
	sess, err := reg.Session(ctx, "s1")
	require.NoError(t, err)

	reg.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	require.Equal(t, 1, reg.Evict())
	reg.now = time.Now

	sess.Store.AddOrUpdate(domain.LineItem{UUID: "u1"})
	reg.Persist(ctx, sess)

	snap, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, snap.Items, 1)
}

func TestSessionRegistry_EvictIdle(t *testing.T) {
	reg, _ := newMemoryRegistry()
	ctx := context.Background()
	now := time.Now()
	reg.now = func() time.Time { return now }

	old, err := reg.Session(ctx, "old")
	require.NoError(t, err)
	now = now.Add(50 * time.Minute)
	_, err = reg.Session(ctx, "recent")
	require.NoError(t, err)
	now = now.Add(20 * time.Minute)

	assert.Equal(t, 1, reg.Evict())
	assert.Equal(t, 1, reg.Len())
	select {
	case <-old.Done():
	default:
		t.Fatal("evicted session should be closed")
	}
}

func TestSessionRegistry_RunStopsOnCancel(t *testing.T) {
	reg, _ := newMemoryRegistry()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		reg.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}

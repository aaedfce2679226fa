package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khalifgfrz/coffee-shop-storefront/internal/domain"
	apperrors "github.com/khalifgfrz/coffee-shop-storefront/pkg/errors"
)

func setupTestRedis(t *testing.T) (*SessionRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewSessionRepository(client, time.Hour), mr
}

func sampleSession() *domain.Session {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &domain.Session{
		ID:    "sess-1",
		Token: "jwt-token",
		Items: []domain.LineItem{
			{UUID: "u1", ProductID: 1, ProductName: "Latte", Price: 20000, Count: 2, Delivery: 1, Payment: 1, Size: 2, Ice: true},
		},
		Listing: &domain.ProductPage{
			Products:  []domain.Product{{ID: 1, UUID: "u1", ProductName: "Latte", Price: 20000}},
			Page:      1,
			TotalPage: 3,
		},
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
}

func TestSessionRepository_SaveAndGet(t *testing.T) {
	repo, mr := setupTestRedis(t)
	s := sampleSession()

	require.NoError(t, repo.Save(context.Background(), s))

	assert.Equal(t, time.Hour, mr.TTL(keyPrefix+s.ID))

	got, err := repo.Get(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.Token, got.Token)
	assert.Equal(t, s.Items, got.Items)
	require.NotNil(t, got.Listing)
	assert.Equal(t, 3, got.Listing.TotalPage)
	assert.True(t, s.CreatedAt.Equal(got.CreatedAt))
}

func TestSessionRepository_GetStoredJSON(t *testing.T) {
	repo, mr := setupTestRedis(t)
	s := sampleSession()
	data, err := json.Marshal(s)
	require.NoError(t, err)
	require.NoError(t, mr.Set(keyPrefix+s.ID, string(data)))

	got, err := repo.Get(context.Background(), s.ID)

	require.NoError(t, err)
	assert.Equal(t, "u1", got.Items[0].UUID)
}

func TestSessionRepository_GetNotFound(t *testing.T) {
	repo, _ := setupTestRedis(t)

	_, err := repo.Get(context.Background(), "missing")

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestSessionRepository_Expiry(t *testing.T) {
	repo, mr := setupTestRedis(t)
	s := sampleSession()
	require.NoError(t, repo.Save(context.Background(), s))

	mr.FastForward(time.Hour + time.Second)

	_, err := repo.Get(context.Background(), s.ID)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestSessionRepository_GetCorruptData(t *testing.T) {
	repo, mr := setupTestRedis(t)
	require.NoError(t, mr.Set(keyPrefix+"bad", "{not json"))

	_, err := repo.Get(context.Background(), "bad")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal session")
}

func TestSessionRepository_Delete(t *testing.T) {
	repo, mr := setupTestRedis(t)
	s := sampleSession()
	require.NoError(t, repo.Save(context.Background(), s))

	require.NoError(t, repo.Delete(context.Background(), s.ID))

	assert.False(t, mr.Exists(keyPrefix+s.ID))
	assert.NoError(t, repo.Delete(context.Background(), "never-saved"))
}

func TestSessionRepository_ConnectionError(t *testing.T) {
	repo, mr := setupTestRedis(t)
	mr.Close()

	_, err := repo.Get(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis get session")

	assert.Error(t, repo.Save(context.Background(), sampleSession()))
	assert.Error(t, repo.Ping(context.Background()))
}

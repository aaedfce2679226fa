package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/khalifgfrz/coffee-shop-storefront/internal/domain"
	"github.com/khalifgfrz/coffee-shop-storefront/internal/repository/memory"
)

// --- Mock Repository ---

type mockSessionRepository struct {
	mock.Mock
}

func (m *mockSessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *mockSessionRepository) Save(ctx context.Context, s *domain.Session) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *mockSessionRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockSessionRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- Mock Backend ---

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) ListProducts(ctx context.Context, f domain.ListingFilter) (*domain.ProductPage, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProductPage), args.Error(1)
}

func (m *mockBackend) GetProduct(ctx context.Context, uuid string) (*domain.Product, error) {
	args := m.Called(ctx, uuid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockBackend) Login(ctx context.Context, creds domain.Credentials) (string, error) {
	args := m.Called(ctx, creds)
	return args.String(0), args.Error(1)
}

func (m *mockBackend) UpdateProfile(ctx context.Context, token string, upd domain.ProfileUpdate) (*domain.UserProfile, error) {
	args := m.Called(ctx, token, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserProfile), args.Error(1)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newMemoryRegistry() (*SessionRegistry, *memory.SessionRepository) {
	repo := memory.NewSessionRepository(time.Hour)
	return NewSessionRegistry(repo, time.Hour, newTestLogger()), repo
}

func sampleProduct() *domain.Product {
	return &domain.Product{ID: 3, UUID: "prod-3", ProductName: "Caramel Macchiato", Category: domain.CategoryCoffee, Price: 30000, Image: "cm.webp"}
}

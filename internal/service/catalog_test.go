package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khalifgfrz/coffee-shop-storefront/internal/domain"
	"github.com/khalifgfrz/coffee-shop-storefront/internal/repository/memory"
	apperrors "github.com/khalifgfrz/coffee-shop-storefront/pkg/errors"
)

func newTestCatalogService() (*CatalogService, *mockBackend, *SessionRegistry) {
	reg, _ := newMemoryRegistry()
	backend := new(mockBackend)
	return NewCatalogService(backend, reg, newTestLogger()), backend, reg
}

func TestCatalogService_ListProducts(t *testing.T) {
	svc, backend, reg := newTestCatalogService()
	ctx := context.Background()
	f := domain.DefaultListingFilter()
	page := &domain.ProductPage{Products: []domain.Product{*sampleProduct()}, Page: 1, TotalPage: 2}
	backend.On("ListProducts", ctx, f).Return(page, nil)

	got, err := svc.ListProducts(ctx, "s1", f)

	require.NoError(t, err)
	assert.False(t, got.Stale)
	assert.Equal(t, 2, got.TotalPage)
	sess, _ := reg.Session(ctx, "s1")
	assert.Equal(t, page, sess.Listing())
	backend.AssertExpectations(t)
}

func TestCatalogService_FailedFetchKeepsPreviousListing(t *testing.T) {
	svc, backend, reg := newTestCatalogService()
	ctx := context.Background()
	first := domain.DefaultListingFilter()
	second := first
	second.Category = domain.CategoryFoods
	page := &domain.ProductPage{Products: []domain.Product{*sampleProduct()}, Page: 1, TotalPage: 1}
	backend.On("ListProducts", ctx, first).Return(page, nil)
	backend.On("ListProducts", ctx, second).Return(nil, apperrors.ServiceUnavailable("coffee-shop-api timed out"))

	_, err := svc.ListProducts(ctx, "s1", first)
	require.NoError(t, err)

	got, err := svc.ListProducts(ctx, "s1", second)

	require.NoError(t, err)
	assert.True(t, got.Stale)
	assert.Equal(t, "coffee-shop-api timed out", got.Notice)
	assert.Equal(t, page.Products, got.Products)
	assert.Equal(t, first, got.Filter, "stale page is labelled with the filter that produced it")
	sess, _ := reg.Session(ctx, "s1")
	assert.Equal(t, page, sess.Listing(), "displayed listing must not change")
}

func TestCatalogService_StaleFilterSurvivesHydration(t *testing.T) {
	repo := memory.NewSessionRepository(time.Hour)
	backend := new(mockBackend)
	ctx := context.Background()
	first := domain.DefaultListingFilter()
	first.SortBy = domain.SortPrice
	second := first
	second.Page = 3
	page := &domain.ProductPage{Products: []domain.Product{*sampleProduct()}, Page: 1, TotalPage: 3}
	backend.On("ListProducts", ctx, first).Return(page, nil)
	backend.On("ListProducts", ctx, second).Return(nil, apperrors.ServiceUnavailable("coffee-shop-api timed out"))

	before := NewCatalogService(backend, NewSessionRegistry(repo, time.Hour, newTestLogger()), newTestLogger())
	_, err := before.ListProducts(ctx, "s1", first)
	require.NoError(t, err)

	after := NewCatalogService(backend, NewSessionRegistry(repo, time.Hour, newTestLogger()), newTestLogger())
	got, err := after.ListProducts(ctx, "s1", second)

	require.NoError(t, err)
	assert.True(t, got.Stale)
	assert.Equal(t, first, got.Filter)
}

func TestCatalogService_FailedFetchWithoutPreviousListing(t *testing.T) {
	svc, backend, _ := newTestCatalogService()
	ctx := context.Background()
	f := domain.DefaultListingFilter()
	backend.On("ListProducts", ctx, f).Return(nil, apperrors.Upstream("bad gateway", errors.New("boom")))

	_, err := svc.ListProducts(ctx, "s1", f)

	assert.True(t, errors.Is(err, apperrors.ErrUpstream))
}

func TestCatalogService_GetProduct(t *testing.T) {
	svc, backend, _ := newTestCatalogService()
	ctx := context.Background()
	backend.On("GetProduct", ctx, "prod-3").Return(sampleProduct(), nil)

	p, err := svc.GetProduct(ctx, "prod-3")

	require.NoError(t, err)
	assert.Equal(t, "Caramel Macchiato", p.ProductName)
}

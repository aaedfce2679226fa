package service

import (
	"context"
	"log/slog"

	"github.com/khalifgfrz/coffee-shop-storefront/internal/domain"
)

// ProductBackend is the catalog side of the backend API.
type ProductBackend interface {
	ListProducts(ctx context.Context, f domain.ListingFilter) (*domain.ProductPage, error)
	GetProduct(ctx context.Context, uuid string) (*domain.Product, error)
}

// Listing is a product page as shown to a session, with the filter that
// produced it. Stale is set when the fetch failed and the previously
// displayed page is returned instead; Filter is then the earlier filter and
// Notice carries the failure text.
type Listing struct {
	domain.ProductPage
	Filter domain.ListingFilter `json:"filter"`
	Stale  bool                 `json:"stale"`
	Notice string               `json:"notice,omitempty"`
}

// CatalogService serves product listings and details.
type CatalogService struct {
	backend  ProductBackend
	sessions *SessionRegistry
	logger   *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(backend ProductBackend, sessions *SessionRegistry, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		backend:  backend,
		sessions: sessions,
		logger:   logger,
	}
}

// ListProducts fetches a page for the session. A successful page becomes the
// session's displayed listing. When the fetch fails the displayed listing is
// left unchanged and returned marked stale; without one the error is returned.
func (s *CatalogService) ListProducts(ctx context.Context, sessionID string, f domain.ListingFilter) (*Listing, error) {
	sess, err := s.sessions.Session(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	page, err := s.backend.ListProducts(ctx, f)
	if err != nil {
		s.logger.WarnContext(ctx, "product listing failed",
			slog.String("category", f.Category),
			slog.Int("page", f.Page),
			slog.String("error", err.Error()),
		)
		prev, prevFilter := sess.displayed()
		if prev == nil {
			return nil, err
		}
		listingFallbacks.Inc()
		return &Listing{ProductPage: *prev, Filter: prevFilter, Stale: true, Notice: noticeText(err)}, nil
	}

	sess.setListing(page, f)
	s.sessions.Persist(ctx, sess)

	return &Listing{ProductPage: *page, Filter: f}, nil
}

// GetProduct returns a single product.
func (s *CatalogService) GetProduct(ctx context.Context, uuid string) (*domain.Product, error) {
	return s.backend.GetProduct(ctx, uuid)
}

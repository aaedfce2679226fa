package service

import (
	"context"
	"log/slog"

	"github.com/khalifgfrz/coffee-shop-storefront/internal/domain"
	apperrors "github.com/khalifgfrz/coffee-shop-storefront/pkg/errors"
)

// ProductFetcher loads a single catalog product.
type ProductFetcher interface {
	GetProduct(ctx context.Context, uuid string) (*domain.Product, error)
}

// AddItemInput is a line item candidate supplied by the UI. UUID is the
// identity; product fields are copied into the item on first add only.
type AddItemInput struct {
	UUID        string `json:"uuid" validate:"required,max=64"`
	ProductID   int    `json:"product_id" validate:"gte=0"`
	ProductName string `json:"product_name" validate:"required,max=100"`
	Price       int64  `json:"price" validate:"gte=0"`
	Image       string `json:"image" validate:"max=512"`
	Delivery    int    `json:"delivery" validate:"omitempty,min=1,max=3"`
	Payment     int    `json:"payment" validate:"omitempty,min=1,max=3"`
	Size        int    `json:"size" validate:"omitempty,min=1,max=3"`
	Ice         bool   `json:"ice"`
}

// AddProductInput adds a catalog product by UUID. Identity defaults to the
// product UUID.
type AddProductInput struct {
	Identity string `json:"uuid,omitempty" validate:"omitempty,max=64"`
	Delivery int    `json:"delivery" validate:"omitempty,min=1,max=3"`
	Payment  int    `json:"payment" validate:"omitempty,min=1,max=3"`
	Size     int    `json:"size" validate:"omitempty,min=1,max=3"`
	Ice      bool   `json:"ice"`
}

// Summary is the checkout view returned to the UI.
type Summary struct {
	Items     []domain.LineItem `json:"items"`
	ItemCount int               `json:"item_count"`
	Total     int64             `json:"total"`
}

// CheckoutService implements the checkout operations of a session.
type CheckoutService struct {
	sessions *SessionRegistry
	products ProductFetcher
	logger   *slog.Logger
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(sessions *SessionRegistry, products ProductFetcher, logger *slog.Logger) *CheckoutService {
	return &CheckoutService{
		sessions: sessions,
		products: products,
		logger:   logger,
	}
}

// Summary returns the items, their count and the total price.
func (s *CheckoutService) Summary(ctx context.Context, sessionID string) (*Summary, error) {
	sess, err := s.sessions.Session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return summarize(sess), nil
}

// Count returns the number of units in the checkout.
func (s *CheckoutService) Count(ctx context.Context, sessionID string) (int, error) {
	sess, err := s.sessions.Session(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	return sess.Store.ItemCount(), nil
}

// AddItem adds a UI-supplied candidate, or increments it when already present.
func (s *CheckoutService) AddItem(ctx context.Context, sessionID string, in AddItemInput) (*domain.LineItem, error) {
	sess, err := s.sessions.Session(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	candidate := domain.LineItem{
		UUID:        in.UUID,
		ProductID:   in.ProductID,
		ProductName: in.ProductName,
		Price:       in.Price,
		Image:       in.Image,
		Delivery:    in.Delivery,
		Payment:     in.Payment,
		Size:        in.Size,
		Ice:         in.Ice,
	}
	return s.add(ctx, sess, candidate), nil
}

// AddProduct fetches a product from the catalog and adds it.
func (s *CheckoutService) AddProduct(ctx context.Context, sessionID, productUUID string, in AddProductInput) (*domain.LineItem, error) {
	sess, err := s.sessions.Session(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	product, err := s.products.GetProduct(ctx, productUUID)
	if err != nil {
		return nil, err
	}

	candidate := product.LineItem(domain.Options{
		Delivery: in.Delivery,
		Payment:  in.Payment,
		Size:     in.Size,
		Ice:      in.Ice,
	})
	if in.Identity != "" {
		candidate.UUID = in.Identity
	}
	return s.add(ctx, sess, candidate), nil
}

func (s *CheckoutService) add(ctx context.Context, sess *Session, candidate domain.LineItem) *domain.LineItem {
	item := sess.Store.AddOrUpdate(candidate)
	checkoutMutations.WithLabelValues("add").Inc()
	s.sessions.Persist(ctx, sess)

	s.logger.InfoContext(ctx, "checkout item added",
		slog.String("item_uuid", item.UUID),
		slog.Int("count", item.Count),
	)
	return &item
}

// UpdateOptions applies patch to the item identified by itemUUID.
func (s *CheckoutService) UpdateOptions(ctx context.Context, sessionID, itemUUID string, patch domain.OptionPatch) (*domain.LineItem, error) {
	sess, err := s.sessions.Session(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	current, ok := sess.Store.Item(itemUUID)
	if !ok {
		return nil, apperrors.NotFound("line item", itemUUID)
	}
	if patch.Empty() {
		return &current, nil
	}

	opts := patch.Apply(current.Options())
	if !opts.Valid() {
		return nil, apperrors.InvalidInput("delivery, payment and size must be between 1 and 3")
	}

	updated, ok := sess.Store.UpdateOptions(itemUUID, opts)
	if !ok {
		return nil, apperrors.NotFound("line item", itemUUID)
	}
	checkoutMutations.WithLabelValues("update").Inc()
	s.sessions.Persist(ctx, sess)

	return &updated, nil
}

// RemoveItem deletes the item identified by itemUUID.
func (s *CheckoutService) RemoveItem(ctx context.Context, sessionID, itemUUID string) error {
	sess, err := s.sessions.Session(ctx, sessionID)
	if err != nil {
		return err
	}

	if !sess.Store.Remove(itemUUID) {
		return apperrors.NotFound("line item", itemUUID)
	}
	checkoutMutations.WithLabelValues("remove").Inc()
	s.sessions.Persist(ctx, sess)

	s.logger.InfoContext(ctx, "checkout item removed", slog.String("item_uuid", itemUUID))
	return nil
}

// Clear empties the checkout.
func (s *CheckoutService) Clear(ctx context.Context, sessionID string) error {
	sess, err := s.sessions.Session(ctx, sessionID)
	if err != nil {
		return err
	}

	sess.Store.Clear()
	checkoutMutations.WithLabelValues("clear").Inc()
	s.sessions.Persist(ctx, sess)
	return nil
}

// Subscribe registers fn on the session's store. The returned channel is
// closed when the session goes away.
func (s *CheckoutService) Subscribe(ctx context.Context, sessionID string, fn func(Summary)) (unsubscribe func(), done <-chan struct{}, err error) {
	sess, err := s.sessions.Session(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	unsubscribe = sess.Store.Subscribe(func(items []domain.LineItem) {
		fn(summarizeItems(items))
	})
	return unsubscribe, sess.Done(), nil
}

func summarize(sess *Session) *Summary {
	sum := summarizeItems(sess.Store.Items())
	return &sum
}

func summarizeItems(items []domain.LineItem) Summary {
	sum := Summary{Items: items}
	if sum.Items == nil {
		sum.Items = []domain.LineItem{}
	}
	for _, it := range items {
		sum.ItemCount += it.Count
		sum.Total += it.Subtotal()
	}
	return sum
}

package repository

import (
	"context"

	"github.com/khalifgfrz/coffee-shop-storefront/internal/domain"
)

// SessionRepository stores session snapshots with an expiry. Get returns a
// NOT_FOUND AppError for unknown or expired sessions.
type SessionRepository interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

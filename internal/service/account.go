package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/khalifgfrz/coffee-shop-storefront/internal/domain"
	apperrors "github.com/khalifgfrz/coffee-shop-storefront/pkg/errors"
)

// AccountBackend is the account side of the backend API.
type AccountBackend interface {
	Login(ctx context.Context, creds domain.Credentials) (string, error)
	UpdateProfile(ctx context.Context, token string, upd domain.ProfileUpdate) (*domain.UserProfile, error)
}

// LoginResult is returned to the UI after a successful login. The token stays
// on the server.
type LoginResult struct {
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email"`
}

// AccountService implements login, logout and profile updates.
type AccountService struct {
	backend  AccountBackend
	sessions *SessionRegistry
	logger   *slog.Logger
}

// NewAccountService creates a new account service.
func NewAccountService(backend AccountBackend, sessions *SessionRegistry, logger *slog.Logger) *AccountService {
	return &AccountService{
		backend:  backend,
		sessions: sessions,
		logger:   logger,
	}
}

// Login exchanges credentials for a token and stores it in the session. On
// failure the returned AppError carries the backend's reason as its message.
func (s *AccountService) Login(ctx context.Context, sessionID string, creds domain.Credentials) (*LoginResult, error) {
	sess, err := s.sessions.Session(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	token, err := s.backend.Login(ctx, creds)
	if err != nil {
		s.logger.InfoContext(ctx, "login rejected", slog.String("reason", noticeText(err)))
		return nil, err
	}

	claims, err := parseTokenClaims(token)
	if err != nil {
		s.logger.DebugContext(ctx, "token claims unreadable", slog.String("error", err.Error()))
	}
	if claims.Email == "" {
		claims.Email = creds.Email
	}

	sess.setAuth(token, claims)
	s.sessions.Persist(ctx, sess)

	s.logger.InfoContext(ctx, "user logged in", slog.String("user_id", claims.UserID))
	return &LoginResult{UserID: claims.UserID, Email: claims.Email}, nil
}

// Logout discards the session entirely, including its checkout.
func (s *AccountService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Destroy(ctx, sessionID); err != nil {
		s.logger.WarnContext(ctx, "failed to delete session snapshot", slog.String("error", err.Error()))
	}
	s.logger.InfoContext(ctx, "user logged out")
	return nil
}

// UpdateProfile forwards upd to the backend with the session's token.
func (s *AccountService) UpdateProfile(ctx context.Context, sessionID string, upd domain.ProfileUpdate) (*domain.UserProfile, error) {
	sess, err := s.sessions.Session(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	token := sess.Token()
	if token == "" {
		return nil, apperrors.Unauthorized("login required")
	}
	if upd.Empty() {
		return nil, apperrors.InvalidInput("no profile field to update")
	}

	profile, err := s.backend.UpdateProfile(ctx, token, upd)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "profile updated")
	return profile, nil
}

// noticeText is the short text shown to the shopper for err.
func noticeText(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "something went wrong, please try again"
}

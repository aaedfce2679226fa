package domain

import "time"

// Session is the persisted snapshot of one shopper's storefront state.
type Session struct {
	ID      string       `json:"id"`
	Token   string       `json:"token,omitempty"`
	UserID  string       `json:"user_id,omitempty"`
	Email   string       `json:"email,omitempty"`
	Items   []LineItem   `json:"items"`
	Listing *ProductPage `json:"listing,omitempty"`
	// ListingFilter is the filter that produced Listing.
	ListingFilter *ListingFilter `json:"listing_filter,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	ExpiresAt     time.Time      `json:"expires_at"`
}

// LoggedIn reports whether the session holds a bearer token.
func (s *Session) LoggedIn() bool {
	return s.Token != ""
}

// Expired reports whether the snapshot is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

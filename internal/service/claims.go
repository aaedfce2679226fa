package service

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims holds the identity fields read from a backend-issued token.
type TokenClaims struct {
	UserID string
	Email  string
}

// parseTokenClaims reads the claims of a backend token without verifying its
// signature. The storefront never trusts these values for authorization; they
// only label logs and session snapshots.
func parseTokenClaims(token string) (TokenClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenClaims{}, fmt.Errorf("parse token claims: %w", err)
	}

	var out TokenClaims
	for _, key := range []string{"uuid", "id", "user_id", "sub"} {
		if v, ok := claims[key]; ok && v != nil {
			out.UserID = claimString(v)
			break
		}
	}
	if v, ok := claims["email"]; ok && v != nil {
		out.Email = claimString(v)
	}
	return out, nil
}

func claimString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return fmt.Sprintf("%.0f", t)
	default:
		return fmt.Sprint(t)
	}
}

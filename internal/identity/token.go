// Package identity extracts the bot's own user and organization ids from the
// platform auth token. The token is a JWT issued and signed by the platform;
// the bot only needs the claims, so the signature is not checked here.
package identity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the acting user and organization derived from the auth token.
type Identity struct {
	UserID         string
	OrganizationID string
}

type tokenClaims struct {
	User         string `json:"user"`
	Organization string `json:"organization"`
	jwt.RegisteredClaims
}

// FromToken decodes the JWT claims without verifying the signature.
func FromToken(token string) (*Identity, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("identity: token is required")
	}
	claims := &tokenClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("identity: decode token: %w", err)
	}
	userID := claims.User
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return nil, errors.New("identity: token carries no user claim")
	}
	return &Identity{
		UserID:         userID,
		OrganizationID: claims.Organization,
	}, nil
}

package auth

import (
	"context"
	"errors"
	"time"
)

// TokenTTL is how long issued access tokens stay valid.
const TokenTTL = 15 * time.Minute

// Gate authenticates requests and answers role checks against the account
// store. It is the single entry point for both Basic and Bearer credentials.
type Gate struct {
	store Store
}

func NewGate(store Store) *Gate {
	return &Gate{store: store}
}

// AuthenticateBasic verifies a username and password pair. Unknown users and
// wrong passwords both come back as ErrInvalidCredentials so callers cannot
// probe which usernames exist.
func (g *Gate) AuthenticateBasic(ctx context.Context, username, password string) (Principal, error) {
	u, err := g.store.Users().FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Principal{}, ErrInvalidCredentials
		}
		return Principal{}, err
	}
	if err := VerifyPassword(u.PasswordHash, password); err != nil {
		return Principal{}, ErrInvalidCredentials
	}
	return Principal{UserID: u.ID, Username: u.Username, Roles: u.Roles}, nil
}

// AuthenticateToken verifies a bearer token and rebuilds the principal from
// its claims. Role tags ride inside the token, so no store lookup happens.
func (g *Gate) AuthenticateToken(ctx context.Context, token string) (Principal, error) {
	claims, err := ParseAndValidate(token)
	if err != nil {
		return Principal{}, ErrInvalidCredentials
	}
	return Principal{UserID: claims.Subject, Username: claims.Username, Roles: claims.Roles}, nil
}

// IssueToken signs a short-lived access token for an already authenticated
// principal.
func (g *Gate) IssueToken(p Principal) (string, time.Time, error) {
	token, err := GenerateToken(p.UserID, p.Username, p.Roles, TokenTTL)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, time.Now().UTC().Add(TokenTTL), nil
}

// Authorize checks that the principal holds at least one of the required
// role tags. An empty requirement list allows any authenticated principal.
func (g *Gate) Authorize(p Principal, roles ...string) error {
	if len(roles) == 0 {
		return nil
	}
	if !p.HasAnyRole(roles...) {
		return ErrForbidden
	}
	return nil
}

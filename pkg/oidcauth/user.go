package oidcauth

import (
	"context"
	"sync"

	"git.sr.ht/~jakintosh/gallery/pkg/bridge"
	"git.sr.ht/~jakintosh/gallery/pkg/identity"
	"golang.org/x/oauth2"
)

// User is a signed-in OIDC user. Its token is the raw ID token.
type User struct {
	claims identity.Claims

	// tokens builds a source that refreshes t under ctx once it expires
	tokens func(ctx context.Context, t *oauth2.Token) oauth2.TokenSource

	mu   sync.Mutex
	last *oauth2.Token
}

// Compile-time check that *User implements bridge.User.
var _ bridge.User = (*User)(nil)

func (u *User) Profile() bridge.Profile {
	return bridge.Profile{
		UID:         u.claims.UserID,
		DisplayName: u.claims.Name,
		Email:       u.claims.Email,
	}
}

// Claims returns the claims verified at sign-in.
func (u *User) Claims() identity.Claims {
	return u.claims
}

// Token returns a current ID token, refreshing it first when it is about to
// expire. The refresh request is bound to ctx.
func (u *User) Token(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	token, err := u.tokens(ctx, u.last).Token()
	if err != nil {
		return "", err
	}
	raw, _ := token.Extra("id_token").(string)
	if raw == "" {
		return "", ErrNoIDToken
	}

	u.last = token
	return raw, nil
}

// RefreshToken returns the most recent refresh token.
func (u *User) RefreshToken() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.last.RefreshToken
}

package identity

import (
	"context"
	"crypto"
	"fmt"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
)

// SupportedAlgorithms are the ID token signing algorithms accepted.
var SupportedAlgorithms = []string{oidc.RS256, oidc.ES256}

type Option func(*oidc.Config)

// WithClock replaces the clock used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *oidc.Config) { c.Now = now }
}

// OIDCVerifier verifies ID tokens with go-oidc.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// Compile-time check that *OIDCVerifier implements Verifier.
var _ Verifier = (*OIDCVerifier)(nil)

// NewOIDCVerifier discovers issuerURL and verifies tokens issued for clientID
// against the provider's published keys.
func NewOIDCVerifier(
	ctx context.Context,
	issuerURL string,
	clientID string,
	opts ...Option,
) (
	*OIDCVerifier,
	error,
) {
	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDiscovery, err)
	}
	return NewProviderVerifier(provider, clientID, opts...), nil
}

// NewProviderVerifier verifies tokens against an already discovered provider.
func NewProviderVerifier(
	provider *oidc.Provider,
	clientID string,
	opts ...Option,
) *OIDCVerifier {
	return &OIDCVerifier{
		verifier: provider.Verifier(newConfig(clientID, opts)),
	}
}

// NewStaticVerifier verifies tokens from issuer against a fixed set of
// public keys, without contacting the provider.
func NewStaticVerifier(
	issuer string,
	clientID string,
	keys []crypto.PublicKey,
	opts ...Option,
) *OIDCVerifier {
	keySet := &oidc.StaticKeySet{PublicKeys: keys}
	return &OIDCVerifier{
		verifier: oidc.NewVerifier(issuer, keySet, newConfig(clientID, opts)),
	}
}

func newConfig(
	clientID string,
	opts []Option,
) *oidc.Config {
	config := &oidc.Config{
		ClientID:             clientID,
		SupportedSigningAlgs: SupportedAlgorithms,
	}
	for _, opt := range opts {
		opt(config)
	}
	return config
}

type extraClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

func (v *OIDCVerifier) Verify(
	ctx context.Context,
	raw string,
) (
	*Claims,
	error,
) {
	token, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}

	var extra extraClaims
	if err := token.Claims(&extra); err != nil {
		return nil, fmt.Errorf("couldn't decode claims: %v", err)
	}

	// some providers only carry the uid in "user_id"
	uid := token.Subject
	if uid == "" {
		uid = extra.UserID
	}
	if uid == "" {
		return nil, ErrNoSubject
	}

	return &Claims{
		UserID: uid,
		Email:  extra.Email,
		Name:   extra.Name,
		Expiry: token.Expiry,
	}, nil
}

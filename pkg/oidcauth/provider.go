// Package oidcauth is a bridge.Provider backed by an OpenID Connect provider.
//
// It signs users in with the OAuth2 resource-owner password grant, verifies
// the returned ID token, and hands that ID token to the bridge as the user's
// token. Tokens are refreshed through the refresh token, and signing out
// revokes the refresh token when the provider advertises a revocation
// endpoint.
package oidcauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"git.sr.ht/~jakintosh/gallery/pkg/bridge"
	"git.sr.ht/~jakintosh/gallery/pkg/identity"
	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

var (
	ErrNoIDToken  = errors.New("token response has no id_token")
	ErrSignIn     = errors.New("sign-in failed")
	ErrRevocation = errors.New("token revocation failed")
)

// Credentials supplies an email and password when the sign-in widget is
// shown. It may block until the user has entered them.
type Credentials func(ctx context.Context) (email string, password string, err error)

type Config struct {
	IssuerURL    string
	ClientID     string
	ClientSecret string
	Scopes       []string
	HTTPClient   *http.Client
	Credentials  Credentials
}

type listener struct {
	next func(bridge.User)
	fail func(error)
}

// Provider tracks the signed-in user and notifies auth-state listeners.
type Provider struct {
	oauth         oauth2.Config
	verifier      identity.Verifier
	revocationURL string
	client        *http.Client
	credentials   Credentials

	// notifyMu is held from reading current until every listener has been
	// called, so each listener sees changes in the order they happened
	notifyMu sync.Mutex

	mu        sync.Mutex
	current   *User
	listeners map[int]listener
	nextID    int
}

// Compile-time check that *Provider implements bridge.Provider.
var _ bridge.Provider = (*Provider)(nil)

// New discovers the provider at cfg.IssuerURL.
func New(
	ctx context.Context,
	cfg Config,
) (
	*Provider,
	error,
) {
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	ctx = oidc.ClientContext(ctx, client)

	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", identity.ErrDiscovery, err)
	}

	var metadata struct {
		RevocationURL string `json:"revocation_endpoint"`
	}
	if err := provider.Claims(&metadata); err != nil {
		return nil, fmt.Errorf("%w: %v", identity.ErrDiscovery, err)
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "email", "profile", oidc.ScopeOfflineAccess}
	}

	return &Provider{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     provider.Endpoint(),
			Scopes:       scopes,
		},
		verifier:      identity.NewProviderVerifier(provider, cfg.ClientID),
		revocationURL: metadata.RevocationURL,
		client:        client,
		credentials:   cfg.Credentials,
		listeners:     make(map[int]listener),
	}, nil
}

// OnAuthStateChanged registers a listener and immediately reports the current
// user (nil when signed out) to it.
func (p *Provider) OnAuthStateChanged(
	next func(bridge.User),
	fail func(error),
) func() {
	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()

	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = listener{next: next, fail: fail}
	current := p.current
	p.mu.Unlock()

	next(asBridgeUser(current))

	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

// CurrentUser returns the signed-in user, or nil.
func (p *Provider) CurrentUser() *User {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// SignIn exchanges an email and password for tokens and makes the result the
// current user.
func (p *Provider) SignIn(
	ctx context.Context,
	email string,
	password string,
) (
	*User,
	error,
) {
	token, err := p.oauth.PasswordCredentialsToken(p.clientContext(ctx), email, password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignIn, err)
	}

	user, err := p.newUser(ctx, token)
	if err != nil {
		return nil, err
	}

	_log(LogLevelInfo, "oidcauth: signed in %s\n", user.claims.Email)
	p.setUser(user)
	return user, nil
}

// Restore resumes a session from a saved refresh token. Failures are also
// reported to every listener's error callback.
func (p *Provider) Restore(
	ctx context.Context,
	refreshToken string,
) (
	*User,
	error,
) {
	source := p.oauth.TokenSource(p.clientContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err == nil {
		var user *User
		if user, err = p.newUser(ctx, token); err == nil {
			_log(LogLevelInfo, "oidcauth: restored session for %s\n", user.claims.Email)
			p.setUser(user)
			return user, nil
		}
	}

	err = fmt.Errorf("%w: %v", ErrSignIn, err)
	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()

	p.mu.Lock()
	listeners := p.snapshot()
	p.mu.Unlock()
	for _, l := range listeners {
		l.fail(err)
	}
	return nil, err
}

// SignOut clears the current user and revokes its refresh token. The local
// session ends even when revocation fails; the revocation error is returned.
func (p *Provider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	user := p.current
	p.mu.Unlock()
	if user == nil {
		return nil
	}

	var err error
	if refreshToken := user.RefreshToken(); p.revocationURL != "" && refreshToken != "" {
		err = p.revoke(ctx, refreshToken)
	}

	p.setUser(nil)
	_log(LogLevelInfo, "oidcauth: signed out %s\n", user.claims.Email)
	return err
}

func (p *Provider) NewWidget(config bridge.WidgetConfig) bridge.Widget {
	return &PasswordWidget{
		provider:    p,
		config:      config,
		credentials: p.credentials,
	}
}

func (p *Provider) newUser(
	ctx context.Context,
	token *oauth2.Token,
) (
	*User,
	error,
) {
	raw, _ := token.Extra("id_token").(string)
	if raw == "" {
		return nil, ErrNoIDToken
	}
	claims, err := p.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", identity.ErrTokenInvalid, err)
	}

	return &User{
		claims: *claims,
		tokens: func(ctx context.Context, t *oauth2.Token) oauth2.TokenSource {
			return p.oauth.TokenSource(p.clientContext(ctx), t)
		},
		last: token,
	}, nil
}

func (p *Provider) revoke(
	ctx context.Context,
	token string,
) error {
	form := url.Values{
		"token":           {token},
		"token_type_hint": {"refresh_token"},
		"client_id":       {p.oauth.ClientID},
	}
	req, err := http.NewRequestWithContext(ctx, "POST", p.revocationURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRevocation, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if p.oauth.ClientSecret != "" {
		req.SetBasicAuth(url.QueryEscape(p.oauth.ClientID), url.QueryEscape(p.oauth.ClientSecret))
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRevocation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrRevocation, resp.StatusCode)
	}
	return nil
}

func (p *Provider) setUser(user *User) {
	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()

	p.mu.Lock()
	p.current = user
	listeners := p.snapshot()
	p.mu.Unlock()

	for _, l := range listeners {
		l.next(asBridgeUser(user))
	}
}

func (p *Provider) snapshot() []listener {
	listeners := make([]listener, 0, len(p.listeners))
	for i := 0; i < p.nextID; i++ {
		if l, ok := p.listeners[i]; ok {
			listeners = append(listeners, l)
		}
	}
	return listeners
}

func (p *Provider) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.client)
}

// a nil *User must reach listeners as a nil interface
func asBridgeUser(user *User) bridge.User {
	if user == nil {
		return nil
	}
	return user
}

// Package identitytest mints ID tokens and runs an in-process OpenID provider
// for tests that exercise identity verification or the headless sign-in flow.
package identitytest

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"net/http"
	"sync"
	"time"

	"git.sr.ht/~jakintosh/gallery/pkg/identity"
	"github.com/golang-jwt/jwt/v5"
)

const KeyID = "identitytest"

var (
	sharedKey     *ecdsa.PrivateKey
	sharedKeyOnce sync.Once
)

// SharedKey returns a cached ECDSA P-256 key, so tests don't pay for key
// generation each time.
func SharedKey() *ecdsa.PrivateKey {
	sharedKeyOnce.Do(func() {
		key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			panic("identitytest: failed to generate key: " + err.Error())
		}
		sharedKey = key
	})
	return sharedKey
}

// Claims is the payload of a minted ID token.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
}

// Issuer signs ES256 ID tokens for one audience.
type Issuer struct {
	Key      *ecdsa.PrivateKey
	URL      string
	Audience string
}

func NewIssuer(
	url string,
	audience string,
) *Issuer {
	return NewIssuerWithKey(SharedKey(), url, audience)
}

// NewIssuerWithKey is NewIssuer with a specific key, for wrong-key tests.
func NewIssuerWithKey(
	key *ecdsa.PrivateKey,
	url string,
	audience string,
) *Issuer {
	return &Issuer{
		Key:      key,
		URL:      url,
		Audience: audience,
	}
}

// Verifier returns a static verifier that trusts this issuer's key.
func (i *Issuer) Verifier(opts ...identity.Option) *identity.OIDCVerifier {
	keys := []crypto.PublicKey{&i.Key.PublicKey}
	return identity.NewStaticVerifier(i.URL, i.Audience, keys, opts...)
}

// IssueToken mints an ID token for uid that expires after lifetime. A
// negative lifetime yields an expired token.
func (i *Issuer) IssueToken(
	uid string,
	email string,
	name string,
	lifetime time.Duration,
) (
	string,
	error,
) {
	now := time.Now()
	return i.Sign(Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.URL,
			Subject:   uid,
			Audience:  jwt.ClaimStrings{i.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
		},
		Email: email,
		Name:  name,
	})
}

// Sign signs arbitrary claims with the issuer's key.
func (i *Issuer) Sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = KeyID
	return token.SignedString(i.Key)
}

// AuthenticatedRequest builds a request carrying a valid token cookie for
// uid, with email "<uid>@example.com" and name uid.
func (i *Issuer) AuthenticatedRequest(
	method string,
	url string,
	uid string,
) (
	*http.Request,
	error,
) {
	token, err := i.IssueToken(uid, uid+"@example.com", uid, time.Hour)
	if err != nil {
		return nil, err
	}
	r, err := http.NewRequest(method, url, nil)
	if err != nil {
		return nil, err
	}
	AddTokenCookie(r, token)
	return r, nil
}

// AddTokenCookie attaches token to r the way the browser bridge does.
func AddTokenCookie(
	r *http.Request,
	token string,
) {
	r.AddCookie(&http.Cookie{Name: identity.CookieName, Value: token})
}

package identity_test

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"git.sr.ht/~jakintosh/gallery/pkg/identity"
	"git.sr.ht/~jakintosh/gallery/pkg/identity/identitytest"
	"github.com/go-test/deep"
	"github.com/golang-jwt/jwt/v5"
)

const (
	testIssuer   = "https://issuer.test"
	testAudience = "gallery"
)

func requestWithToken(token string) *http.Request {
	r := httptest.NewRequest("GET", "/", nil)
	identitytest.AddTokenCookie(r, token)
	return r
}

func TestFromRequest_Success(t *testing.T) {
	t.Parallel()
	issuer := identitytest.NewIssuer(testIssuer, testAudience)

	r, err := issuer.AuthenticatedRequest("GET", "/", "ann")
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}

	claims, err := identity.FromRequest(r, issuer.Verifier())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims.Expiry = time.Time{}
	want := &identity.Claims{UserID: "ann", Email: "ann@example.com", Name: "ann"}
	if diff := deep.Equal(claims, want); diff != nil {
		t.Error(diff)
	}
}

func TestFromRequest_Absent(t *testing.T) {
	t.Parallel()
	verifier := identitytest.NewIssuer(testIssuer, testAudience).Verifier()

	// no cookie at all
	r := httptest.NewRequest("GET", "/", nil)
	if _, err := identity.FromRequest(r, verifier); !errors.Is(err, identity.ErrTokenAbsent) {
		t.Errorf("expected ErrTokenAbsent, got %v", err)
	}

	// the bridge writes "token=" when signed out
	r = requestWithToken("")
	if _, err := identity.FromRequest(r, verifier); !errors.Is(err, identity.ErrTokenAbsent) {
		t.Errorf("expected ErrTokenAbsent for blank cookie, got %v", err)
	}
}

func TestFromRequest_Invalid(t *testing.T) {
	t.Parallel()
	issuer := identitytest.NewIssuer(testIssuer, testAudience)
	otherKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	forged, _ := identitytest.NewIssuerWithKey(otherKey, testIssuer, testAudience).
		IssueToken("ann", "ann@example.com", "Ann", time.Hour)
	expired, _ := issuer.IssueToken("ann", "ann@example.com", "Ann", -time.Hour)
	wrongAudience, _ := identitytest.NewIssuer(testIssuer, "someone-else").
		IssueToken("ann", "ann@example.com", "Ann", time.Hour)
	wrongIssuer, _ := identitytest.NewIssuer("https://evil.test", testAudience).
		IssueToken("ann", "ann@example.com", "Ann", time.Hour)

	cases := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-jwt"},
		{"forged", forged},
		{"expired", expired},
		{"wrong audience", wrongAudience},
		{"wrong issuer", wrongIssuer},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := identity.FromRequest(requestWithToken(tc.token), issuer.Verifier())
			if !errors.Is(err, identity.ErrTokenInvalid) {
				t.Errorf("expected ErrTokenInvalid, got %v", err)
			}
		})
	}
}

func TestVerify_UserIDFallback(t *testing.T) {
	t.Parallel()
	issuer := identitytest.NewIssuer(testIssuer, testAudience)

	token, err := issuer.Sign(identitytest.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			Audience:  jwt.ClaimStrings{testAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID: "legacy-uid",
		Email:  "legacy@example.com",
	})
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}

	claims, err := issuer.Verifier().Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.UserID != "legacy-uid" {
		t.Errorf("expected uid 'legacy-uid', got %q", claims.UserID)
	}
}

func TestVerify_NoSubject(t *testing.T) {
	t.Parallel()
	issuer := identitytest.NewIssuer(testIssuer, testAudience)

	token, _ := issuer.Sign(identitytest.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			Audience:  jwt.ClaimStrings{testAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	_, err := issuer.Verifier().Verify(context.Background(), token)
	if !errors.Is(err, identity.ErrNoSubject) {
		t.Errorf("expected ErrNoSubject, got %v", err)
	}
}

func TestVerify_RS256(t *testing.T) {
	t.Parallel()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, identitytest.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			Subject:   "bob",
			Audience:  jwt.ClaimStrings{testAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Name: "Bob",
	}).SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}

	verifier := identity.NewStaticVerifier(testIssuer, testAudience, []crypto.PublicKey{&key.PublicKey})
	claims, err := verifier.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.UserID != "bob" || claims.Name != "Bob" {
		t.Errorf("unexpected claims %+v", claims)
	}
}

func TestVerify_Clock(t *testing.T) {
	t.Parallel()
	issuer := identitytest.NewIssuer(testIssuer, testAudience)
	token, _ := issuer.IssueToken("ann", "ann@example.com", "Ann", time.Hour)

	later := func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := issuer.Verifier(identity.WithClock(later)).Verify(context.Background(), token); err == nil {
		t.Error("expected token to be expired two hours later")
	}
}

func TestNewOIDCVerifier_Discovery(t *testing.T) {
	t.Parallel()
	srv := identitytest.NewServer(testAudience)
	defer srv.Close()

	verifier, err := identity.NewOIDCVerifier(context.Background(), srv.URL, testAudience)
	if err != nil {
		t.Fatalf("discovery failed: %v", err)
	}

	token, _ := srv.IssueToken("ann", "ann@example.com", "Ann", time.Hour)
	claims, err := verifier.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.Email != "ann@example.com" {
		t.Errorf("unexpected email %q", claims.Email)
	}
}

func TestNewOIDCVerifier_DiscoveryFails(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := identity.NewOIDCVerifier(context.Background(), srv.URL, testAudience)
	if !errors.Is(err, identity.ErrDiscovery) {
		t.Errorf("expected ErrDiscovery, got %v", err)
	}
}

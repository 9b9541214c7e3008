package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// CookieName is the cookie the bridge stores the ID token in.
const CookieName = "token"

var (
	ErrTokenAbsent  = errors.New("token absent")
	ErrTokenInvalid = errors.New("token invalid")
	ErrNoSubject    = errors.New("token has no subject")
	ErrDiscovery    = errors.New("provider discovery failed")
)

// Claims is the verified identity carried by an ID token.
type Claims struct {
	UserID string
	Email  string
	Name   string
	Expiry time.Time
}

// Verifier validates a raw ID token.
// Consumers should depend on this interface rather than *OIDCVerifier.
type Verifier interface {
	Verify(ctx context.Context, raw string) (*Claims, error)
}

// FromRequest verifies the token cookie on r. A missing or blank cookie is
// [ErrTokenAbsent]; any verification failure is wrapped in [ErrTokenInvalid].
func FromRequest(
	r *http.Request,
	v Verifier,
) (
	*Claims,
	error,
) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil, ErrTokenAbsent
	}

	claims, err := v.Verify(r.Context(), cookie.Value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	return claims, nil
}

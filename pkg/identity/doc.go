// Package identity verifies the ID token that the browser bridge writes to the
// "token" cookie.
//
// The bridge only mirrors a token it was handed by the identity provider; this
// package is the server-side half that decides whether the token is genuine.
// Tokens are OpenID Connect ID tokens verified with go-oidc, either against a
// discovered provider or a fixed set of public keys.
//
// # Quick Start
//
//	verifier, err := identity.NewOIDCVerifier(ctx, "https://issuer.example.com", "gallery")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//	    claims, err := identity.FromRequest(r, verifier)
//	    switch {
//	    case errors.Is(err, identity.ErrTokenAbsent):
//	        // signed out
//	    case errors.Is(err, identity.ErrTokenInvalid):
//	        // forged, expired, or issued for someone else
//	    }
//	    fmt.Fprintf(w, "Hello, %s!", claims.Name)
//	}
//
// # Testing
//
// Depend on the Verifier interface. The identitytest package mints ES256 ID
// tokens and runs an in-process OpenID provider, so handlers can be exercised
// without a network.
package identity

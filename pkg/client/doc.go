// Package client is a small HTTP client for the gallery's JSON API.
//
// The gallery identifies callers by the token cookie that the page bridge
// keeps current, so the client carries no credentials of its own. Give it an
// [http.Client] whose cookie jar is the bridge's page:
//
//	doc := page.New("sign-out", "main-content", "auth-container")
//	b := bridge.New(provider, doc)
//	go b.Serve(ctx)
//
//	c := client.New("https://gallery.example.com", &http.Client{Jar: doc})
//	if _, err := b.Await(ctx, func(s bridge.State) bool { return s.Cookie != "" }); err != nil {
//	    return err
//	}
//	galleries, err := c.ListGalleries(ctx)
//
// Once the bridge clears the cookie, requests fail with [ErrUnauthorized].
package client

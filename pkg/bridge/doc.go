// Package bridge reflects an identity provider's auth state into a page and a
// token cookie.
//
// The bridge is split in two halves. [Layout.Reduce] is a pure function from
// the previous [State] and an incoming [Event] to the next state and an ordered
// list of [Effect] values (set a cookie, toggle visibility, mount the sign-in
// widget, navigate, alert). [Bridge] is the thin runtime around it: it owns the
// single event loop, applies effects to a [Page] in the order they were
// emitted, and runs the two asynchronous provider calls (token fetch and
// sign-out) as tasks whose completions are fed back into the loop as events.
//
// # Quick Start
//
//	doc := page.New("sign-out", "main-content", "auth-container")
//	b := bridge.New(provider, doc)
//
//	// Serve registers the sign-out click handler and the auth-state
//	// listener, then runs until ctx is done.
//	go b.Serve(ctx)
//
//	// Wait until the token cookie is written.
//	state, err := b.Await(ctx, func(s bridge.State) bool {
//	    return s.Status == bridge.StatusSignedIn && s.Cookie != ""
//	})
//
// # Ordering
//
// Every notification bumps the state's generation. A token fetch carries the
// generation it was started for, and its completion is dropped unless that
// generation is still current, so a slow fetch for an old notification can
// never overwrite the cookie written for a newer one. A newer notification
// also cancels the stale fetch's context.
//
// Signing out clears the cookie immediately, asks the provider to sign out,
// and navigates to the root path once the provider call has finished, failed
// or timed out. Navigation always happens.
//
// # Non-goals
//
// The bridge does not authenticate anyone or validate tokens. Whatever the
// provider reports is reflected as-is; the server that reads the cookie is
// responsible for verifying it.
package bridge

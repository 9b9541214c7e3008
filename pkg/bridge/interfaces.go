package bridge

import (
	"context"
	"slices"
)

// ProviderPassword enables email/password sign-in in the widget.
const ProviderPassword = "password"

// Profile is what the bridge knows about a signed-in user.
type Profile struct {
	UID         string
	DisplayName string
	Email       string
}

// User is a signed-in user as reported by a Provider.
type User interface {
	Profile() Profile

	// Token returns a fresh identity token. It may block on the network and
	// must return when ctx is done.
	Token(ctx context.Context) (string, error)
}

// Provider is the client side of an identity provider.
type Provider interface {
	// OnAuthStateChanged registers a listener. next is called with the
	// current user (nil when signed out) once on registration and then on
	// every change; fail is called when the notification stream itself
	// fails. Listeners may be called from any goroutine.
	OnAuthStateChanged(next func(User), fail func(error)) (unsubscribe func())

	SignOut(ctx context.Context) error

	// NewWidget builds the provider's hosted sign-in widget.
	NewWidget(config WidgetConfig) Widget
}

// WidgetConfig configures the sign-in widget.
type WidgetConfig struct {
	SignInSuccessURL string
	SignInOptions    []string
}

func (c WidgetConfig) clone() WidgetConfig {
	c.SignInOptions = slices.Clone(c.SignInOptions)
	return c
}

// Enables reports whether the widget offers the given sign-in option.
func (c WidgetConfig) Enables(option string) bool {
	return slices.Contains(c.SignInOptions, option)
}

// WidgetHost is the part of the page a mounted widget may touch.
type WidgetHost interface {
	Container() string
	Navigate(path string)
}

// Widget is a sign-in widget. Start runs until sign-in completes, fails, or
// ctx is done; the page cancels ctx when the widget is unmounted.
type Widget interface {
	Start(ctx context.Context, host WidgetHost) error
}

// Page is the DOM contract the bridge needs. The elements it names must
// already exist.
type Page interface {
	// OnClick sets the click handler of an element, replacing any previous
	// one.
	OnClick(id string, handler func()) error
	SetHidden(id string, hidden bool) error
	SetCookie(name string, value string)
	MountWidget(container string, widget Widget) error
	Navigate(path string)
	Alert(message string)
}

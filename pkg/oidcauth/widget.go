package oidcauth

import (
	"context"
	"errors"
	"fmt"

	"git.sr.ht/~jakintosh/gallery/pkg/bridge"
)

var ErrPasswordDisabled = errors.New("password sign-in not enabled")

// PasswordWidget signs in with email and password, then navigates its host to
// the configured success URL.
type PasswordWidget struct {
	provider    *Provider
	config      bridge.WidgetConfig
	credentials Credentials
}

// Compile-time check that *PasswordWidget implements bridge.Widget.
var _ bridge.Widget = (*PasswordWidget)(nil)

func (w *PasswordWidget) Start(
	ctx context.Context,
	host bridge.WidgetHost,
) error {
	if !w.config.Enables(bridge.ProviderPassword) {
		return fmt.Errorf("%w: options %v", ErrPasswordDisabled, w.config.SignInOptions)
	}

	// nothing to prompt with, stay mounted until removed
	if w.credentials == nil {
		<-ctx.Done()
		return ctx.Err()
	}

	_log(LogLevelDebug, "oidcauth: widget waiting for credentials in '%s'\n", host.Container())
	email, password, err := w.credentials(ctx)
	if err != nil {
		return err
	}

	if _, err := w.provider.SignIn(ctx, email, password); err != nil {
		_log(LogLevelError, "oidcauth: %v\n", err)
		return err
	}

	host.Navigate(w.config.SignInSuccessURL)
	return nil
}

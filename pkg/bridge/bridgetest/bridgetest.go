// Package bridgetest provides a scriptable identity provider for exercising a
// bridge.Bridge without a network.
//
// Auth-state notifications are pushed with [Provider.SetUser] and
// [Provider.Fail]; token fetches block until the test resolves them with
// [User.Resolve] or [User.Reject], which makes overlapping fetches easy to
// order by hand.
package bridgetest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"git.sr.ht/~jakintosh/gallery/pkg/bridge"
)

var ErrNotStarted = errors.New("widget not started")

// Compile-time check that the fakes implement the bridge interfaces.
var _ bridge.Provider = (*Provider)(nil)
var _ bridge.User = (*User)(nil)
var _ bridge.Widget = (*Widget)(nil)

type result struct {
	token string
	err   error
}

// User is a signed-in user whose token fetches are resolved by the test.
type User struct {
	profile   bridge.Profile
	results   chan result
	immediate *result
	calls     atomic.Int32
}

func NewUser(
	uid string,
	displayName string,
	email string,
) *User {
	return &User{
		profile: bridge.Profile{
			UID:         uid,
			DisplayName: displayName,
			Email:       email,
		},
		results: make(chan result, 16),
	}
}

// WithToken makes every fetch return token immediately.
func (u *User) WithToken(token string) *User {
	u.immediate = &result{token: token}
	return u
}

func (u *User) Profile() bridge.Profile {
	return u.profile
}

func (u *User) Token(ctx context.Context) (string, error) {
	u.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if u.immediate != nil {
		return u.immediate.token, u.immediate.err
	}
	select {
	case r := <-u.results:
		return r.token, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Resolve completes the oldest waiting (or next) fetch with token.
func (u *User) Resolve(token string) {
	u.results <- result{token: token}
}

// Reject completes the oldest waiting (or next) fetch with err.
func (u *User) Reject(err error) {
	u.results <- result{err: err}
}

// Calls returns how many token fetches were started.
func (u *User) Calls() int {
	return int(u.calls.Load())
}

type listener struct {
	next func(bridge.User)
	fail func(error)
}

// Provider is an in-memory bridge.Provider.
type Provider struct {
	mu          sync.Mutex
	current     bridge.User
	listeners   map[int]listener
	nextID      int
	signOutErr  error
	signOutGate chan struct{}
	widgets     []*Widget

	signOuts atomic.Int32
}

func NewProvider() *Provider {
	return &Provider{
		listeners: make(map[int]listener),
	}
}

func (p *Provider) OnAuthStateChanged(
	next func(bridge.User),
	fail func(error),
) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = listener{next: next, fail: fail}
	current := p.current
	p.mu.Unlock()

	next(current)

	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

// SetUser changes the signed-in user and notifies every listener. A nil user
// signs the session out.
func (p *Provider) SetUser(user *User) {
	var current bridge.User
	if user != nil {
		current = user
	}

	p.mu.Lock()
	p.current = current
	listeners := p.snapshot()
	p.mu.Unlock()

	for _, l := range listeners {
		l.next(current)
	}
}

// Fail reports err on the notification stream.
func (p *Provider) Fail(err error) {
	p.mu.Lock()
	listeners := p.snapshot()
	p.mu.Unlock()

	for _, l := range listeners {
		l.fail(err)
	}
}

// FailSignOut makes subsequent SignOut calls return err.
func (p *Provider) FailSignOut(err error) {
	p.mu.Lock()
	p.signOutErr = err
	p.mu.Unlock()
}

// HoldSignOut makes SignOut block until the returned release is called or
// the call's context is done.
func (p *Provider) HoldSignOut() (release func()) {
	gate := make(chan struct{})
	p.mu.Lock()
	p.signOutGate = gate
	p.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

func (p *Provider) SignOut(ctx context.Context) error {
	p.signOuts.Add(1)

	p.mu.Lock()
	gate, err := p.signOutGate, p.signOutErr
	p.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err != nil {
		return err
	}

	p.SetUser(nil)
	return nil
}

// SignOuts returns how many times SignOut was called.
func (p *Provider) SignOuts() int {
	return int(p.signOuts.Load())
}

// Listeners returns the number of registered listeners.
func (p *Provider) Listeners() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.listeners)
}

func (p *Provider) NewWidget(config bridge.WidgetConfig) bridge.Widget {
	w := &Widget{
		Config:   config,
		provider: p,
		started:  make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	p.mu.Lock()
	p.widgets = append(p.widgets, w)
	p.mu.Unlock()
	return w
}

// Widgets returns every widget built so far, oldest first.
func (p *Provider) Widgets() []*Widget {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*Widget(nil), p.widgets...)
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

// Widget records how it was configured and started.
type Widget struct {
	Config bridge.WidgetConfig

	provider *Provider
	once     sync.Once
	started  chan struct{}
	stopped  chan struct{}

	mu   sync.Mutex
	host bridge.WidgetHost
}

func (w *Widget) Start(ctx context.Context, host bridge.WidgetHost) error {
	w.mu.Lock()
	w.host = host
	w.mu.Unlock()
	w.once.Do(func() { close(w.started) })
	defer close(w.stopped)

	<-ctx.Done()
	return ctx.Err()
}

// Started is closed once Start has been called.
func (w *Widget) Started() <-chan struct{} {
	return w.started
}

// Stopped is closed once Start has returned.
func (w *Widget) Stopped() <-chan struct{} {
	return w.stopped
}

// Container returns the element the widget was started in, or "".
func (w *Widget) Container() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.host == nil {
		return ""
	}
	return w.host.Container()
}

// Complete simulates a successful sign-in: the provider switches to user and
// the host navigates to the configured success URL.
func (w *Widget) Complete(user *User) error {
	w.mu.Lock()
	host := w.host
	w.mu.Unlock()
	if host == nil {
		return ErrNotStarted
	}

	w.provider.SetUser(user)
	host.Navigate(w.Config.SignInSuccessURL)
	return nil
}

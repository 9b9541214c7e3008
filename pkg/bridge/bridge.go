package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrAlreadyRunning = errors.New("bridge already running")
	ErrPageContract   = errors.New("page is missing a required element")
	ErrSignOutTimeout = errors.New("sign-out timed out")
)

const DefaultSignOutTimeout = 5 * time.Second

type Option func(*Bridge)

func WithLayout(layout Layout) Option {
	return func(b *Bridge) { b.layout = layout }
}

// WithSignOutTimeout bounds how long navigation waits for the provider
// sign-out call.
func WithSignOutTimeout(timeout time.Duration) Option {
	return func(b *Bridge) { b.signOutTimeout = timeout }
}

// Bridge runs the reducer against a live provider and page.
type Bridge struct {
	provider       Provider
	page           Page
	layout         Layout
	signOutTimeout time.Duration

	queue   queue
	running atomic.Bool
	tasks   sync.WaitGroup

	// owned by the Serve goroutine
	fetchCancel context.CancelFunc

	mu      sync.Mutex
	state   State
	changed chan struct{}
}

func New(
	provider Provider,
	page Page,
	opts ...Option,
) *Bridge {
	b := &Bridge{
		provider:       provider,
		page:           page,
		layout:         DefaultLayout(),
		signOutTimeout: DefaultSignOutTimeout,
		changed:        make(chan struct{}),
	}
	b.queue.ready = make(chan struct{}, 1)
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Serve performs page-load initialization (sign-out click handler and
// auth-state listener) and then applies events until ctx is done. It
// satisfies suture.Service.
func (b *Bridge) Serve(ctx context.Context) error {
	if !b.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer b.running.Store(false)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	b.queue.drain()

	err := b.page.OnClick(b.layout.SignOutID, func() {
		b.post(ctx, SignOutClicked{})
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPageContract, err)
	}

	unsubscribe := b.provider.OnAuthStateChanged(
		func(user User) { b.post(ctx, AuthStateChanged{User: user}) },
		func(err error) { b.post(ctx, AuthStateFailed{Err: err}) },
	)
	defer func() {
		unsubscribe()
		cancel()
		b.tasks.Wait()
		b.fetchCancel = nil
	}()

	_log(LogLevelDebug, "bridge: listening for auth state changes\n")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.queue.ready:
			for _, e := range b.queue.drain() {
				b.dispatch(ctx, e)
			}
		}
	}
}

// State returns a snapshot of the current state.
func (b *Bridge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Await blocks until cond holds for the state or ctx is done. cond is
// checked after each event's effects have been applied.
func (b *Bridge) Await(
	ctx context.Context,
	cond func(State) bool,
) (
	State,
	error,
) {
	for {
		b.mu.Lock()
		state, changed := b.state, b.changed
		b.mu.Unlock()

		if cond(state) {
			return state, nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return state, ctx.Err()
		}
	}
}

func (b *Bridge) post(ctx context.Context, e Event) {
	if ctx.Err() != nil {
		return
	}
	b.queue.push(e)
}

func (b *Bridge) dispatch(ctx context.Context, e Event) {
	next, effects := b.layout.Reduce(b.State(), e)
	for _, effect := range effects {
		b.apply(ctx, effect)
	}
	b.publish(next)
}

func (b *Bridge) publish(next State) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = next
	close(b.changed)
	b.changed = make(chan struct{})
}

func (b *Bridge) apply(ctx context.Context, effect Effect) {
	switch e := effect.(type) {
	case SetCookie:
		b.page.SetCookie(e.Name, e.Value)
		_log(LogLevelDebug, "bridge: cookie %s=%s\n", e.Name, e.Value)

	case SetHidden:
		if err := b.page.SetHidden(e.ID, e.Hidden); err != nil {
			_log(LogLevelError, "bridge: couldn't set hidden on '%s': %v\n", e.ID, err)
		}

	case MountWidget:
		widget := b.provider.NewWidget(e.Config)
		if err := b.page.MountWidget(e.Container, widget); err != nil {
			_log(LogLevelError, "bridge: couldn't mount widget in '%s': %v\n", e.Container, err)
		}

	case Navigate:
		b.page.Navigate(e.Path)

	case Alert:
		b.page.Alert(e.Message)

	case Log:
		_log(e.Level, "bridge: %s\n", e.Message)

	case FetchToken:
		b.fetchToken(ctx, e)

	case CancelFetch:
		b.cancelFetch()

	case RequestSignOut:
		b.signOut(ctx)
	}
}

func (b *Bridge) fetchToken(ctx context.Context, e FetchToken) {
	b.cancelFetch()

	fetchCtx, cancel := context.WithCancel(ctx)
	b.fetchCancel = cancel

	b.tasks.Add(1)
	go func() {
		defer b.tasks.Done()
		defer cancel()

		token, err := e.User.Token(fetchCtx)
		if err != nil {
			b.post(ctx, TokenFetchFailed{Generation: e.Generation, Err: err})
			return
		}
		b.post(ctx, TokenFetched{Generation: e.Generation, Token: token})
	}()
}

func (b *Bridge) cancelFetch() {
	if b.fetchCancel != nil {
		b.fetchCancel()
		b.fetchCancel = nil
	}
}

func (b *Bridge) signOut(ctx context.Context) {
	b.tasks.Add(1)
	go func() {
		defer b.tasks.Done()

		signOutCtx, cancel := context.WithTimeout(ctx, b.signOutTimeout)
		defer cancel()

		result := make(chan error, 1)
		go func() { result <- b.provider.SignOut(signOutCtx) }()

		var err error
		select {
		case err = <-result:
		case <-signOutCtx.Done():
			err = fmt.Errorf("%w: %v", ErrSignOutTimeout, signOutCtx.Err())
		}
		b.post(ctx, SignOutFinished{Err: err})
	}()
}

// queue is an unbounded FIFO so that listeners, click handlers and tasks
// never block on the event loop.
type queue struct {
	mu    sync.Mutex
	items []Event
	ready chan struct{}
}

func (q *queue) push(e Event) {
	q.mu.Lock()
	q.items = append(q.items, e)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

func (q *queue) drain() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

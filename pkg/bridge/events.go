package bridge

// Event is an input to the reducer.
type Event interface {
	event()
}

// AuthStateChanged carries the provider's current user; nil means nobody is
// signed in.
type AuthStateChanged struct {
	User User
}

// AuthStateFailed reports an error from the notification stream itself.
type AuthStateFailed struct {
	Err error
}

type SignOutClicked struct{}

type TokenFetched struct {
	Generation uint64
	Token      string
}

type TokenFetchFailed struct {
	Generation uint64
	Err        error
}

// SignOutFinished reports the end of the provider sign-out call. Err is nil
// on success.
type SignOutFinished struct {
	Err error
}

func (AuthStateChanged) event() {}
func (AuthStateFailed) event()  {}
func (SignOutClicked) event()   {}
func (TokenFetched) event()     {}
func (TokenFetchFailed) event() {}
func (SignOutFinished) event()  {}

// Effect is an output of the reducer, applied by the runtime in order.
type Effect interface {
	effect()
}

type SetCookie struct {
	Name  string
	Value string
}

type SetHidden struct {
	ID     string
	Hidden bool
}

type MountWidget struct {
	Container string
	Config    WidgetConfig
}

type Navigate struct {
	Path string
}

// Alert is a blocking, user-visible message.
type Alert struct {
	Message string
}

type Log struct {
	Level   LogLevel
	Message string
}

// FetchToken starts an asynchronous token fetch for User. Its completion
// comes back as TokenFetched or TokenFetchFailed with the same Generation.
type FetchToken struct {
	Generation uint64
	User       User
}

// CancelFetch cancels the in-flight token fetch, if any.
type CancelFetch struct{}

// RequestSignOut starts the provider sign-out call. Its completion comes back
// as SignOutFinished.
type RequestSignOut struct{}

func (SetCookie) effect()      {}
func (SetHidden) effect()      {}
func (MountWidget) effect()    {}
func (Navigate) effect()       {}
func (Alert) effect()          {}
func (Log) effect()            {}
func (FetchToken) effect()     {}
func (CancelFetch) effect()    {}
func (RequestSignOut) effect() {}

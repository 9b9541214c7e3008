package bridge

type Status int

const (
	StatusUnknown Status = iota
	StatusSignedIn
	StatusSignedOut
)

func (s Status) String() string {
	switch s {
	case StatusSignedIn:
		return "signed-in"
	case StatusSignedOut:
		return "signed-out"
	default:
		return "unknown"
	}
}

// State is everything the reducer remembers between events.
type State struct {
	Status  Status
	Profile Profile

	// Generation increases with every notification and sign-out; token
	// fetches started for an older generation are stale.
	Generation uint64

	// Cookie is the token cookie value the bridge last wrote.
	Cookie string

	TokenPending bool
	SigningOut   bool
}

// Layout names the page elements, the cookie and the widget setup the bridge
// works with.
type Layout struct {
	SignOutID         string
	ContentID         string
	WidgetContainerID string
	CookieName        string
	RootPath          string
	Widget            WidgetConfig
}

func DefaultLayout() Layout {
	return Layout{
		SignOutID:         "sign-out",
		ContentID:         "main-content",
		WidgetContainerID: "auth-container",
		CookieName:        "token",
		RootPath:          "/",
		Widget: WidgetConfig{
			SignInSuccessURL: "/",
			SignInOptions:    []string{ProviderPassword},
		},
	}
}

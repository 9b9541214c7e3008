package bridge_test

import (
	"errors"
	"testing"

	"git.sr.ht/~jakintosh/gallery/pkg/bridge"
	"git.sr.ht/~jakintosh/gallery/pkg/bridge/bridgetest"
	"github.com/go-test/deep"
)

func TestReduce_UserPresent(t *testing.T) {
	t.Parallel()
	layout := bridge.DefaultLayout()
	ann := bridgetest.NewUser("ann-uid", "Ann", "ann@x.com")

	next, effects := layout.Reduce(bridge.State{}, bridge.AuthStateChanged{User: ann})

	// elements are unhidden before the token is requested
	want := []bridge.Effect{
		bridge.SetHidden{ID: "sign-out", Hidden: false},
		bridge.SetHidden{ID: "main-content", Hidden: false},
		bridge.Log{Level: bridge.LogLevelInfo, Message: "signed in as Ann (ann@x.com)"},
		bridge.FetchToken{Generation: 1, User: ann},
	}
	if diff := deep.Equal(effects, want); diff != nil {
		t.Errorf("unexpected effects: %v", diff)
	}

	if next.Status != bridge.StatusSignedIn {
		t.Errorf("expected signed-in, got %s", next.Status)
	}
	if !next.TokenPending {
		t.Error("expected token to be pending")
	}
	if next.Cookie != "" {
		t.Errorf("cookie should not be written before the fetch completes, got %q", next.Cookie)
	}
}

func TestReduce_TokenFetched(t *testing.T) {
	t.Parallel()
	layout := bridge.DefaultLayout()
	ann := bridgetest.NewUser("ann-uid", "Ann", "ann@x.com")

	s, _ := layout.Reduce(bridge.State{}, bridge.AuthStateChanged{User: ann})
	s, effects := layout.Reduce(s, bridge.TokenFetched{Generation: s.Generation, Token: "abc123"})

	want := []bridge.Effect{
		bridge.SetCookie{Name: "token", Value: "abc123"},
	}
	if diff := deep.Equal(effects, want); diff != nil {
		t.Errorf("unexpected effects: %v", diff)
	}
	if s.Cookie != "abc123" {
		t.Errorf("expected cookie abc123, got %q", s.Cookie)
	}
	if s.TokenPending {
		t.Error("token should no longer be pending")
	}
}

func TestReduce_StaleTokenDropped(t *testing.T) {
	t.Parallel()
	layout := bridge.DefaultLayout()
	ann := bridgetest.NewUser("ann-uid", "Ann", "ann@x.com")

	first, _ := layout.Reduce(bridge.State{}, bridge.AuthStateChanged{User: ann})
	second, _ := layout.Reduce(first, bridge.AuthStateChanged{User: ann})

	// the first fetch completes after the second notification
	next, effects := layout.Reduce(second, bridge.TokenFetched{Generation: first.Generation, Token: "old"})
	if len(effects) != 0 {
		t.Errorf("stale token produced effects: %v", effects)
	}
	if next.Cookie != "" {
		t.Errorf("stale token was written: %q", next.Cookie)
	}

	// a failed stale fetch is dropped as well
	_, effects = layout.Reduce(second, bridge.TokenFetchFailed{Generation: first.Generation, Err: errors.New("late")})
	if len(effects) != 0 {
		t.Errorf("stale failure produced effects: %v", effects)
	}
}

func TestReduce_TokenAfterSignOutDropped(t *testing.T) {
	t.Parallel()
	layout := bridge.DefaultLayout()
	ann := bridgetest.NewUser("ann-uid", "Ann", "ann@x.com")

	s, _ := layout.Reduce(bridge.State{}, bridge.AuthStateChanged{User: ann})
	generation := s.Generation
	s, _ = layout.Reduce(s, bridge.AuthStateChanged{User: nil})

	s, effects := layout.Reduce(s, bridge.TokenFetched{Generation: generation, Token: "abc123"})
	if len(effects) != 0 {
		t.Errorf("token after sign-out produced effects: %v", effects)
	}
	if s.Cookie != "" {
		t.Errorf("token after sign-out was written: %q", s.Cookie)
	}
}

func TestReduce_NoUser(t *testing.T) {
	t.Parallel()
	layout := bridge.DefaultLayout()

	next, effects := layout.Reduce(bridge.State{}, bridge.AuthStateChanged{User: nil})

	want := []bridge.Effect{
		bridge.CancelFetch{},
		bridge.SetCookie{Name: "token", Value: ""},
		bridge.SetHidden{ID: "sign-out", Hidden: true},
		bridge.SetHidden{ID: "main-content", Hidden: true},
		bridge.MountWidget{
			Container: "auth-container",
			Config: bridge.WidgetConfig{
				SignInSuccessURL: "/",
				SignInOptions:    []string{bridge.ProviderPassword},
			},
		},
	}
	if diff := deep.Equal(effects, want); diff != nil {
		t.Errorf("unexpected effects: %v", diff)
	}
	if next.Status != bridge.StatusSignedOut {
		t.Errorf("expected signed-out, got %s", next.Status)
	}
}

func TestReduce_NoUserWidgetConfigIsCopied(t *testing.T) {
	t.Parallel()
	layout := bridge.DefaultLayout()

	_, effects := layout.Reduce(bridge.State{}, bridge.AuthStateChanged{User: nil})
	mount := effects[len(effects)-1].(bridge.MountWidget)
	mount.Config.SignInOptions[0] = "changed"

	// mutating an emitted config leaves the layout untouched
	if layout.Widget.SignInOptions[0] != bridge.ProviderPassword {
		t.Errorf("layout widget config was mutated: %v", layout.Widget.SignInOptions)
	}
}

func TestReduce_SwitchingUsersClearsCookie(t *testing.T) {
	t.Parallel()
	layout := bridge.DefaultLayout()
	ann := bridgetest.NewUser("ann-uid", "Ann", "ann@x.com")
	bob := bridgetest.NewUser("bob-uid", "Bob", "bob@x.com")

	s, _ := layout.Reduce(bridge.State{}, bridge.AuthStateChanged{User: ann})
	s, _ = layout.Reduce(s, bridge.TokenFetched{Generation: s.Generation, Token: "ann-token"})

	next, effects := layout.Reduce(s, bridge.AuthStateChanged{User: bob})

	want := []bridge.Effect{
		bridge.SetHidden{ID: "sign-out", Hidden: false},
		bridge.SetHidden{ID: "main-content", Hidden: false},
		bridge.Log{Level: bridge.LogLevelInfo, Message: "signed in as Bob (bob@x.com)"},
		bridge.SetCookie{Name: "token", Value: ""},
		bridge.FetchToken{Generation: next.Generation, User: bob},
	}
	if diff := deep.Equal(effects, want); diff != nil {
		t.Errorf("unexpected effects: %v", diff)
	}
}

func TestReduce_SameUserKeepsCookie(t *testing.T) {
	t.Parallel()
	layout := bridge.DefaultLayout()
	ann := bridgetest.NewUser("ann-uid", "Ann", "ann@x.com")

	s, _ := layout.Reduce(bridge.State{}, bridge.AuthStateChanged{User: ann})
	s, _ = layout.Reduce(s, bridge.TokenFetched{Generation: s.Generation, Token: "ann-token"})

	// a repeated notification for the same user refreshes the token in place
	next, effects := layout.Reduce(s, bridge.AuthStateChanged{User: ann})
	for _, effect := range effects {
		if c, ok := effect.(bridge.SetCookie); ok {
			t.Errorf("unexpected cookie write: %+v", c)
		}
	}
	if next.Cookie != "ann-token" {
		t.Errorf("expected cookie to be kept, got %q", next.Cookie)
	}
}

func TestReduce_ProviderError(t *testing.T) {
	t.Parallel()
	layout := bridge.DefaultLayout()
	ann := bridgetest.NewUser("ann-uid", "Ann", "ann@x.com")
	s, _ := layout.Reduce(bridge.State{}, bridge.AuthStateChanged{User: ann})

	next, effects := layout.Reduce(s, bridge.AuthStateFailed{Err: errors.New("network down")})

	want := []bridge.Effect{
		bridge.Alert{Message: "Unable to log in: network down"},
	}
	if diff := deep.Equal(effects, want); diff != nil {
		t.Errorf("unexpected effects: %v", diff)
	}
	if diff := deep.Equal(next, s); diff != nil {
		t.Errorf("state changed on provider error: %v", diff)
	}
}

func TestReduce_TokenFetchFailed(t *testing.T) {
	t.Parallel()
	layout := bridge.DefaultLayout()
	ann := bridgetest.NewUser("ann-uid", "Ann", "ann@x.com")
	s, _ := layout.Reduce(bridge.State{}, bridge.AuthStateChanged{User: ann})

	next, effects := layout.Reduce(s, bridge.TokenFetchFailed{Generation: s.Generation, Err: errors.New("expired")})

	want := []bridge.Effect{
		bridge.Log{Level: bridge.LogLevelError, Message: "couldn't fetch token: expired"},
	}
	if diff := deep.Equal(effects, want); diff != nil {
		t.Errorf("unexpected effects: %v", diff)
	}
	if next.TokenPending {
		t.Error("token should no longer be pending")
	}
}

func TestReduce_SignOutClicked(t *testing.T) {
	t.Parallel()
	layout := bridge.DefaultLayout()
	ann := bridgetest.NewUser("ann-uid", "Ann", "ann@x.com")
	s, _ := layout.Reduce(bridge.State{}, bridge.AuthStateChanged{User: ann})
	s, _ = layout.Reduce(s, bridge.TokenFetched{Generation: s.Generation, Token: "abc123"})

	next, effects := layout.Reduce(s, bridge.SignOutClicked{})

	want := []bridge.Effect{
		bridge.CancelFetch{},
		bridge.SetCookie{Name: "token", Value: ""},
		bridge.Log{Level: bridge.LogLevelDebug, Message: "signing out"},
		bridge.RequestSignOut{},
	}
	if diff := deep.Equal(effects, want); diff != nil {
		t.Errorf("unexpected effects: %v", diff)
	}
	if !next.SigningOut {
		t.Error("expected signing out")
	}
	if next.Cookie != "" {
		t.Errorf("expected cookie cleared, got %q", next.Cookie)
	}

	// a second click while signing out does nothing
	again, effects := layout.Reduce(next, bridge.SignOutClicked{})
	if len(effects) != 0 {
		t.Errorf("second click produced effects: %v", effects)
	}
	if diff := deep.Equal(again, next); diff != nil {
		t.Errorf("second click changed state: %v", diff)
	}
}

func TestReduce_SignOutFinished(t *testing.T) {
	t.Parallel()
	layout := bridge.DefaultLayout()

	cases := []struct {
		name string
		err  error
		want []bridge.Effect
	}{
		{
			name: "success",
			want: []bridge.Effect{
				bridge.SetCookie{Name: "token", Value: ""},
				bridge.Navigate{Path: "/"},
			},
		},
		{
			name: "failure",
			err:  errors.New("offline"),
			want: []bridge.Effect{
				bridge.Log{Level: bridge.LogLevelError, Message: "error signing out: offline"},
				bridge.Navigate{Path: "/"},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			s, _ := layout.Reduce(bridge.State{}, bridge.SignOutClicked{})

			next, effects := layout.Reduce(s, bridge.SignOutFinished{Err: tc.err})
			if diff := deep.Equal(effects, tc.want); diff != nil {
				t.Errorf("unexpected effects: %v", diff)
			}
			if next.SigningOut {
				t.Error("expected sign-out to be finished")
			}
		})
	}
}

func TestReduce_SignOutFinishedWithoutClickIgnored(t *testing.T) {
	t.Parallel()
	layout := bridge.DefaultLayout()

	_, effects := layout.Reduce(bridge.State{}, bridge.SignOutFinished{})
	if len(effects) != 0 {
		t.Errorf("unexpected effects: %v", effects)
	}
}

func TestReduce_CustomLayout(t *testing.T) {
	t.Parallel()
	layout := bridge.Layout{
		SignOutID:         "logout",
		ContentID:         "content",
		WidgetContainerID: "login",
		CookieName:        "id_token",
		RootPath:          "/app/",
		Widget: bridge.WidgetConfig{
			SignInSuccessURL: "/app/",
			SignInOptions:    []string{bridge.ProviderPassword},
		},
	}

	s, effects := layout.Reduce(bridge.State{}, bridge.AuthStateChanged{User: nil})
	if diff := deep.Equal(effects[1], bridge.SetCookie{Name: "id_token", Value: ""}); diff != nil {
		t.Errorf("unexpected cookie effect: %v", diff)
	}

	s, _ = layout.Reduce(s, bridge.SignOutClicked{})
	_, effects = layout.Reduce(s, bridge.SignOutFinished{})
	if diff := deep.Equal(effects[len(effects)-1], bridge.Navigate{Path: "/app/"}); diff != nil {
		t.Errorf("unexpected navigation: %v", diff)
	}
}

// model folds effects into the page state they describe.
type model struct {
	hidden  map[string]bool
	cookie  string
	mounted bool
	// cookieBeforeMount records the cookie value at the moment the widget
	// was mounted.
	cookieBeforeMount string
}

func (m *model) apply(effects []bridge.Effect) {
	for _, effect := range effects {
		switch e := effect.(type) {
		case bridge.SetHidden:
			m.hidden[e.ID] = e.Hidden
		case bridge.SetCookie:
			m.cookie = e.Value
		case bridge.MountWidget:
			m.mounted = true
			m.cookieBeforeMount = m.cookie
		}
	}
}

func TestReduce_VisibilityFollowsLatestNotification(t *testing.T) {
	t.Parallel()
	layout := bridge.DefaultLayout()
	ann := bridgetest.NewUser("ann-uid", "Ann", "ann@x.com")
	bob := bridgetest.NewUser("bob-uid", "Bob", "bob@x.com")

	// every sequence of notifications, with a token landing after each user
	users := []*bridgetest.User{ann, bob, nil}
	var sequences [][]*bridgetest.User
	for _, a := range users {
		for _, b := range users {
			for _, c := range users {
				sequences = append(sequences, []*bridgetest.User{a, b, c})
			}
		}
	}

	for _, seq := range sequences {
		s := bridge.State{Cookie: "previous"}
		m := &model{hidden: map[string]bool{}, cookie: "previous"}

		for _, u := range seq {
			var event bridge.AuthStateChanged
			if u != nil {
				event.User = u
			}
			m.mounted = false

			var effects []bridge.Effect
			s, effects = layout.Reduce(s, event)
			m.apply(effects)

			if u != nil {
				if m.hidden["sign-out"] || m.hidden["main-content"] {
					t.Fatalf("%v: elements hidden after user notification", seq)
				}
				s, effects = layout.Reduce(s, bridge.TokenFetched{Generation: s.Generation, Token: u.Profile().UID + "-token"})
				m.apply(effects)
				if m.cookie != u.Profile().UID+"-token" {
					t.Fatalf("%v: expected cookie for %s, got %q", seq, u.Profile().UID, m.cookie)
				}
				continue
			}

			if !m.hidden["sign-out"] || !m.hidden["main-content"] {
				t.Fatalf("%v: elements visible after no-user notification", seq)
			}
			if !m.mounted {
				t.Fatalf("%v: widget not mounted after no-user notification", seq)
			}
			if m.cookieBeforeMount != "" || m.cookie != "" {
				t.Fatalf("%v: cookie not cleared before mount: %q", seq, m.cookieBeforeMount)
			}
		}
	}
}

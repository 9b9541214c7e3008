package bridge

import "fmt"

// Reduce maps the previous state and an event to the next state and the
// effects that bring the page and cookie in line with it. It performs no I/O.
func (l Layout) Reduce(
	s State,
	e Event,
) (
	State,
	[]Effect,
) {
	switch e := e.(type) {
	case AuthStateChanged:
		if e.User == nil {
			return l.signedOut(s)
		}
		return l.signedIn(s, e.User)

	case AuthStateFailed:
		return s, []Effect{
			Alert{Message: fmt.Sprintf("Unable to log in: %v", e.Err)},
		}

	case TokenFetched:
		if !s.isCurrent(e.Generation) {
			return s, nil
		}
		s.Cookie = e.Token
		s.TokenPending = false
		return s, []Effect{
			SetCookie{Name: l.CookieName, Value: e.Token},
		}

	case TokenFetchFailed:
		if !s.isCurrent(e.Generation) {
			return s, nil
		}
		s.TokenPending = false
		return s, []Effect{
			Log{Level: LogLevelError, Message: fmt.Sprintf("couldn't fetch token: %v", e.Err)},
		}

	case SignOutClicked:
		return l.signOutClicked(s)

	case SignOutFinished:
		return l.signOutFinished(s, e.Err)

	default:
		return s, nil
	}
}

func (l Layout) signedIn(
	s State,
	user User,
) (
	State,
	[]Effect,
) {
	profile := user.Profile()

	next := s
	next.Generation++
	next.Status = StatusSignedIn
	next.Profile = profile
	next.TokenPending = true

	// visibility does not wait for the token
	effects := []Effect{
		SetHidden{ID: l.SignOutID, Hidden: false},
		SetHidden{ID: l.ContentID, Hidden: false},
		Log{Level: LogLevelInfo, Message: fmt.Sprintf("signed in as %s (%s)", profile.DisplayName, profile.Email)},
	}

	// never leave another user's token behind while the new one is fetched
	if s.Cookie != "" && s.Profile.UID != profile.UID {
		next.Cookie = ""
		effects = append(effects, SetCookie{Name: l.CookieName, Value: ""})
	}

	effects = append(effects, FetchToken{Generation: next.Generation, User: user})
	return next, effects
}

func (l Layout) signedOut(
	s State,
) (
	State,
	[]Effect,
) {
	next := s
	next.Generation++
	next.Status = StatusSignedOut
	next.Profile = Profile{}
	next.Cookie = ""
	next.TokenPending = false

	// the cookie is cleared before the widget is mounted
	return next, []Effect{
		CancelFetch{},
		SetCookie{Name: l.CookieName, Value: ""},
		SetHidden{ID: l.SignOutID, Hidden: true},
		SetHidden{ID: l.ContentID, Hidden: true},
		MountWidget{Container: l.WidgetContainerID, Config: l.Widget.clone()},
	}
}

func (l Layout) signOutClicked(
	s State,
) (
	State,
	[]Effect,
) {
	if s.SigningOut {
		return s, nil
	}

	next := s
	next.Generation++
	next.SigningOut = true
	next.Cookie = ""
	next.TokenPending = false

	return next, []Effect{
		CancelFetch{},
		SetCookie{Name: l.CookieName, Value: ""},
		Log{Level: LogLevelDebug, Message: "signing out"},
		RequestSignOut{},
	}
}

func (l Layout) signOutFinished(
	s State,
	err error,
) (
	State,
	[]Effect,
) {
	if !s.SigningOut {
		return s, nil
	}

	next := s
	next.SigningOut = false

	if err != nil {
		return next, []Effect{
			Log{Level: LogLevelError, Message: fmt.Sprintf("error signing out: %v", err)},
			Navigate{Path: l.RootPath},
		}
	}

	next.Cookie = ""
	return next, []Effect{
		SetCookie{Name: l.CookieName, Value: ""},
		Navigate{Path: l.RootPath},
	}
}

func (s State) isCurrent(generation uint64) bool {
	return generation == s.Generation && s.Status == StatusSignedIn
}

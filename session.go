package talent

import "time"

// SessionState is the lifecycle state of the session
type SessionState string

const (
	// SessionAnonymous has no identity attached. A failed login leaves the
	// session here with Error set.
	SessionAnonymous SessionState = "anonymous"
	// SessionLoading means a session affecting call is in flight
	SessionLoading SessionState = "loading"
	// SessionAuthenticated has a confirmed identity and credential
	SessionAuthenticated SessionState = "authenticated"
)

// Session is the process wide authentication record. Only the Controller
// writes it; consumers receive copies through Snapshot.
type Session struct {
	State     SessionState
	User      *User
	Token     string
	ExpiresAt time.Time
	Loading   bool
	Error     string
}

// IsAuthenticated is true only when a user and a token are both present and
// the token expiry, when known, is in the future.
func (s Session) IsAuthenticated() bool {
	return s.IsAuthenticatedAt(time.Now())
}

// IsAuthenticatedAt evaluates the session against now instead of the wall clock.
func (s Session) IsAuthenticatedAt(now time.Time) bool {
	if s.State != SessionAuthenticated || s.User == nil || s.Token == "" {
		return false
	}
	if s.ExpiresAt.IsZero() {
		return true
	}
	return now.Before(s.ExpiresAt)
}

// Role returns the role of the signed in user, empty when anonymous
func (s Session) Role() Role {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}

// HasError reports whether the last operation left an error message
func (s Session) HasError() bool {
	return s.Error != ""
}

// clone copies the session so callers can't reach the controller's user.
func (s Session) clone() Session {
	out := s
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	return out
}

func initialSession() Session {
	return Session{
		State:   SessionLoading,
		Loading: true,
	}
}

func anonymousSession(errMsg string) Session {
	return Session{
		State: SessionAnonymous,
		Error: errMsg,
	}
}

// Package session holds per-browser authentication state and the router that
// moves it between states in response to login, signup and logout.
package session

import (
	"sync"
	"time"
)

// AuthStatus is the authentication state of one session.
type AuthStatus int

const (
	Anonymous AuthStatus = iota
	LoggedIn
	LoginFailed
	SignupFailed
	LoggedOut
)

func (s AuthStatus) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case LoggedIn:
		return "logged_in"
	case LoginFailed:
		return "login_failed"
	case SignupFailed:
		return "signup_failed"
	case LoggedOut:
		return "logged_out"
	default:
		return "unknown"
	}
}

// Session is the state of one interactive visit. It is only mutated by
// Router; handlers receive it explicitly instead of reading shared globals.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	status   AuthStatus
	username string
	flash    string
}

// New returns an anonymous session with the given id.
func New(id string) *Session {
	return &Session{ID: id, CreatedAt: time.Now(), status: Anonymous}
}

// Status returns the current auth status.
func (s *Session) Status() AuthStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Username returns the logged-in user, or "" when nobody is logged in.
func (s *Session) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username
}

// LoggedIn reports whether the session is authenticated.
func (s *Session) LoggedIn() bool {
	return s.Status() == LoggedIn
}

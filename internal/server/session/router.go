package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/tumordetect/internal/common"
	"github.com/dmitrijs2005/tumordetect/internal/logging"
)

// ErrInvalidTransition is returned for an action the current state does not
// accept, such as logging in twice or logging out anonymously.
var ErrInvalidTransition = errors.New("invalid session transition")

// User-visible messages.
const (
	MsgLoginFailed    = "Login failed. Please check your username and password."
	MsgSignupFailed   = "Signup failed. Username already exists."
	MsgMissingInput   = "Please enter a username and password."
	MsgPasswordLength = "Signup failed. Password must be at most 72 bytes."
	MsgInternal       = "Something went wrong. Please try again."
	MsgSignupSuccess  = "Account created successfully!"
)

// Authenticator is the credential store as seen by the router.
type Authenticator interface {
	AddUser(ctx context.Context, username, password string) error
	CheckUser(ctx context.Context, username, password string) error
}

// Page selects what the front end renders for a session.
type Page int

const (
	PageAuthForm Page = iota
	PageDetection
)

// View is the render decision for one request.
type View struct {
	Page     Page
	Status   AuthStatus
	Username string
	Error    string
	Notice   string
}

// Router drives the session state machine:
//
//	Anonymous|LoggedOut|*Failed --Login ok-->  LoggedIn
//	Anonymous|LoggedOut|*Failed --Login err--> LoginFailed
//	Anonymous|LoggedOut|*Failed --Signup ok--> LoggedIn
//	Anonymous|LoggedOut|*Failed --Signup err-> SignupFailed
//	LoggedIn --Logout--> LoggedOut
//
// Rendering a failed or logged-out session consumes its message and returns
// it to Anonymous.
type Router struct {
	auth   Authenticator
	logger logging.Logger
}

func NewRouter(a Authenticator, l logging.Logger) *Router {
	return &Router{auth: a, logger: l.With("module", "session_router")}
}

// Login verifies the credentials and moves s to LoggedIn or LoginFailed.
// The credential error is returned unchanged.
func (r *Router) Login(ctx context.Context, s *Session, username, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == LoggedIn {
		return fmt.Errorf("%w: login while %s", ErrInvalidTransition, s.status)
	}

	if err := r.auth.CheckUser(ctx, username, password); err != nil {
		s.status = LoginFailed
		s.username = ""
		s.flash = loginMessage(err)
		r.logger.Info(ctx, "login failed", "session", s.ID, "error", err)
		return err
	}

	s.status = LoggedIn
	s.username = username
	s.flash = ""
	r.logger.Info(ctx, "login", "session", s.ID, "username", username)
	return nil
}

// Signup creates the account and moves s to LoggedIn or SignupFailed.
func (r *Router) Signup(ctx context.Context, s *Session, username, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == LoggedIn {
		return fmt.Errorf("%w: signup while %s", ErrInvalidTransition, s.status)
	}

	if err := r.auth.AddUser(ctx, username, password); err != nil {
		s.status = SignupFailed
		s.username = ""
		s.flash = signupMessage(err)
		r.logger.Info(ctx, "signup failed", "session", s.ID, "error", err)
		return err
	}

	s.status = LoggedIn
	s.username = username
	s.flash = MsgSignupSuccess
	r.logger.Info(ctx, "signup", "session", s.ID, "username", username)
	return nil
}

// Logout clears the user and moves s to LoggedOut.
func (r *Router) Logout(ctx context.Context, s *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != LoggedIn {
		return fmt.Errorf("%w: logout while %s", ErrInvalidTransition, s.status)
	}

	r.logger.Info(ctx, "logout", "session", s.ID, "username", s.username)
	s.status = LoggedOut
	s.username = ""
	s.flash = ""
	return nil
}

// View decides what to render and consumes any one-shot message.
func (r *Router) View(s *Session) View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{Status: s.status}

	switch s.status {
	case LoggedIn:
		v.Page = PageDetection
		v.Username = s.username
		v.Notice = s.flash
	case LoginFailed, SignupFailed:
		v.Page = PageAuthForm
		v.Error = s.flash
		s.status = Anonymous
	case LoggedOut:
		v.Page = PageAuthForm
		s.status = Anonymous
	default:
		v.Page = PageAuthForm
	}
	s.flash = ""

	return v
}

func loginMessage(err error) string {
	switch {
	case errors.Is(err, common.ErrMissingInput):
		return MsgMissingInput
	case errors.Is(err, common.ErrInvalidCredentials):
		return MsgLoginFailed
	default:
		return MsgInternal
	}
}

func signupMessage(err error) string {
	switch {
	case errors.Is(err, common.ErrMissingInput):
		return MsgMissingInput
	case errors.Is(err, common.ErrDuplicateUsername):
		return MsgSignupFailed
	case errors.Is(err, common.ErrorValidation):
		return MsgPasswordLength
	default:
		return MsgInternal
	}
}

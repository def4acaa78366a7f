package talent

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-talent-session/notify"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// CredentialStore persists the single bearer token across restarts.
// Implementations accept and return any string as-is.
type CredentialStore interface {
	Save(ctx context.Context, token string) error
	Read(ctx context.Context) (string, bool, error)
	Clear(ctx context.Context) error
}

// CredentialAttacher is the part of the request pipeline that holds the
// credential attached to outbound calls.
type CredentialAttacher interface {
	Attach(token string)
	Detach()
}

// SessionAPI holds the auth endpoints the controller depends on
type SessionAPI interface {
	Login(ctx context.Context, payload LoginPayload) (string, error)
	Register(ctx context.Context, payload RegistrationPayload) (string, error)
	Me(ctx context.Context) (*User, error)
}

// ProfileAPI holds the profile endpoints
type ProfileAPI interface {
	CurrentProfile(ctx context.Context) (*Profile, error)
	SaveProfile(ctx context.Context, profile *Profile) (*Profile, error)
}

// RecruiterAPI holds the read-only recruiter endpoints
type RecruiterAPI interface {
	RecruiterAccount(ctx context.Context) (*Profile, error)
	Shortlist(ctx context.Context) ([]ShortlistEntry, error)
}

// Notifier receives user facing outcome messages.
type Notifier interface {
	Push(message string, severity notify.Severity, timeout time.Duration) string
}

// Navigator performs client side navigation, e.g. the forced redirect to login.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(path string)

// Navigate implements Navigator.
func (f NavigatorFunc) Navigate(path string) {
	if f != nil {
		f(path)
	}
}

// SessionView is the read-only face of the session handed to UI code.
type SessionView interface {
	Snapshot() Session
}

// Config holds session options
type Config interface {
	GetLoginPath() string
	GetHomePath() string
	GetNotificationTimeout() time.Duration
}

type noopNotifier struct{}

func (noopNotifier) Push(string, notify.Severity, time.Duration) string { return "" }

type noopNavigator struct{}

func (noopNavigator) Navigate(string) {}

type noopAttacher struct{}

func (noopAttacher) Attach(string) {}
func (noopAttacher) Detach()       {}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] TALENT "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] TALENT "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] TALENT "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] TALENT "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}

package unauthorizedware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/goliatone/go-talent-session/apiclient"
)

// CredentialClearer interface for clearing the persisted token without import cycles
// This mirrors the Clear method of talent.CredentialStore
type CredentialClearer interface {
	Clear(ctx context.Context) error
}

// Navigator mirrors talent.Navigator
type Navigator interface {
	Navigate(path string)
}

// Hook runs on every unauthorized response, after the store is cleared and
// before navigation.
type Hook func(ctx context.Context, req *http.Request)

type Config struct {
	Store     CredentialClearer
	Navigator Navigator
	// LoginPath is the navigation target, defaults to /login
	LoginPath string
	// OnUnauthorized hooks, e.g. the session controller teardown
	OnUnauthorized []Hook
	// ErrorHandler receives store failures; the response is still returned
	ErrorHandler func(err error)
}

// New returns the inbound middleware. On a 401 it clears the credential
// store, runs the hooks and navigates to login before the response goes back
// to the caller. The response itself is passed through untouched.
func New(config ...Config) apiclient.Middleware {
	cfg := GetDefaultConfig(config...)
	return func(next apiclient.Handler) apiclient.Handler {
		return func(req *http.Request) (*http.Response, error) {
			resp, err := next(req)
			if err != nil || resp == nil || resp.StatusCode != http.StatusUnauthorized {
				return resp, err
			}

			ctx := req.Context()
			if clearErr := cfg.Store.Clear(ctx); clearErr != nil {
				cfg.ErrorHandler(fmt.Errorf("clear credential after 401 on %s %s: %w", req.Method, req.URL.Path, clearErr))
			}

			for _, hook := range cfg.OnUnauthorized {
				if hook != nil {
					hook(ctx, req)
				}
			}

			if cfg.Navigator != nil {
				cfg.Navigator.Navigate(cfg.LoginPath)
			}

			return resp, nil
		}
	}
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Store == nil {
		panic("TALENT: unauthorized middleware configuration: Store is required.")
	}

	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login"
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(error) {}
	}

	return cfg
}

package credentialware

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/goliatone/go-talent-session/apiclient"
)

const defaultHeader = "x-auth-token"

// CredentialReader interface for reading the persisted token without import cycles
// This mirrors the Read method of talent.CredentialStore
type CredentialReader interface {
	Read(ctx context.Context) (string, bool, error)
}

// Credentials holds the token attached to outbound requests. The session
// controller attaches it after login or restore and detaches it on logout.
type Credentials struct {
	mu    sync.RWMutex
	token string
}

// NewCredentials returns an empty holder
func NewCredentials() *Credentials {
	return &Credentials{}
}

// Attach sets the token sent with every request
func (c *Credentials) Attach(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Detach removes the attached token
func (c *Credentials) Detach() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

// Current returns the attached token
func (c *Credentials) Current() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token, c.token != ""
}

type Config struct {
	// Store is read when no credential is attached
	Store CredentialReader
	// Credentials is the attached credential, checked first
	Credentials *Credentials
	// Header carries the credential, defaults to x-auth-token
	Header string
	// AuthScheme is prepended to the token when set, e.g. "Bearer"
	AuthScheme string
	// Filter skips the middleware for matching requests
	Filter func(*http.Request) bool
}

// New returns the outbound middleware: the credential, when present, is set
// on the request before it is dispatched.
func New(config ...Config) apiclient.Middleware {
	cfg := GetDefaultConfig(config...)
	return func(next apiclient.Handler) apiclient.Handler {
		return func(req *http.Request) (*http.Response, error) {
			if cfg.Filter != nil && cfg.Filter(req) {
				return next(req)
			}

			token, ok := cfg.lookup(req.Context())
			if !ok {
				return next(req)
			}

			out := req.Clone(req.Context())
			out.Header.Set(cfg.Header, cfg.headerValue(token))
			return next(out)
		}
	}
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Store == nil && cfg.Credentials == nil {
		panic("TALENT: credential middleware configuration: Store or Credentials is required.")
	}

	if cfg.Header == "" {
		cfg.Header = defaultHeader
	}

	cfg.AuthScheme = strings.TrimSpace(cfg.AuthScheme)

	return cfg
}

func (cfg Config) lookup(ctx context.Context) (string, bool) {
	if cfg.Credentials != nil {
		if token, ok := cfg.Credentials.Current(); ok {
			return token, true
		}
	}

	if cfg.Store != nil {
		token, ok, err := cfg.Store.Read(ctx)
		if err == nil && ok && token != "" {
			return token, true
		}
	}

	return "", false
}

func (cfg Config) headerValue(token string) string {
	if cfg.AuthScheme == "" {
		return token
	}
	return cfg.AuthScheme + " " + token
}

package ratelimitware

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-talent-session/apiclient"
	"golang.org/x/time/rate"
)

type Config struct {
	// Limit is the sustained request rate per second
	Limit rate.Limit
	// Burst is the bucket size, defaults to 1
	Burst int
	// Limiter overrides Limit and Burst
	Limiter *rate.Limiter
}

// New throttles outbound requests with a token bucket. A request waits for
// a token or fails when its context ends first.
func New(config ...Config) apiclient.Middleware {
	cfg := GetDefaultConfig(config...)
	return func(next apiclient.Handler) apiclient.Handler {
		return func(req *http.Request) (*http.Response, error) {
			if err := cfg.Limiter.Wait(req.Context()); err != nil {
				return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "request throttled").
					WithMetadata(map[string]any{"method": req.Method, "path": req.URL.Path})
			}
			return next(req)
		}
	}
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}

	if cfg.Limiter == nil {
		if cfg.Limit <= 0 {
			panic("TALENT: rate limit middleware configuration: Limit or Limiter is required.")
		}
		cfg.Limiter = rate.NewLimiter(cfg.Limit, cfg.Burst)
	}

	return cfg
}

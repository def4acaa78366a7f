package apiclient

import (
	"context"
	"net/http"

	talent "github.com/goliatone/go-talent-session"
)

const (
	PathLogin              = "/auth/login"
	PathRegister           = "/auth/register"
	PathMe                 = "/auth/me"
	PathProfileMe          = "/profile/me"
	PathProfile            = "/profile"
	PathRecruiterMe        = "/recruiter/me"
	PathRecruiterShortlist = "/recruiter/shortlist"
)

var (
	_ talent.SessionAPI   = (*Client)(nil)
	_ talent.ProfileAPI   = (*Client)(nil)
	_ talent.RecruiterAPI = (*Client)(nil)
)

type tokenResponse struct {
	Token string `json:"token"`
}

// Login posts credentials and returns the issued token
func (c *Client) Login(ctx context.Context, payload talent.LoginPayload) (string, error) {
	var res tokenResponse
	if err := c.Do(ctx, http.MethodPost, PathLogin, payload, &res); err != nil {
		return "", err
	}
	return res.Token, nil
}

// Register creates an account and returns the issued token
func (c *Client) Register(ctx context.Context, payload talent.RegistrationPayload) (string, error) {
	var res tokenResponse
	if err := c.Do(ctx, http.MethodPost, PathRegister, payload, &res); err != nil {
		return "", err
	}
	return res.Token, nil
}

// Me returns the identity bound to the attached credential
func (c *Client) Me(ctx context.Context) (*talent.User, error) {
	user := &talent.User{}
	if err := c.Do(ctx, http.MethodGet, PathMe, nil, user); err != nil {
		return nil, err
	}
	return user, nil
}

// CurrentProfile returns the profile of the signed-in user. A missing
// profile surfaces as a 404 *APIError.
func (c *Client) CurrentProfile(ctx context.Context) (*talent.Profile, error) {
	profile := &talent.Profile{}
	if err := c.Do(ctx, http.MethodGet, PathProfileMe, nil, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// SaveProfile creates or updates the profile and returns the stored version
func (c *Client) SaveProfile(ctx context.Context, profile *talent.Profile) (*talent.Profile, error) {
	saved := &talent.Profile{}
	if err := c.Do(ctx, http.MethodPost, PathProfile, profile, saved); err != nil {
		return nil, err
	}
	return saved, nil
}

// RecruiterAccount returns the recruiter profile of the signed-in user
func (c *Client) RecruiterAccount(ctx context.Context) (*talent.Profile, error) {
	profile := &talent.Profile{}
	if err := c.Do(ctx, http.MethodGet, PathRecruiterMe, nil, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// Shortlist returns the candidates saved by the recruiter
func (c *Client) Shortlist(ctx context.Context) ([]talent.ShortlistEntry, error) {
	var entries []talent.ShortlistEntry
	if err := c.Do(ctx, http.MethodGet, PathRecruiterShortlist, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

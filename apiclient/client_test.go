package apiclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	talent "github.com/goliatone/go-talent-session"
	"github.com/goliatone/go-talent-session/apiclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	url string
}

func (c testConfig) GetBaseURL() string        { return c.url }
func (c testConfig) GetTimeout() time.Duration { return time.Second }

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) apiclient.Middleware {
		return func(next apiclient.Handler) apiclient.Handler {
			return func(req *http.Request) (*http.Response, error) {
				order = append(order, name+">")
				resp, err := next(req)
				order = append(order, "<"+name)
				return resp, err
			}
		}
	}

	final := func(*http.Request) (*http.Response, error) {
		order = append(order, "transport")
		return &http.Response{StatusCode: http.StatusOK}, nil
	}

	h := apiclient.Chain(final, mw("a"), nil, mw("b"))
	_, err := h(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	assert.Equal(t, []string{"a>", "b>", "transport", "<b", "<a"}, order)
}

func TestClientDefaults(t *testing.T) {
	c := apiclient.New(nil)
	assert.Equal(t, "http://localhost:5050", c.BaseURL())

	c = apiclient.New(testConfig{url: "http://api.local/"})
	assert.Equal(t, "http://api.local", c.BaseURL())
}

func TestClientEndpoints(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(apiclient.PathRegister, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "A", body["firstName"])
		assert.Equal(t, "talent", body["role"])
		_, hasConfirm := body["confirmPassword"]
		assert.False(t, hasConfirm)

		_ = json.NewEncoder(w).Encode(map[string]string{"token": "T1"})
	})
	mux.HandleFunc(apiclient.PathMe, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"_id": "u1", "role": "talent"})
	})
	mux.HandleFunc(apiclient.PathProfile, func(w http.ResponseWriter, r *http.Request) {
		var p talent.Profile
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		p.ID = "p1"
		_ = json.NewEncoder(w).Encode(p)
	})
	mux.HandleFunc(apiclient.PathRecruiterShortlist, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"_id":"s1","talent":{"_id":"t1"}}]`))
	})
	mux.HandleFunc(apiclient.PathProfileMe, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"msg":"There is no profile for this user"}`))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := apiclient.New(testConfig{url: srv.URL})
	ctx := context.Background()

	token, err := c.Register(ctx, talent.RegistrationPayload{FirstName: "A", ConfirmPassword: "x", Role: talent.RoleTalent})
	require.NoError(t, err)
	assert.Equal(t, "T1", token)

	user, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)

	saved, err := c.SaveProfile(ctx, &talent.Profile{Headline: "SRE"})
	require.NoError(t, err)
	assert.Equal(t, "p1", saved.ID)
	assert.Equal(t, "SRE", saved.Headline)

	entries, err := c.Shortlist(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "t1", entries[0].Talent.ID)

	_, err = c.CurrentProfile(ctx)
	require.Error(t, err)
	assert.True(t, apiclient.IsNotFound(err))
	assert.True(t, talent.IsNotFoundError(err))

	var apiErr *apiclient.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "There is no profile for this user", apiErr.Message)
	assert.Equal(t, apiclient.PathProfileMe, apiErr.Path)
}

func TestClientTransportError(t *testing.T) {
	failing := func(apiclient.Handler) apiclient.Handler {
		return func(*http.Request) (*http.Response, error) {
			return nil, errors.New("dial tcp: connection refused")
		}
	}

	c := apiclient.New(testConfig{url: "http://127.0.0.1:1"}, apiclient.WithMiddleware(failing))
	_, err := c.Login(context.Background(), talent.LoginPayload{Email: "a@b.com", Password: "x"})
	require.Error(t, err)
	assert.Equal(t, "Login failed", talent.ErrorMessage(err, "Login failed"))
}

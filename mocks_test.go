package talent_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	talent "github.com/goliatone/go-talent-session"
	"github.com/goliatone/go-talent-session/notify"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockSessionAPI implements talent.SessionAPI
type MockSessionAPI struct {
	mock.Mock
}

func (m *MockSessionAPI) Login(ctx context.Context, payload talent.LoginPayload) (string, error) {
	args := m.Called(ctx, payload)
	return args.String(0), args.Error(1)
}

func (m *MockSessionAPI) Register(ctx context.Context, payload talent.RegistrationPayload) (string, error) {
	args := m.Called(ctx, payload)
	return args.String(0), args.Error(1)
}

func (m *MockSessionAPI) Me(ctx context.Context) (*talent.User, error) {
	args := m.Called(ctx)
	user, _ := args.Get(0).(*talent.User)
	return user, args.Error(1)
}

// MockProfileAPI implements talent.ProfileAPI
type MockProfileAPI struct {
	mock.Mock
}

func (m *MockProfileAPI) CurrentProfile(ctx context.Context) (*talent.Profile, error) {
	args := m.Called(ctx)
	profile, _ := args.Get(0).(*talent.Profile)
	return profile, args.Error(1)
}

func (m *MockProfileAPI) SaveProfile(ctx context.Context, profile *talent.Profile) (*talent.Profile, error) {
	args := m.Called(ctx, profile)
	saved, _ := args.Get(0).(*talent.Profile)
	return saved, args.Error(1)
}

// MockRecruiterAPI implements talent.RecruiterAPI
type MockRecruiterAPI struct {
	mock.Mock
}

func (m *MockRecruiterAPI) RecruiterAccount(ctx context.Context) (*talent.Profile, error) {
	args := m.Called(ctx)
	profile, _ := args.Get(0).(*talent.Profile)
	return profile, args.Error(1)
}

func (m *MockRecruiterAPI) Shortlist(ctx context.Context) ([]talent.ShortlistEntry, error) {
	args := m.Called(ctx)
	entries, _ := args.Get(0).([]talent.ShortlistEntry)
	return entries, args.Error(1)
}

// MockAttacher implements talent.CredentialAttacher
type MockAttacher struct {
	mu    sync.Mutex
	token string
}

func (m *MockAttacher) Attach(token string) {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
}

func (m *MockAttacher) Detach() {
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()
}

func (m *MockAttacher) Current() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

type pushed struct {
	Message  string
	Severity notify.Severity
}

// recordingNotifier implements talent.Notifier
type recordingNotifier struct {
	mu    sync.Mutex
	items []pushed
}

func (n *recordingNotifier) Push(message string, severity notify.Severity, _ time.Duration) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = append(n.items, pushed{Message: message, Severity: severity})
	return message
}

func (n *recordingNotifier) All() []pushed {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]pushed(nil), n.items...)
}

func (n *recordingNotifier) Messages() []string {
	var out []string
	for _, p := range n.All() {
		out = append(out, p.Message)
	}
	return out
}

// recordingNavigator implements talent.Navigator
type recordingNavigator struct {
	mu    sync.Mutex
	paths []string
}

func (n *recordingNavigator) Navigate(path string) {
	n.mu.Lock()
	n.paths = append(n.paths, path)
	n.mu.Unlock()
}

func (n *recordingNavigator) Paths() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

type testConfig struct {
	login   string
	home    string
	timeout time.Duration
}

func (c testConfig) GetLoginPath() string                  { return c.login }
func (c testConfig) GetHomePath() string                   { return c.home }
func (c testConfig) GetNotificationTimeout() time.Duration { return c.timeout }

func defaultTestConfig() testConfig {
	return testConfig{login: "/login", home: "/", timeout: time.Second}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// mintToken signs a token carrying the nested user claim and exp.
func mintToken(t *testing.T, userID string, role talent.Role, exp time.Time) string {
	t.Helper()
	claims := &talent.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		User: &talent.TokenUser{ID: userID, Role: string(role)},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

// spyStore is an in-memory talent.CredentialStore that counts calls
type spyStore struct {
	mu      sync.Mutex
	token   string
	set     bool
	saves   int
	clears  int
	readErr error
}

func newSpyStore(token string) *spyStore {
	s := &spyStore{}
	if token != "" {
		s.token, s.set = token, true
	}
	return s
}

func (s *spyStore) Save(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	s.token, s.set = token, true
	return nil
}

func (s *spyStore) Read(_ context.Context) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return "", false, s.readErr
	}
	return s.token, s.set, nil
}

func (s *spyStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clears++
	s.token, s.set = "", false
	return nil
}

func (s *spyStore) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.set
}

func (s *spyStore) Clears() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clears
}

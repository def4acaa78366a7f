package talent_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	talent "github.com/goliatone/go-talent-session"
	"github.com/goliatone/go-talent-session/apiclient"
	"github.com/goliatone/go-talent-session/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type controllerFixture struct {
	ctrl     *talent.Controller
	api      *MockSessionAPI
	store    *spyStore
	attacher *MockAttacher
	notifier *recordingNotifier
	nav      *recordingNavigator
}

func newControllerFixture(storedToken string) *controllerFixture {
	f := &controllerFixture{
		api:      &MockSessionAPI{},
		store:    newSpyStore(storedToken),
		attacher: &MockAttacher{},
		notifier: &recordingNotifier{},
		nav:      &recordingNavigator{},
	}
	f.ctrl = talent.NewController(f.api, f.store, defaultTestConfig()).
		WithLogger(nopLogger{}).
		WithAttacher(f.attacher).
		WithNotifier(f.notifier).
		WithNavigator(f.nav)
	return f
}

func TestControllerStartsLoading(t *testing.T) {
	f := newControllerFixture("")

	s := f.ctrl.Snapshot()
	assert.True(t, s.Loading)
	assert.Equal(t, talent.SessionLoading, s.State)
	assert.Equal(t, talent.DecisionPending, talent.CanAccess(s, talent.RoleTalent))
}

func TestRestoreSessionWithoutCredential(t *testing.T) {
	f := newControllerFixture("")

	ok := f.ctrl.RestoreSession(context.Background())

	assert.False(t, ok)
	s := f.ctrl.Snapshot()
	assert.False(t, s.Loading)
	assert.Nil(t, s.User)
	assert.Equal(t, talent.SessionAnonymous, s.State)
	f.api.AssertNotCalled(t, "Me", mock.Anything)
}

func TestRestoreSessionWithExpiredCredential(t *testing.T) {
	token := mintToken(t, "u1", talent.RoleTalent, time.Now().Add(-time.Hour))
	f := newControllerFixture(token)

	ok := f.ctrl.RestoreSession(context.Background())

	assert.False(t, ok)
	_, present := f.store.Token()
	assert.False(t, present)
	assert.False(t, f.ctrl.Snapshot().Loading)
	f.api.AssertNotCalled(t, "Me", mock.Anything)
}

func TestRestoreSessionWithValidCredential(t *testing.T) {
	token := mintToken(t, "u1", talent.RoleRecruiter, time.Now().Add(time.Hour))
	f := newControllerFixture(token)

	user := &talent.User{ID: "u1", Email: "r@acme.com", Role: talent.RoleRecruiter}
	f.api.On("Me", mock.Anything).Return(user, nil).Once()

	ok := f.ctrl.RestoreSession(context.Background())

	require.True(t, ok)
	s := f.ctrl.Snapshot()
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, talent.RoleRecruiter, s.Role())
	assert.Equal(t, token, s.Token)
	assert.False(t, s.ExpiresAt.IsZero())
	assert.Equal(t, token, f.attacher.Current())
	assert.Equal(t, 0, f.store.saves)
	assert.Empty(t, f.notifier.All())
	f.api.AssertExpectations(t)
}

func TestRestoreSessionIdentityFailureLogsOut(t *testing.T) {
	token := mintToken(t, "u1", talent.RoleTalent, time.Now().Add(time.Hour))
	f := newControllerFixture(token)

	f.api.On("Me", mock.Anything).Return(nil, &apiclient.APIError{Status: 401, Message: "Token is not valid"}).Once()

	ok := f.ctrl.RestoreSession(context.Background())

	assert.False(t, ok)
	_, present := f.store.Token()
	assert.False(t, present)
	assert.Empty(t, f.attacher.Current())
	assert.False(t, f.ctrl.IsAuthenticated())
}

func TestRegisterSignsInWithReturnedToken(t *testing.T) {
	f := newControllerFixture("")
	ctx := context.Background()

	payload := talent.RegistrationPayload{
		FirstName: "A",
		LastName:  "B",
		Email:     "a@b.com",
		Password:  "secret1",
		Country:   "Canada",
		Role:      talent.RoleTalent,
	}

	f.api.On("Register", mock.Anything, payload).Return("T1", nil).Once()
	f.api.On("Me", mock.Anything).Return(&talent.User{ID: "u1", Email: "a@b.com", Role: talent.RoleTalent}, nil).Once()

	ok := f.ctrl.Register(ctx, payload)

	require.True(t, ok)
	s := f.ctrl.Snapshot()
	assert.Equal(t, talent.RoleTalent, s.User.Role)
	assert.True(t, f.ctrl.IsAuthenticated())
	assert.True(t, s.ExpiresAt.IsZero())

	stored, present := f.store.Token()
	assert.True(t, present)
	assert.Equal(t, "T1", stored)
	assert.Equal(t, "T1", f.attacher.Current())
	assert.Contains(t, f.notifier.Messages(), "Registration successful! Welcome aboard.")
	f.api.AssertExpectations(t)
}

func TestRegisterWithoutRoleFailsLocally(t *testing.T) {
	f := newControllerFixture("")

	ok := f.ctrl.Register(context.Background(), talent.RegistrationPayload{
		FirstName: "A",
		Email:     "a@b.com",
		Password:  "secret1",
	})

	assert.False(t, ok)
	s := f.ctrl.Snapshot()
	assert.Equal(t, "Registration failed: Role is required", s.Error)
	assert.Nil(t, s.User)
	assert.False(t, s.Loading)
	f.api.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)

	all := f.notifier.All()
	require.Len(t, all, 1)
	assert.Equal(t, notify.SeverityError, all[0].Severity)
}

func TestRegisterNetworkFailureUsesFallback(t *testing.T) {
	f := newControllerFixture("")

	f.api.On("Register", mock.Anything, mock.Anything).Return("", errors.New("dial tcp: connection refused")).Once()

	ok := f.ctrl.Register(context.Background(), talent.RegistrationPayload{Email: "a@b.com", Role: talent.RoleRecruiter})

	assert.False(t, ok)
	assert.Equal(t, "Registration failed. Please check network connection.", f.ctrl.Snapshot().Error)
}

func TestLoginSuccess(t *testing.T) {
	f := newControllerFixture("")
	token := mintToken(t, "u1", talent.RoleTalent, time.Now().Add(time.Hour))

	var mu sync.Mutex
	var events []talent.ActivityEvent
	f.ctrl.WithActivitySink(talent.ActivitySinkFunc(func(_ context.Context, e talent.ActivityEvent) error {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
		return nil
	}))

	f.api.On("Login", mock.Anything, talent.LoginPayload{Email: "a@b.com", Password: "pw", Role: talent.RoleTalent}).
		Return(token, nil).Once()
	f.api.On("Me", mock.Anything).Return(&talent.User{ID: "u1", Role: talent.RoleTalent}, nil).Once()

	ok := f.ctrl.Login(context.Background(), "  a@b.com ", "pw", talent.RoleTalent)

	require.True(t, ok)
	assert.True(t, f.ctrl.IsAuthenticated())
	assert.Empty(t, f.ctrl.Snapshot().Error)
	assert.Equal(t, []string{"Login successful! Redirecting..."}, f.notifier.Messages())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 1)
	assert.Equal(t, talent.ActivityEventLoginSuccess, events[0].EventType)
	assert.Equal(t, "u1", events[0].UserID)
	assert.Equal(t, talent.SessionAuthenticated, events[0].ToState)
}

func TestLoginFailureSurfacesServerMessage(t *testing.T) {
	f := newControllerFixture("")

	f.api.On("Login", mock.Anything, mock.Anything).
		Return("", &apiclient.APIError{Status: 400, Message: "Invalid Credentials"}).Once()

	ok := f.ctrl.Login(context.Background(), "a@b.com", "wrong", "")

	assert.False(t, ok)
	s := f.ctrl.Snapshot()
	assert.Nil(t, s.User)
	assert.Equal(t, "Invalid Credentials", s.Error)
	assert.False(t, s.Loading)
	assert.Equal(t, []string{"Invalid Credentials"}, f.notifier.Messages())
	f.api.AssertNotCalled(t, "Me", mock.Anything)
}

func TestLoginWithoutTokenFails(t *testing.T) {
	f := newControllerFixture("")

	f.api.On("Login", mock.Anything, mock.Anything).Return("", nil).Once()

	ok := f.ctrl.Login(context.Background(), "a@b.com", "pw", "")

	assert.False(t, ok)
	assert.Equal(t, "No token received from server", f.ctrl.Snapshot().Error)
	_, present := f.store.Token()
	assert.False(t, present)
}

func TestLoginIdentityFailureTearsDown(t *testing.T) {
	f := newControllerFixture("")
	token := mintToken(t, "u1", talent.RoleTalent, time.Now().Add(time.Hour))

	f.api.On("Login", mock.Anything, mock.Anything).Return(token, nil).Once()
	f.api.On("Me", mock.Anything).Return(nil, errors.New("boom")).Once()

	ok := f.ctrl.Login(context.Background(), "a@b.com", "pw", "")

	assert.False(t, ok)
	assert.Equal(t, "Login failed", f.ctrl.Snapshot().Error)
	_, present := f.store.Token()
	assert.False(t, present)
	assert.Empty(t, f.attacher.Current())
}

func TestLogoutIsIdempotent(t *testing.T) {
	f := newControllerFixture("")
	ctx := context.Background()
	token := mintToken(t, "u1", talent.RoleTalent, time.Now().Add(time.Hour))

	f.api.On("Login", mock.Anything, mock.Anything).Return(token, nil).Once()
	f.api.On("Me", mock.Anything).Return(&talent.User{ID: "u1", Role: talent.RoleTalent}, nil).Once()
	require.True(t, f.ctrl.Login(ctx, "a@b.com", "pw", ""))

	var hookRuns int
	f.ctrl.OnLogout(func(context.Context) { hookRuns++ })

	f.ctrl.Logout(ctx)
	f.ctrl.Logout(ctx)

	s := f.ctrl.Snapshot()
	assert.Nil(t, s.User)
	assert.Empty(t, s.Token)
	assert.False(t, f.ctrl.IsAuthenticated())
	assert.Equal(t, 2, f.store.Clears())
	assert.Equal(t, 2, hookRuns)
	assert.Empty(t, f.attacher.Current())

	var logoutNotices int
	for _, msg := range f.notifier.Messages() {
		if msg == "You have been logged out successfully" {
			logoutNotices++
		}
	}
	assert.Equal(t, 1, logoutNotices)
}

func TestForceLogoutNavigatesToLogin(t *testing.T) {
	f := newControllerFixture("")
	ctx := context.Background()
	token := mintToken(t, "u1", talent.RoleTalent, time.Now().Add(time.Hour))

	f.api.On("Login", mock.Anything, mock.Anything).Return(token, nil).Once()
	f.api.On("Me", mock.Anything).Return(&talent.User{ID: "u1", Role: talent.RoleTalent}, nil).Once()
	require.True(t, f.ctrl.Login(ctx, "a@b.com", "pw", ""))

	f.ctrl.ForceLogout(ctx)

	assert.False(t, f.ctrl.IsAuthenticated())
	assert.Equal(t, []string{"/login"}, f.nav.Paths())
	_, present := f.store.Token()
	assert.False(t, present)

	all := f.notifier.All()
	require.NotEmpty(t, all)
	last := all[len(all)-1]
	assert.Equal(t, "Your session has expired. Please sign in again.", last.Message)
	assert.Equal(t, notify.SeverityWarning, last.Severity)

	// nothing left to tear down
	f.ctrl.ForceLogout(ctx)
	assert.Len(t, f.nav.Paths(), 1)
}

func TestLogoutDiscardsInFlightLogin(t *testing.T) {
	f := newControllerFixture("")
	ctx := context.Background()
	token := mintToken(t, "u1", talent.RoleTalent, time.Now().Add(time.Hour))

	started := make(chan struct{})
	release := make(chan struct{})
	f.api.On("Login", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(token, nil).Once()

	done := make(chan bool, 1)
	go func() {
		done <- f.ctrl.Login(ctx, "a@b.com", "pw", "")
	}()

	<-started
	f.ctrl.Logout(ctx)
	close(release)

	assert.False(t, <-done)
	s := f.ctrl.Snapshot()
	assert.Equal(t, talent.SessionAnonymous, s.State)
	assert.Empty(t, s.Error)
	assert.Equal(t, 0, f.store.saves)
	assert.Empty(t, f.attacher.Current())
	f.api.AssertNotCalled(t, "Me", mock.Anything)
}

func TestSubscribersObserveTransitions(t *testing.T) {
	f := newControllerFixture("")
	token := mintToken(t, "u1", talent.RoleTalent, time.Now().Add(time.Hour))

	var mu sync.Mutex
	var states []talent.SessionState
	unsubscribe := f.ctrl.Subscribe(func(s talent.Session) {
		mu.Lock()
		states = append(states, s.State)
		mu.Unlock()
	})

	f.api.On("Login", mock.Anything, mock.Anything).Return(token, nil).Once()
	f.api.On("Me", mock.Anything).Return(&talent.User{ID: "u1", Role: talent.RoleTalent}, nil).Once()
	require.True(t, f.ctrl.Login(context.Background(), "a@b.com", "pw", ""))

	unsubscribe()
	f.ctrl.Logout(context.Background())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []talent.SessionState{talent.SessionLoading, talent.SessionAuthenticated}, states)
}

func TestSnapshotIsACopy(t *testing.T) {
	f := newControllerFixture("")

	f.api.On("Login", mock.Anything, mock.Anything).Return("T1", nil).Once()
	f.api.On("Me", mock.Anything).Return(&talent.User{ID: "u1", Role: talent.RoleTalent}, nil).Once()
	require.True(t, f.ctrl.Login(context.Background(), "a@b.com", "pw", ""))

	s := f.ctrl.Snapshot()
	s.User.Role = talent.RoleAdmin

	assert.Equal(t, talent.RoleTalent, f.ctrl.Snapshot().Role())
}

func TestCredentialExpiryForcesLogout(t *testing.T) {
	f := newControllerFixture("")
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := mintToken(t, "u1", talent.RoleTalent, exp)

	// clock sits just before expiry so the timer fires quickly
	f.ctrl.WithClock(func() time.Time { return exp.Add(-50 * time.Millisecond) })

	f.api.On("Login", mock.Anything, mock.Anything).Return(token, nil).Once()
	f.api.On("Me", mock.Anything).Return(&talent.User{ID: "u1", Role: talent.RoleTalent}, nil).Once()
	require.True(t, f.ctrl.Login(context.Background(), "a@b.com", "pw", ""))

	assert.Eventually(t, func() bool {
		return f.ctrl.Snapshot().State == talent.SessionAnonymous
	}, 2*time.Second, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		paths := f.nav.Paths()
		return len(paths) == 1 && paths[0] == "/login"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestControllerInContext(t *testing.T) {
	f := newControllerFixture("")
	f.ctrl.RestoreSession(context.Background())

	ctx := talent.WithSession(context.Background(), f.ctrl)
	s, ok := talent.CurrentSession(ctx)
	require.True(t, ok)
	assert.Equal(t, talent.SessionAnonymous, s.State)

	_, ok = talent.CurrentSession(context.Background())
	assert.False(t, ok)
}

func TestLateLoginResponseCannotOverrideNewerLogin(t *testing.T) {
	f := newControllerFixture("")
	ctx := context.Background()
	first := mintToken(t, "u1", talent.RoleTalent, time.Now().Add(time.Hour))
	second := mintToken(t, "u2", talent.RoleRecruiter, time.Now().Add(time.Hour))

	started := make(chan struct{})
	release := make(chan struct{})
	f.api.On("Login", mock.Anything, mock.MatchedBy(func(p talent.LoginPayload) bool { return p.Email == "first@b.com" })).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(first, nil).Once()
	f.api.On("Login", mock.Anything, mock.MatchedBy(func(p talent.LoginPayload) bool { return p.Email == "second@b.com" })).
		Return(second, nil).Once()
	f.api.On("Me", mock.Anything).Return(&talent.User{ID: "u2", Role: talent.RoleRecruiter}, nil).Once()

	done := make(chan bool, 1)
	go func() {
		done <- f.ctrl.Login(ctx, "first@b.com", "pw", "")
	}()

	<-started
	require.True(t, f.ctrl.Login(ctx, "second@b.com", "pw", ""))
	close(release)

	assert.False(t, <-done)

	s := f.ctrl.Snapshot()
	assert.Equal(t, talent.SessionAuthenticated, s.State)
	assert.Equal(t, "u2", s.User.ID)
	assert.Empty(t, s.Error)

	stored, _ := f.store.Token()
	assert.Equal(t, second, stored)
	assert.Equal(t, 1, f.store.saves)
	assert.Equal(t, second, f.attacher.Current())
	assert.Equal(t, []string{"Login successful! Redirecting..."}, f.notifier.Messages())
	f.api.AssertExpectations(t)
}

func TestLateRegisterFailureCannotOverrideNewerLogin(t *testing.T) {
	f := newControllerFixture("")
	ctx := context.Background()
	token := mintToken(t, "u1", talent.RoleTalent, time.Now().Add(time.Hour))

	started := make(chan struct{})
	release := make(chan struct{})
	f.api.On("Register", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return("", &apiclient.APIError{Status: 400, Message: "User already exists"}).Once()
	f.api.On("Login", mock.Anything, mock.Anything).Return(token, nil).Once()
	f.api.On("Me", mock.Anything).Return(&talent.User{ID: "u1", Role: talent.RoleTalent}, nil).Once()

	payload := talent.RegistrationPayload{Email: "a@b.com", Password: "secret1", Role: talent.RoleTalent}

	done := make(chan bool, 1)
	go func() {
		done <- f.ctrl.Register(ctx, payload)
	}()

	<-started
	require.True(t, f.ctrl.Login(ctx, "a@b.com", "pw", ""))
	close(release)

	assert.False(t, <-done)

	s := f.ctrl.Snapshot()
	assert.True(t, f.ctrl.IsAuthenticated())
	assert.Empty(t, s.Error)
	assert.Equal(t, 0, f.store.Clears())
	assert.Equal(t, []string{"Login successful! Redirecting..."}, f.notifier.Messages())
}

func TestGuardUsesControllerClock(t *testing.T) {
	f := newControllerFixture("")
	exp := time.Now().Add(time.Hour)
	token := mintToken(t, "u1", talent.RoleTalent, exp)

	f.api.On("Login", mock.Anything, mock.Anything).Return(token, nil).Once()
	f.api.On("Me", mock.Anything).Return(&talent.User{ID: "u1", Role: talent.RoleTalent}, nil).Once()
	require.True(t, f.ctrl.Login(context.Background(), "a@b.com", "pw", ""))

	guard := talent.NewGuard(f.ctrl, defaultTestConfig())
	d, _ := guard.Check(talent.RoleTalent)
	assert.Equal(t, talent.DecisionAllow, d)

	f.ctrl.WithClock(func() time.Time { return exp.Add(time.Minute) })

	d, path := guard.Check(talent.RoleTalent)
	assert.Equal(t, talent.DecisionRedirectToLogin, d)
	assert.Equal(t, "/login", path)
	assert.False(t, f.ctrl.IsAuthenticated())
	assert.Equal(t, talent.DecisionAllow, talent.CanAccess(f.ctrl.Snapshot(), talent.RoleTalent))
}

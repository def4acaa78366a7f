package talent

import (
	"context"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-talent-session/notify"
)

const (
	msgLoginSuccess      = "Login successful! Redirecting..."
	msgLoginFailed       = "Login failed"
	msgRegisterSuccess   = "Registration successful! Welcome aboard."
	msgRegisterFailed    = "Registration failed. Please check network connection."
	msgLogoutSuccess     = "You have been logged out successfully"
	msgSessionExpired    = "Your session has expired. Please sign in again."
	defaultLoginPath     = "/login"
	defaultNoticeTimeout = notify.DefaultTimeout
)

var errStaleGeneration = goerrors.New("session operation superseded", goerrors.CategoryConflict).
	WithTextCode("SESSION_SUPERSEDED")

// Controller owns the session. Login, registration, restore and logout are
// the only writers; every other component reads Snapshot.
//
// Each network bound operation captures a generation number when it starts.
// A result whose generation is no longer current is dropped, so a late
// response never overrides a newer operation or a logout.
type Controller struct {
	api       SessionAPI
	store     CredentialStore
	attacher  CredentialAttacher
	inspector *TokenInspector
	notifier  Notifier
	navigator Navigator
	logger    Logger
	sink      ActivitySink
	sm        *SessionStateMachine
	now       func() time.Time

	loginPath     string
	noticeTimeout time.Duration

	mu          sync.RWMutex
	session     Session
	generation  uint64
	attached    string
	expiry      *time.Timer
	subscribers map[int]func(Session)
	nextSub     int
	logoutHooks []func(context.Context)
}

// NewController returns a controller in the initial loading state. Call
// RestoreSession once at startup to resolve it.
func NewController(api SessionAPI, store CredentialStore, cfg Config) *Controller {
	c := &Controller{
		api:           api,
		store:         store,
		attacher:      noopAttacher{},
		inspector:     defaultInspector,
		notifier:      noopNotifier{},
		navigator:     noopNavigator{},
		logger:        defLogger{},
		sink:          noopActivitySink{},
		sm:            NewSessionStateMachine(),
		now:           time.Now,
		loginPath:     defaultLoginPath,
		noticeTimeout: defaultNoticeTimeout,
		session:       initialSession(),
		subscribers:   make(map[int]func(Session)),
	}

	if cfg != nil {
		if p := cfg.GetLoginPath(); p != "" {
			c.loginPath = p
		}
		if t := cfg.GetNotificationTimeout(); t > 0 {
			c.noticeTimeout = t
		}
	}

	return c
}

func (c *Controller) WithLogger(logger Logger) *Controller {
	if logger != nil {
		c.logger = logger
	}
	return c
}

func (c *Controller) WithAttacher(attacher CredentialAttacher) *Controller {
	if attacher != nil {
		c.attacher = attacher
	}
	return c
}

func (c *Controller) WithNotifier(notifier Notifier) *Controller {
	if notifier != nil {
		c.notifier = notifier
	}
	return c
}

func (c *Controller) WithNavigator(navigator Navigator) *Controller {
	if navigator != nil {
		c.navigator = navigator
	}
	return c
}

func (c *Controller) WithActivitySink(sink ActivitySink) *Controller {
	c.sink = normalizeActivitySink(sink)
	return c
}

func (c *Controller) WithTokenInspector(inspector *TokenInspector) *Controller {
	if inspector != nil {
		c.inspector = inspector
	}
	return c
}

// WithClock injects a custom clock (useful for tests).
func (c *Controller) WithClock(now func() time.Time) *Controller {
	if now != nil {
		c.now = now
	}
	return c
}

// Snapshot returns a copy of the current session
func (c *Controller) Snapshot() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session.clone()
}

// IsAuthenticated evaluates the current session against the controller clock
func (c *Controller) IsAuthenticated() bool {
	return c.Snapshot().IsAuthenticatedAt(c.now())
}

// Now returns the controller clock. Guards built over the controller use it.
func (c *Controller) Now() time.Time {
	return c.now()
}

// Subscribe registers fn to receive a snapshot after every session change.
// The returned function unregisters it.
func (c *Controller) Subscribe(fn func(Session)) func() {
	if fn == nil {
		return func() {}
	}
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subscribers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subscribers, id)
		c.mu.Unlock()
	}
}

// OnLogout registers a hook run after every teardown, user initiated or forced.
func (c *Controller) OnLogout(fn func(context.Context)) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	c.logoutHooks = append(c.logoutHooks, fn)
	c.mu.Unlock()
}

// RestoreSession resolves the initial session from the credential store.
// It reports whether the session ended up authenticated.
func (c *Controller) RestoreSession(ctx context.Context) bool {
	token, ok, err := c.store.Read(ctx)
	if err != nil {
		c.logger.Warn("restore session: read credential: %v", err)
		ok = false
	}

	if !ok || strings.TrimSpace(token) == "" {
		c.settleAnonymous()
		return false
	}

	if err := c.inspector.CheckExpiry(token, c.now()); err != nil {
		reason := "credential_expired"
		if IsMalformedError(err) {
			reason = "credential_malformed"
		}
		c.logger.Info("restore session: stored credential unusable: %v", err)
		c.logout(ctx, reason, false)
		return false
	}

	gen := c.begin("restore")

	user, err := c.establish(ctx, gen, token, false)
	if err != nil {
		if isStale(err) {
			return false
		}
		c.logger.Warn("restore session: identity fetch failed: %v", err)
		if c.isCurrent(gen) {
			c.logout(ctx, "identity_unconfirmed", false)
		}
		return false
	}

	return c.commit(ctx, gen, token, user, ActivityEventRestored, "")
}

// Login exchanges credentials for a token and loads the identity. Failures
// are reported through the result and the session Error field.
func (c *Controller) Login(ctx context.Context, email, password string, role Role) bool {
	payload := LoginPayload{
		Email:    strings.TrimSpace(email),
		Password: password,
		Role:     role,
	}

	c.logger.Info("login attempt email=%s role=%s", payload.Email, payload.Role)

	gen := c.begin("login")

	token, err := c.api.Login(ctx, payload)
	if err == nil && strings.TrimSpace(token) == "" {
		err = ErrMissingToken.Clone()
	}
	if err != nil {
		c.fail(ctx, gen, err, msgLoginFailed, ActivityEventLoginFailure)
		return false
	}

	user, err := c.establish(ctx, gen, token, true)
	if err != nil {
		c.fail(ctx, gen, err, msgLoginFailed, ActivityEventLoginFailure)
		return false
	}

	return c.commit(ctx, gen, token, user, ActivityEventLoginSuccess, msgLoginSuccess)
}

// Register creates an account and signs it in. A missing or unknown role
// fails locally without a network call.
func (c *Controller) Register(ctx context.Context, payload RegistrationPayload) bool {
	payload.Email = strings.TrimSpace(payload.Email)
	payload.Role = Role(strings.TrimSpace(string(payload.Role)))

	c.logger.Info("register attempt email=%s role=%s", payload.Email, payload.Role)

	gen := c.begin("register")

	if err := payload.ValidateRole(); err != nil {
		c.fail(ctx, gen, err, msgRegisterFailed, ActivityEventRegisterFailure)
		return false
	}

	token, err := c.api.Register(ctx, payload)
	if err == nil && strings.TrimSpace(token) == "" {
		err = ErrMissingToken.Clone()
	}
	if err != nil {
		c.fail(ctx, gen, err, msgRegisterFailed, ActivityEventRegisterFailure)
		return false
	}

	user, err := c.establish(ctx, gen, token, true)
	if err != nil {
		c.fail(ctx, gen, err, msgRegisterFailed, ActivityEventRegisterFailure)
		return false
	}

	return c.commit(ctx, gen, token, user, ActivityEventRegisterSuccess, msgRegisterSuccess)
}

// Logout clears the credential and resets the session. Safe to call
// repeatedly.
func (c *Controller) Logout(ctx context.Context) {
	c.logout(ctx, "user", true)
}

// Invalidate tears the session down after the API rejected the credential.
// It does not navigate; the request pipeline owns the redirect. It reports
// whether there was a session or credential to tear down.
func (c *Controller) Invalidate(ctx context.Context) bool {
	c.mu.Lock()
	had := c.attached != "" || c.session.User != nil || c.session.Token != ""
	if !had {
		c.mu.Unlock()
		c.clearCredential(ctx)
		return false
	}

	c.generation++
	prev := c.session
	c.teardownLocked(ctx)
	snapshot, subs, hooks := c.publishLocked()
	c.mu.Unlock()

	c.logger.Warn("session invalidated, credential rejected or expired")
	publish(subs, snapshot)
	runHooks(ctx, hooks)

	c.record(ctx, ActivityEvent{
		EventType: ActivityEventForcedLogout,
		UserID:    userID(prev.User),
		Role:      prev.Role(),
		FromState: prev.State,
		ToState:   SessionAnonymous,
	})
	c.notifier.Push(msgSessionExpired, notify.SeverityWarning, c.noticeTimeout)

	return true
}

// ForceLogout invalidates the session and navigates to the login entry point.
func (c *Controller) ForceLogout(ctx context.Context) {
	if c.Invalidate(ctx) {
		c.navigator.Navigate(c.loginPath)
	}
}

func (c *Controller) logout(ctx context.Context, reason string, announce bool) {
	c.mu.Lock()
	c.generation++
	prev := c.session
	c.teardownLocked(ctx)
	snapshot, subs, hooks := c.publishLocked()
	c.mu.Unlock()

	publish(subs, snapshot)
	runHooks(ctx, hooks)

	if prev.User == nil {
		return
	}

	c.logger.Info("logout user=%s reason=%s", prev.User.ID, reason)
	c.record(ctx, ActivityEvent{
		EventType: ActivityEventLogout,
		UserID:    prev.User.ID,
		Role:      prev.User.Role,
		FromState: prev.State,
		ToState:   SessionAnonymous,
		Metadata:  map[string]any{"reason": reason},
	})

	if announce {
		c.notifier.Push(msgLogoutSuccess, notify.SeveritySuccess, c.noticeTimeout)
	}
}

// begin starts a network bound operation: bumps the generation, enters
// loading and clears the previous error. The previous credential is
// detached, so a 401 answering this operation is reported by the operation
// itself instead of being taken for a rejected session.
func (c *Controller) begin(op string) uint64 {
	c.mu.Lock()
	c.generation++
	gen := c.generation

	c.transitionLocked(SessionLoading, op)
	c.stopExpiryLocked()
	c.attacher.Detach()
	c.attached = ""
	c.session = Session{
		State:   SessionLoading,
		Loading: true,
	}
	snapshot, subs, _ := c.publishLocked()
	c.mu.Unlock()

	publish(subs, snapshot)
	return gen
}

// establish persists (optionally) and attaches token, then confirms the
// identity with the API.
func (c *Controller) establish(ctx context.Context, gen uint64, token string, persist bool) (*User, error) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return nil, errStaleGeneration
	}
	if persist {
		if err := c.store.Save(ctx, token); err != nil {
			c.mu.Unlock()
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist credential")
		}
	}
	c.attacher.Attach(token)
	c.attached = token
	c.mu.Unlock()

	user, err := c.api.Me(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUnauthorized.Clone().WithMetadata(map[string]any{
			"reason": "empty identity",
		})
	}
	return user, nil
}

func (c *Controller) commit(ctx context.Context, gen uint64, token string, user *User, event ActivityEventType, notice string) bool {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		c.logger.Debug("discarding superseded %s result", event)
		return false
	}

	from := c.session.State
	c.transitionLocked(SessionAuthenticated, string(event))

	exp, err := c.inspector.DecodeExpiry(token)
	if err != nil {
		exp = time.Time{}
	}

	u := *user
	c.session = Session{
		State:     SessionAuthenticated,
		User:      &u,
		Token:     token,
		ExpiresAt: exp,
	}
	c.scheduleExpiryLocked(gen, exp)
	snapshot, subs, _ := c.publishLocked()
	c.mu.Unlock()

	publish(subs, snapshot)

	c.logger.Info("session authenticated user=%s role=%s", u.ID, u.Role)
	c.record(ctx, ActivityEvent{
		EventType: event,
		UserID:    u.ID,
		Role:      u.Role,
		FromState: from,
		ToState:   SessionAuthenticated,
	})

	if notice != "" {
		c.notifier.Push(notice, notify.SeveritySuccess, c.noticeTimeout)
	}
	return true
}

// fail collapses the operation to anonymous with the error message attached.
func (c *Controller) fail(ctx context.Context, gen uint64, err error, fallback string, event ActivityEventType) {
	if isStale(err) {
		return
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		c.logger.Debug("discarding superseded %s result: %v", event, err)
		return
	}

	msg := ErrorMessage(err, fallback)
	from := c.session.State
	c.teardownLocked(ctx)
	c.session.Error = msg
	snapshot, subs, _ := c.publishLocked()
	c.mu.Unlock()

	publish(subs, snapshot)

	c.logger.Error("%s: %v", event, err)
	c.record(ctx, ActivityEvent{
		EventType: event,
		FromState: from,
		ToState:   SessionAnonymous,
		Metadata: map[string]any{
			"error":  msg,
			"status": StatusCode(err),
		},
	})
	c.notifier.Push(msg, notify.SeverityError, c.noticeTimeout)
}

func (c *Controller) settleAnonymous() {
	c.mu.Lock()
	c.generation++
	c.transitionLocked(SessionAnonymous, "no_credential")
	c.session = anonymousSession("")
	snapshot, subs, _ := c.publishLocked()
	c.mu.Unlock()

	publish(subs, snapshot)
}

func (c *Controller) isCurrent(gen uint64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return gen == c.generation
}

// teardownLocked clears the credential everywhere and resets the session.
// c.mu must be held.
func (c *Controller) teardownLocked(ctx context.Context) {
	c.clearCredential(ctx)
	c.attacher.Detach()
	c.attached = ""
	c.stopExpiryLocked()
	c.transitionLocked(SessionAnonymous, "teardown")
	c.session = anonymousSession("")
}

func (c *Controller) clearCredential(ctx context.Context) {
	if err := c.store.Clear(ctx); err != nil {
		c.logger.Error("clear credential: %v", err)
	}
}

func (c *Controller) transitionLocked(to SessionState, reason string) {
	tc, err := c.sm.Transition(c.session.State, to, WithTransitionReason(reason))
	if err != nil {
		c.logger.Warn("session transition %s -> %s: %v", c.session.State, to, err)
		return
	}
	if tc.From != tc.To {
		c.logger.Debug("session transition %s -> %s %v", tc.From, tc.To, transitionMetadata(tc.Meta))
	}
}

func (c *Controller) scheduleExpiryLocked(gen uint64, exp time.Time) {
	c.stopExpiryLocked()
	if exp.IsZero() {
		return
	}
	c.expiry = time.AfterFunc(exp.Sub(c.now()), func() {
		if !c.isCurrent(gen) {
			return
		}
		c.logger.Info("session credential expired")
		c.ForceLogout(context.Background())
	})
}

func (c *Controller) stopExpiryLocked() {
	if c.expiry != nil {
		c.expiry.Stop()
		c.expiry = nil
	}
}

func (c *Controller) publishLocked() (Session, []func(Session), []func(context.Context)) {
	snapshot := c.session.clone()

	subs := make([]func(Session), 0, len(c.subscribers))
	for i := 0; i < c.nextSub; i++ {
		if fn, ok := c.subscribers[i]; ok {
			subs = append(subs, fn)
		}
	}

	hooks := make([]func(context.Context), len(c.logoutHooks))
	copy(hooks, c.logoutHooks)

	return snapshot, subs, hooks
}

func (c *Controller) record(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = c.now()
	}
	if err := c.sink.Record(ctx, event); err != nil {
		c.logger.Warn("session activity sink error: %v", err)
	}
}

func publish(subs []func(Session), snapshot Session) {
	for _, fn := range subs {
		fn(snapshot.clone())
	}
}

func runHooks(ctx context.Context, hooks []func(context.Context)) {
	for _, fn := range hooks {
		fn(ctx)
	}
}

func isStale(err error) bool {
	return hasTextCode(err, "SESSION_SUPERSEDED")
}

func userID(u *User) string {
	if u == nil {
		return ""
	}
	return u.ID
}

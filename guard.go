package talent

import "time"

// Decision is the outcome of an access check
type Decision int

const (
	// DecisionPending means the session is still resolving; render a waiting
	// indicator and make no redirect yet.
	DecisionPending Decision = iota
	DecisionAllow
	DecisionRedirectToLogin
	DecisionRedirectToHome
)

func (d Decision) String() string {
	switch d {
	case DecisionPending:
		return "pending"
	case DecisionAllow:
		return "allow"
	case DecisionRedirectToLogin:
		return "redirectToLogin"
	case DecisionRedirectToHome:
		return "redirectToHome"
	default:
		return "unknown"
	}
}

// CanAccess decides whether session may enter a view that requires role.
// Rules apply in order: loading, authentication, role.
func CanAccess(s Session, required Role) Decision {
	return CanAccessAt(s, required, time.Now())
}

// CanAccessAt is CanAccess with credential expiry evaluated at now.
func CanAccessAt(s Session, required Role, now time.Time) Decision {
	if s.Loading {
		return DecisionPending
	}
	if !s.IsAuthenticatedAt(now) {
		return DecisionRedirectToLogin
	}
	if !s.User.Role.Satisfies(required) {
		return DecisionRedirectToHome
	}
	return DecisionAllow
}

// Guard resolves access decisions into navigation targets.
type Guard struct {
	view      SessionView
	now       func() time.Time
	loginPath string
	homePath  string
}

type clockedView interface {
	Now() time.Time
}

// NewGuard builds a guard over the session view. Paths come from config,
// falling back to /login and /. A view that exposes Now (the Controller
// does) supplies the clock for expiry checks.
func NewGuard(view SessionView, cfg Config) *Guard {
	g := &Guard{
		view:      view,
		now:       time.Now,
		loginPath: "/login",
		homePath:  "/",
	}
	if cv, ok := view.(clockedView); ok {
		g.now = cv.Now
	}
	if cfg != nil {
		if p := cfg.GetLoginPath(); p != "" {
			g.loginPath = p
		}
		if p := cfg.GetHomePath(); p != "" {
			g.homePath = p
		}
	}
	return g
}

// Check evaluates the current session against required. The returned path
// is empty unless the decision is a redirect.
func (g *Guard) Check(required Role) (Decision, string) {
	d := CanAccessAt(g.view.Snapshot(), required, g.now())
	switch d {
	case DecisionRedirectToLogin:
		return d, g.loginPath
	case DecisionRedirectToHome:
		return d, g.homePath
	default:
		return d, ""
	}
}

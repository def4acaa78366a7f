package talent

import "context"

var sessionCtxKey = &contextKey{"session"}

type contextKey struct {
	name string
}

func (k *contextKey) String() string {
	return "talent context value " + k.name
}

// WithSession returns a context carrying the read-only session view
func WithSession(ctx context.Context, view SessionView) context.Context {
	return context.WithValue(ctx, sessionCtxKey, view)
}

// SessionFromContext returns the session view stored by WithSession
func SessionFromContext(ctx context.Context) (SessionView, bool) {
	if ctx == nil {
		return nil, false
	}
	view, ok := ctx.Value(sessionCtxKey).(SessionView)
	return view, ok && view != nil
}

// CurrentSession is a shortcut that snapshots the view in ctx. The zero
// Session is returned when none is present.
func CurrentSession(ctx context.Context) (Session, bool) {
	view, ok := SessionFromContext(ctx)
	if !ok {
		return Session{}, false
	}
	return view.Snapshot(), true
}

package talent

// TransitionMetadata captures extra context for a transition.
type TransitionMetadata struct {
	Reason   string
	Metadata map[string]any
}

// TransitionContext describes an accepted transition.
type TransitionContext struct {
	From SessionState
	To   SessionState
	Meta TransitionMetadata
}

// TransitionOption customizes state machine behavior.
type TransitionOption func(*transitionOptions)

// WithTransitionReason sets the human-readable reason for the transition.
func WithTransitionReason(reason string) TransitionOption {
	return func(opts *transitionOptions) {
		opts.metadata.Reason = reason
	}
}

// WithTransitionMetadata merges metadata into the transition context.
func WithTransitionMetadata(metadata map[string]any) TransitionOption {
	return func(opts *transitionOptions) {
		if len(metadata) == 0 {
			return
		}
		if opts.metadata.Metadata == nil {
			opts.metadata.Metadata = make(map[string]any, len(metadata))
		}
		for k, v := range metadata {
			opts.metadata.Metadata[k] = v
		}
	}
}

// WithForceTransition bypasses validation rules (use sparingly).
func WithForceTransition() TransitionOption {
	return func(opts *transitionOptions) {
		opts.force = true
	}
}

// SessionStateMachine validates session state changes. Network bound
// operations always pass through loading; teardown may happen from any state.
type SessionStateMachine struct {
	transitions map[SessionState]map[SessionState]struct{}
}

// NewSessionStateMachine returns the default session lifecycle.
func NewSessionStateMachine() *SessionStateMachine {
	return &SessionStateMachine{
		transitions: map[SessionState]map[SessionState]struct{}{
			SessionAnonymous: {
				SessionLoading: {},
			},
			SessionLoading: {
				SessionAuthenticated: {},
				SessionAnonymous:     {},
			},
			SessionAuthenticated: {
				SessionAnonymous: {},
				SessionLoading:   {},
			},
		},
	}
}

type transitionOptions struct {
	metadata TransitionMetadata
	force    bool
}

func (o *transitionOptions) cloneMetadata() TransitionMetadata {
	var cloned map[string]any
	if len(o.metadata.Metadata) > 0 {
		cloned = make(map[string]any, len(o.metadata.Metadata))
		for k, v := range o.metadata.Metadata {
			cloned[k] = v
		}
	}

	return TransitionMetadata{
		Reason:   o.metadata.Reason,
		Metadata: cloned,
	}
}

// Transition checks the move from -> to. Staying in the same state is
// always accepted.
func (sm *SessionStateMachine) Transition(from, to SessionState, opts ...TransitionOption) (TransitionContext, error) {
	options := &transitionOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	tc := TransitionContext{
		From: from,
		To:   to,
		Meta: options.cloneMetadata(),
	}

	if to == "" {
		return tc, ErrInvalidTransition.Clone().WithMetadata(map[string]any{
			"reason": "target state is empty",
		})
	}

	if from == to {
		return tc, nil
	}

	if !options.force && !sm.CanTransition(from, to) {
		return tc, ErrInvalidTransition.Clone().WithMetadata(map[string]any{
			"from": from,
			"to":   to,
		})
	}

	return tc, nil
}

// CanTransition reports whether from -> to is part of the lifecycle
func (sm *SessionStateMachine) CanTransition(from, to SessionState) bool {
	if allowed, ok := sm.transitions[from]; ok {
		_, exists := allowed[to]
		return exists
	}
	return false
}

func transitionMetadata(meta TransitionMetadata) map[string]any {
	if meta.Reason == "" && len(meta.Metadata) == 0 {
		return nil
	}

	result := map[string]any{}
	if meta.Reason != "" {
		result["reason"] = meta.Reason
	}
	for k, v := range meta.Metadata {
		result[k] = v
	}
	return result
}

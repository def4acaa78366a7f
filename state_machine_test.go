package talent_test

import (
	"testing"

	talent "github.com/goliatone/go-talent-session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStateMachineAllowsLifecycle(t *testing.T) {
	sm := talent.NewSessionStateMachine()

	steps := [][2]talent.SessionState{
		{talent.SessionAnonymous, talent.SessionLoading},
		{talent.SessionLoading, talent.SessionAuthenticated},
		{talent.SessionAuthenticated, talent.SessionAnonymous},
		{talent.SessionLoading, talent.SessionAnonymous},
		{talent.SessionAuthenticated, talent.SessionLoading},
	}

	for _, step := range steps {
		_, err := sm.Transition(step[0], step[1])
		assert.NoError(t, err, "%s -> %s", step[0], step[1])
	}
}

func TestSessionStateMachineRejectsSkippingLoading(t *testing.T) {
	sm := talent.NewSessionStateMachine()

	_, err := sm.Transition(talent.SessionAnonymous, talent.SessionAuthenticated)
	require.Error(t, err)
	assert.False(t, sm.CanTransition(talent.SessionAnonymous, talent.SessionAuthenticated))
}

func TestSessionStateMachineSameStateIsNoop(t *testing.T) {
	sm := talent.NewSessionStateMachine()

	tc, err := sm.Transition(talent.SessionLoading, talent.SessionLoading)
	require.NoError(t, err)
	assert.Equal(t, talent.SessionLoading, tc.To)
}

func TestSessionStateMachineForceAndMetadata(t *testing.T) {
	sm := talent.NewSessionStateMachine()

	tc, err := sm.Transition(
		talent.SessionAnonymous,
		talent.SessionAuthenticated,
		talent.WithForceTransition(),
		talent.WithTransitionReason("import"),
		talent.WithTransitionMetadata(map[string]any{"source": "test"}),
	)
	require.NoError(t, err)
	assert.Equal(t, "import", tc.Meta.Reason)
	assert.Equal(t, "test", tc.Meta.Metadata["source"])
}

func TestSessionStateMachineRejectsEmptyTarget(t *testing.T) {
	_, err := talent.NewSessionStateMachine().Transition(talent.SessionAnonymous, "")
	require.Error(t, err)
}

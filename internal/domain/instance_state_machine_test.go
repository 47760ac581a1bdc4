package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flowgate/backend/pkg/constants"
)

func TestInstanceStateMachine_Transitions(t *testing.T) {
	sm := NewInstanceStateMachine()

	tests := []struct {
		name        string
		from        constants.InstanceStatus
		event       InstanceTransition
		expectedTo  constants.InstanceStatus
		shouldError bool
	}{
		// Valid transitions
		{"ACTIVE -> COMPLETED via Complete", constants.InstanceStatusActive, TransitionComplete, constants.InstanceStatusCompleted, false},
		{"ACTIVE -> REJECTED via Reject", constants.InstanceStatusActive, TransitionReject, constants.InstanceStatusRejected, false},

		// Terminal states accept nothing
		{"COMPLETED -> Complete (terminal)", constants.InstanceStatusCompleted, TransitionComplete, constants.InstanceStatusCompleted, true},
		{"COMPLETED -> Reject (terminal)", constants.InstanceStatusCompleted, TransitionReject, constants.InstanceStatusCompleted, true},
		{"REJECTED -> Complete (terminal)", constants.InstanceStatusRejected, TransitionComplete, constants.InstanceStatusRejected, true},
		{"REJECTED -> Reject (terminal)", constants.InstanceStatusRejected, TransitionReject, constants.InstanceStatusRejected, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			newStatus, err := sm.Transition(tc.from, tc.event)

			if tc.shouldError {
				assert.Error(t, err)
				assert.Equal(t, tc.from, newStatus, "Status should not change on invalid transition")
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.expectedTo, newStatus)
			}
		})
	}
}

func TestInstanceStateMachine_CanTransition(t *testing.T) {
	sm := NewInstanceStateMachine()

	assert.True(t, sm.CanTransition(constants.InstanceStatusActive, TransitionComplete))
	assert.True(t, sm.CanTransition(constants.InstanceStatusActive, TransitionReject))
	assert.False(t, sm.CanTransition(constants.InstanceStatusCompleted, TransitionReject))
	assert.False(t, sm.CanTransition(constants.InstanceStatusRejected, TransitionComplete))
}

func TestInstanceStateMachine_IsTerminal(t *testing.T) {
	sm := NewInstanceStateMachine()

	assert.False(t, sm.IsTerminal(constants.InstanceStatusActive))
	assert.True(t, sm.IsTerminal(constants.InstanceStatusCompleted))
	assert.True(t, sm.IsTerminal(constants.InstanceStatusRejected))
}

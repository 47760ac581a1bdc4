package domain

import (
	"fmt"

	"github.com/flowgate/backend/pkg/constants"
)

// InstanceTransition represents an event that can change instance status
type InstanceTransition string

const (
	// TransitionComplete marks the workflow as satisfied (no further step)
	TransitionComplete InstanceTransition = "Complete"
	// TransitionReject terminally rejects the instance
	TransitionReject InstanceTransition = "Reject"
)

// InstanceStateMachine enforces valid status transitions for workflow
// instances. Invalid transitions return an error (fail-fast approach).
//
// State diagram:
//
//	       [ACTIVE]
//	       /      \
//	  Complete   Reject
//	     /          \
//	    ▼            ▼
//	[COMPLETED]  [REJECTED]
//
// COMPLETED and REJECTED are terminal. Advancing between steps and routing
// to a rejection target keep the instance ACTIVE and are not status events.
type InstanceStateMachine struct {
	// transitions maps (current status, transition) -> next status
	transitions map[statusTransitionKey]constants.InstanceStatus
}

type statusTransitionKey struct {
	status     constants.InstanceStatus
	transition InstanceTransition
}

// NewInstanceStateMachine creates a new state machine with the instance
// lifecycle rules
func NewInstanceStateMachine() *InstanceStateMachine {
	sm := &InstanceStateMachine{
		transitions: make(map[statusTransitionKey]constants.InstanceStatus),
	}

	sm.addTransition(constants.InstanceStatusActive, TransitionComplete, constants.InstanceStatusCompleted)
	sm.addTransition(constants.InstanceStatusActive, TransitionReject, constants.InstanceStatusRejected)

	return sm
}

func (sm *InstanceStateMachine) addTransition(from constants.InstanceStatus, via InstanceTransition, to constants.InstanceStatus) {
	key := statusTransitionKey{status: from, transition: via}
	sm.transitions[key] = to
}

// Transition attempts to transition from the current status using the given
// event. Returns the new status or an error if the transition is invalid.
func (sm *InstanceStateMachine) Transition(current constants.InstanceStatus, event InstanceTransition) (constants.InstanceStatus, error) {
	key := statusTransitionKey{status: current, transition: event}
	next, ok := sm.transitions[key]
	if !ok {
		return current, fmt.Errorf("invalid status transition: cannot %s from %s", event, current)
	}
	return next, nil
}

// CanTransition checks if a transition is valid without performing it.
func (sm *InstanceStateMachine) CanTransition(current constants.InstanceStatus, event InstanceTransition) bool {
	key := statusTransitionKey{status: current, transition: event}
	_, ok := sm.transitions[key]
	return ok
}

// IsTerminal returns true if the status allows no further actions.
func (sm *InstanceStateMachine) IsTerminal(status constants.InstanceStatus) bool {
	return status == constants.InstanceStatusCompleted || status == constants.InstanceStatusRejected
}

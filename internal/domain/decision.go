package domain

import (
	"github.com/flowgate/backend/internal/domain/models"
	"github.com/flowgate/backend/pkg/constants"
)

// DecisionKind classifies the outcome of transition evaluation.
type DecisionKind string

const (
	// DecisionAdvance moves the instance forward to NextStep.
	DecisionAdvance DecisionKind = "Advance"
	// DecisionTerminal closes the instance with Outcome.
	DecisionTerminal DecisionKind = "Terminal"
	// DecisionRejectTo routes the instance back to NextStep; status stays ACTIVE.
	DecisionRejectTo DecisionKind = "RejectTo"
)

// NextStepDecision is what the transition engine computed for one action.
type NextStepDecision struct {
	Kind     DecisionKind
	NextStep *models.WorkflowStep     // set for Advance and RejectTo
	Outcome  constants.InstanceStatus // set for Terminal
}

// Advance builds an Advance decision.
func Advance(step *models.WorkflowStep) NextStepDecision {
	return NextStepDecision{Kind: DecisionAdvance, NextStep: step}
}

// Terminal builds a Terminal decision with the given closing status.
func Terminal(outcome constants.InstanceStatus) NextStepDecision {
	return NextStepDecision{Kind: DecisionTerminal, Outcome: outcome}
}

// RejectTo builds a RejectTo decision.
func RejectTo(step *models.WorkflowStep) NextStepDecision {
	return NextStepDecision{Kind: DecisionRejectTo, NextStep: step}
}

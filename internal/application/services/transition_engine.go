package services

import (
	"context"
	"fmt"

	"github.com/flowgate/backend/internal/domain"
	"github.com/flowgate/backend/internal/domain/models"
	"github.com/flowgate/backend/internal/domain/ports"
	"github.com/flowgate/backend/pkg/constants"
	appErrors "github.com/flowgate/backend/pkg/errors"
	"github.com/flowgate/backend/pkg/expression"
)

// ActionContext carries the parts of an action submission that condition
// predicates may inspect.
type ActionContext struct {
	Comments          string
	DataModifications map[string]interface{}
}

// TransitionEngine is the decision core: given an instance's current step
// and an incoming action it computes where the instance goes next. It only
// reads; applying the decision is the instance service's job.
type TransitionEngine struct {
	exprs *expression.Engine
}

// NewTransitionEngine creates a new TransitionEngine
func NewTransitionEngine(exprs *expression.Engine) *TransitionEngine {
	return &TransitionEngine{exprs: exprs}
}

// ComputeNext evaluates the step's transition graph for the given action.
//
//   - REJECT with a configured rejection target routes there (status stays
//     ACTIVE); without one the instance is terminally REJECTED.
//   - APPROVE walks the step's outgoing transitions in ascending seq order
//     and takes the first satisfied one; none satisfied means the workflow
//     is COMPLETED.
//   - MODIFY never moves the instance.
func (e *TransitionEngine) ComputeNext(
	ctx context.Context,
	templates ports.TemplateStore,
	instance *models.WorkflowInstance,
	step *models.WorkflowStep,
	actionType constants.ActionType,
	actionCtx ActionContext,
) (domain.NextStepDecision, error) {
	switch actionType {
	case constants.ActionReject:
		return e.computeRejection(ctx, templates, step)
	case constants.ActionApprove:
		return e.computeApproval(ctx, templates, instance, step, actionCtx)
	case constants.ActionModify:
		// The instance service handles MODIFY without consulting the graph;
		// a modify never changes the current step.
		return domain.NextStepDecision{}, fmt.Errorf("modify actions do not transition")
	}
	return domain.NextStepDecision{}, fmt.Errorf("unknown action type %q", actionType)
}

func (e *TransitionEngine) computeRejection(ctx context.Context, templates ports.TemplateStore, step *models.WorkflowStep) (domain.NextStepDecision, error) {
	if step.RejectionStepID == nil {
		return domain.Terminal(constants.InstanceStatusRejected), nil
	}

	target, err := templates.GetStep(ctx, *step.RejectionStepID)
	if err != nil {
		return domain.NextStepDecision{}, appErrors.NewInternalError("failed to load rejection target", err)
	}
	if target == nil || target.TemplateID != step.TemplateID {
		// Foreign keys make this unreachable short of manual data surgery.
		return domain.NextStepDecision{}, appErrors.NewInternalError(
			fmt.Sprintf("step '%s' has rejection target outside its template", step.ID), nil)
	}
	return domain.RejectTo(target), nil
}

func (e *TransitionEngine) computeApproval(
	ctx context.Context,
	templates ports.TemplateStore,
	instance *models.WorkflowInstance,
	step *models.WorkflowStep,
	actionCtx ActionContext,
) (domain.NextStepDecision, error) {
	transitions, err := templates.ListOutgoingTransitions(ctx, step.ID)
	if err != nil {
		return domain.NextStepDecision{}, appErrors.NewInternalError("failed to load outgoing transitions", err)
	}

	for _, tr := range transitions {
		satisfied, err := e.isSatisfied(tr, instance, actionCtx)
		if err != nil {
			return domain.NextStepDecision{}, err
		}
		if !satisfied {
			continue
		}

		next, err := templates.GetStep(ctx, tr.ToStepID)
		if err != nil {
			return domain.NextStepDecision{}, appErrors.NewInternalError("failed to load destination step", err)
		}
		if next == nil {
			return domain.NextStepDecision{}, appErrors.NewInternalError(
				fmt.Sprintf("transition '%s' points to missing step '%s'", tr.ID, tr.ToStepID), nil)
		}
		return domain.Advance(next), nil
	}

	// No satisfied outgoing transition: the workflow is satisfied.
	return domain.Terminal(constants.InstanceStatusCompleted), nil
}

// isSatisfied evaluates one transition's condition. An unconditioned
// transition is always satisfied.
func (e *TransitionEngine) isSatisfied(tr models.WorkflowStepTransition, instance *models.WorkflowInstance, actionCtx ActionContext) (bool, error) {
	cond, err := domain.ParseCondition(tr.ConditionType, tr.ConditionValue)
	if err != nil {
		// Unknown kinds are rejected at template creation; hitting one here
		// means stored data predates the check.
		return false, appErrors.NewInternalError(fmt.Sprintf("transition '%s': %v", tr.ID, err), nil)
	}
	if cond == nil {
		return true, nil
	}

	switch cond.Type {
	case constants.ConditionExpression:
		env := map[string]interface{}{
			"entity_type": instance.EntityType,
			"entity_id":   instance.EntityID,
			"comments":    actionCtx.Comments,
			"data":        actionCtx.DataModifications,
		}
		result, err := e.exprs.EvaluateBool(cond.Expression, env)
		if err != nil {
			return false, appErrors.NewInternalError(fmt.Sprintf("transition '%s' condition failed", tr.ID), err)
		}
		return result, nil

	case constants.ConditionEquals:
		if actionCtx.DataModifications == nil {
			return false, nil
		}
		actual, ok := actionCtx.DataModifications[cond.Field]
		if !ok {
			return false, nil
		}
		return looseEqual(actual, cond.Value), nil
	}

	return false, appErrors.NewInternalError(fmt.Sprintf("transition '%s' has unhandled condition type", tr.ID), nil)
}

// looseEqual compares two JSON-decoded values. Numbers arrive as different
// Go types depending on the decoder, so fall back to string rendering.
func looseEqual(a, b interface{}) bool {
	if a == b {
		return true
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

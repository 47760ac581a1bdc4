package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/flowgate/backend/internal/domain"
	"github.com/flowgate/backend/internal/domain/models"
	"github.com/flowgate/backend/pkg/constants"
	"github.com/flowgate/backend/pkg/expression"
)

func strPtr(s string) *string { return &s }

func testInstance() *models.WorkflowInstance {
	stepID := "step-1"
	assigneeID := "user-1"
	return &models.WorkflowInstance{
		ID:                "inst-1",
		TemplateID:        "tmpl-1",
		CurrentStepID:     &stepID,
		CurrentAssigneeID: &assigneeID,
		EntityType:        "PurchaseOrder",
		EntityID:          "po-42",
		Status:            constants.InstanceStatusActive,
	}
}

func TestComputeNext_RejectWithoutTarget(t *testing.T) {
	templates := new(MockTemplateStore)
	engine := NewTransitionEngine(expression.NewEngine())

	step := &models.WorkflowStep{ID: "step-1", TemplateID: "tmpl-1"}

	decision, err := engine.ComputeNext(context.Background(), templates, testInstance(), step, constants.ActionReject, ActionContext{})

	assert.NoError(t, err)
	assert.Equal(t, domain.DecisionTerminal, decision.Kind)
	assert.Equal(t, constants.InstanceStatusRejected, decision.Outcome)
	templates.AssertNotCalled(t, "GetStep", mock.Anything, mock.Anything)
}

func TestComputeNext_RejectWithTarget(t *testing.T) {
	templates := new(MockTemplateStore)
	engine := NewTransitionEngine(expression.NewEngine())

	target := &models.WorkflowStep{ID: "step-0", TemplateID: "tmpl-1", RoleID: "role-employee"}
	step := &models.WorkflowStep{ID: "step-1", TemplateID: "tmpl-1", RejectionStepID: strPtr("step-0")}

	templates.On("GetStep", mock.Anything, "step-0").Return(target, nil).Once()

	decision, err := engine.ComputeNext(context.Background(), templates, testInstance(), step, constants.ActionReject, ActionContext{})

	assert.NoError(t, err)
	assert.Equal(t, domain.DecisionRejectTo, decision.Kind)
	assert.Equal(t, "step-0", decision.NextStep.ID)
	templates.AssertExpectations(t)
}

func TestComputeNext_RejectTargetOutsideTemplate(t *testing.T) {
	templates := new(MockTemplateStore)
	engine := NewTransitionEngine(expression.NewEngine())

	foreign := &models.WorkflowStep{ID: "step-x", TemplateID: "tmpl-other"}
	step := &models.WorkflowStep{ID: "step-1", TemplateID: "tmpl-1", RejectionStepID: strPtr("step-x")}

	templates.On("GetStep", mock.Anything, "step-x").Return(foreign, nil).Once()

	_, err := engine.ComputeNext(context.Background(), templates, testInstance(), step, constants.ActionReject, ActionContext{})

	assert.Error(t, err)
}

func TestComputeNext_ApproveNoTransitions(t *testing.T) {
	templates := new(MockTemplateStore)
	engine := NewTransitionEngine(expression.NewEngine())

	step := &models.WorkflowStep{ID: "step-1", TemplateID: "tmpl-1"}

	templates.On("ListOutgoingTransitions", mock.Anything, "step-1").Return([]models.WorkflowStepTransition{}, nil).Once()

	decision, err := engine.ComputeNext(context.Background(), templates, testInstance(), step, constants.ActionApprove, ActionContext{})

	assert.NoError(t, err)
	assert.Equal(t, domain.DecisionTerminal, decision.Kind)
	assert.Equal(t, constants.InstanceStatusCompleted, decision.Outcome)
}

func TestComputeNext_ApproveUnconditionedTransition(t *testing.T) {
	templates := new(MockTemplateStore)
	engine := NewTransitionEngine(expression.NewEngine())

	step := &models.WorkflowStep{ID: "step-1", TemplateID: "tmpl-1"}
	next := &models.WorkflowStep{ID: "step-2", TemplateID: "tmpl-1", RoleID: "role-finance"}

	templates.On("ListOutgoingTransitions", mock.Anything, "step-1").Return([]models.WorkflowStepTransition{
		{ID: "tr-1", FromStepID: "step-1", ToStepID: "step-2", Seq: 1},
	}, nil).Once()
	templates.On("GetStep", mock.Anything, "step-2").Return(next, nil).Once()

	decision, err := engine.ComputeNext(context.Background(), templates, testInstance(), step, constants.ActionApprove, ActionContext{})

	assert.NoError(t, err)
	assert.Equal(t, domain.DecisionAdvance, decision.Kind)
	assert.Equal(t, "step-2", decision.NextStep.ID)
}

func TestComputeNext_ApproveFirstSatisfiedWins(t *testing.T) {
	templates := new(MockTemplateStore)
	engine := NewTransitionEngine(expression.NewEngine())

	step := &models.WorkflowStep{ID: "step-1", TemplateID: "tmpl-1"}
	high := &models.WorkflowStep{ID: "step-high", TemplateID: "tmpl-1"}

	// The first edge's condition fails, the second passes. Evaluation
	// follows seq order, so step-high wins over the later unconditioned edge.
	templates.On("ListOutgoingTransitions", mock.Anything, "step-1").Return([]models.WorkflowStepTransition{
		{
			ID: "tr-1", FromStepID: "step-1", ToStepID: "step-low", Seq: 1,
			ConditionType:  strPtr(string(constants.ConditionExpression)),
			ConditionValue: strPtr(`{"expression": "data.amount < 1000"}`),
		},
		{
			ID: "tr-2", FromStepID: "step-1", ToStepID: "step-high", Seq: 2,
			ConditionType:  strPtr(string(constants.ConditionExpression)),
			ConditionValue: strPtr(`{"expression": "data.amount >= 1000"}`),
		},
		{ID: "tr-3", FromStepID: "step-1", ToStepID: "step-default", Seq: 3},
	}, nil).Once()
	templates.On("GetStep", mock.Anything, "step-high").Return(high, nil).Once()

	decision, err := engine.ComputeNext(context.Background(), templates, testInstance(), step, constants.ActionApprove, ActionContext{
		DataModifications: map[string]interface{}{"amount": 5000},
	})

	assert.NoError(t, err)
	assert.Equal(t, domain.DecisionAdvance, decision.Kind)
	assert.Equal(t, "step-high", decision.NextStep.ID)
	templates.AssertNotCalled(t, "GetStep", mock.Anything, "step-low")
}

func TestComputeNext_ApproveEqualsCondition(t *testing.T) {
	templates := new(MockTemplateStore)
	engine := NewTransitionEngine(expression.NewEngine())

	step := &models.WorkflowStep{ID: "step-1", TemplateID: "tmpl-1"}
	next := &models.WorkflowStep{ID: "step-2", TemplateID: "tmpl-1"}

	transitions := []models.WorkflowStepTransition{
		{
			ID: "tr-1", FromStepID: "step-1", ToStepID: "step-2", Seq: 1,
			ConditionType:  strPtr(string(constants.ConditionEquals)),
			ConditionValue: strPtr(`{"field": "priority", "value": "urgent"}`),
		},
	}

	t.Run("Match", func(t *testing.T) {
		templates.On("ListOutgoingTransitions", mock.Anything, "step-1").Return(transitions, nil).Once()
		templates.On("GetStep", mock.Anything, "step-2").Return(next, nil).Once()

		decision, err := engine.ComputeNext(context.Background(), templates, testInstance(), step, constants.ActionApprove, ActionContext{
			DataModifications: map[string]interface{}{"priority": "urgent"},
		})

		assert.NoError(t, err)
		assert.Equal(t, domain.DecisionAdvance, decision.Kind)
	})

	t.Run("No match falls through to completion", func(t *testing.T) {
		templates.On("ListOutgoingTransitions", mock.Anything, "step-1").Return(transitions, nil).Once()

		decision, err := engine.ComputeNext(context.Background(), templates, testInstance(), step, constants.ActionApprove, ActionContext{
			DataModifications: map[string]interface{}{"priority": "normal"},
		})

		assert.NoError(t, err)
		assert.Equal(t, domain.DecisionTerminal, decision.Kind)
		assert.Equal(t, constants.InstanceStatusCompleted, decision.Outcome)
	})

	t.Run("Missing field is no match", func(t *testing.T) {
		templates.On("ListOutgoingTransitions", mock.Anything, "step-1").Return(transitions, nil).Once()

		decision, err := engine.ComputeNext(context.Background(), templates, testInstance(), step, constants.ActionApprove, ActionContext{})

		assert.NoError(t, err)
		assert.Equal(t, domain.DecisionTerminal, decision.Kind)
	})
}

func TestComputeNext_ExpressionSeesEntityContext(t *testing.T) {
	templates := new(MockTemplateStore)
	engine := NewTransitionEngine(expression.NewEngine())

	step := &models.WorkflowStep{ID: "step-1", TemplateID: "tmpl-1"}
	next := &models.WorkflowStep{ID: "step-2", TemplateID: "tmpl-1"}

	templates.On("ListOutgoingTransitions", mock.Anything, "step-1").Return([]models.WorkflowStepTransition{
		{
			ID: "tr-1", FromStepID: "step-1", ToStepID: "step-2", Seq: 1,
			ConditionType:  strPtr(string(constants.ConditionExpression)),
			ConditionValue: strPtr(`{"expression": "entity_type == 'PurchaseOrder'"}`),
		},
	}, nil).Once()
	templates.On("GetStep", mock.Anything, "step-2").Return(next, nil).Once()

	decision, err := engine.ComputeNext(context.Background(), templates, testInstance(), step, constants.ActionApprove, ActionContext{})

	assert.NoError(t, err)
	assert.Equal(t, domain.DecisionAdvance, decision.Kind)
}

func TestLooseEqual(t *testing.T) {
	assert.True(t, looseEqual("urgent", "urgent"))
	assert.True(t, looseEqual(float64(3), 3))
	assert.True(t, looseEqual(3, "3"))
	assert.False(t, looseEqual("urgent", "normal"))
}

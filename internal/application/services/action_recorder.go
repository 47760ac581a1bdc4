package services

import (
	"context"
	"time"

	"github.com/flowgate/backend/internal/domain/models"
	"github.com/flowgate/backend/internal/domain/ports"
	"github.com/flowgate/backend/pkg/constants"
	appErrors "github.com/flowgate/backend/pkg/errors"
	"github.com/flowgate/backend/pkg/utils"
)

// ActionRecorder appends immutable audit entries. Exactly one entry is
// written per accepted action submission, atomically with whatever state
// transition the action causes.
type ActionRecorder struct{}

// NewActionRecorder creates a new ActionRecorder
func NewActionRecorder() *ActionRecorder {
	return &ActionRecorder{}
}

// Record appends one audit row within the caller's transaction
func (r *ActionRecorder) Record(
	ctx context.Context,
	actions ports.ActionStore,
	instance *models.WorkflowInstance,
	step *models.WorkflowStep,
	actorID string,
	actionType constants.ActionType,
	comments string,
	dataModifications map[string]interface{},
) (*models.WorkflowAction, error) {
	action := &models.WorkflowAction{
		ID:                utils.GenerateID(),
		InstanceID:        instance.ID,
		StepID:            step.ID,
		ActorID:           actorID,
		ActionType:        actionType,
		Comments:          comments,
		DataModifications: dataModifications,
		ActionDate:        time.Now().UTC(),
	}
	if err := actions.Insert(ctx, action); err != nil {
		return nil, appErrors.NewInternalError("failed to record action", err)
	}
	return action, nil
}

// ListActions returns an instance's audit log ordered by timestamp ascending
func (r *ActionRecorder) ListActions(ctx context.Context, actions ports.ActionStore, instanceID string) ([]*models.WorkflowAction, error) {
	list, err := actions.ListByInstance(ctx, instanceID)
	if err != nil {
		return nil, appErrors.NewInternalError("failed to list actions", err)
	}
	return list, nil
}

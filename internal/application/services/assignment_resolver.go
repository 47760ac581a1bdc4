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

// AssignmentResolver selects an eligible assignee for a step's required role
// and maintains the append-only assignment history. Resolution is a pure
// read; callers pass stores already bound to the enclosing transaction.
type AssignmentResolver struct{}

// NewAssignmentResolver creates a new AssignmentResolver
func NewAssignmentResolver() *AssignmentResolver {
	return &AssignmentResolver{}
}

// ResolveAssignee picks the eligible user for a role. The policy is
// deterministic: earliest-created active holder, ties broken by ascending id.
func (r *AssignmentResolver) ResolveAssignee(ctx context.Context, directory ports.DirectoryStore, roleID string) (*models.User, error) {
	user, err := directory.FindFirstEligible(ctx, roleID)
	if err != nil {
		return nil, appErrors.NewInternalError("failed to resolve assignee", err)
	}
	if user == nil {
		return nil, appErrors.NewNoEligibleAssigneeError(roleID)
	}
	return user, nil
}

// CreateAssignment appends a PENDING assignment row for the given step and
// assignee.
func (r *AssignmentResolver) CreateAssignment(ctx context.Context, assignments ports.AssignmentStore, instanceID, stepID, assigneeID string, now time.Time) (*models.WorkflowStepAssignment, error) {
	assignment := &models.WorkflowStepAssignment{
		ID:           utils.GenerateID(),
		InstanceID:   instanceID,
		StepID:       stepID,
		AssigneeID:   assigneeID,
		Status:       constants.AssignmentStatusPending,
		AssignedDate: now,
	}
	if err := assignments.Insert(ctx, assignment); err != nil {
		return nil, appErrors.NewInternalError("failed to create assignment", err)
	}
	return assignment, nil
}

// CompleteAssignment marks the PENDING assignment of the step being left as
// COMPLETED.
func (r *AssignmentResolver) CompleteAssignment(ctx context.Context, assignments ports.AssignmentStore, instanceID, stepID string, now time.Time) error {
	if err := assignments.CompletePending(ctx, instanceID, stepID, now); err != nil {
		return appErrors.NewInternalError("failed to complete assignment", err)
	}
	return nil
}

package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/flowgate/backend/internal/domain"
	"github.com/flowgate/backend/internal/domain/models"
	"github.com/flowgate/backend/internal/domain/ports"
	"github.com/flowgate/backend/internal/infrastructure/persistence"
	"github.com/flowgate/backend/pkg/constants"
	appErrors "github.com/flowgate/backend/pkg/errors"
	"github.com/flowgate/backend/pkg/utils"
)

// entryStepOrder is the order of the step every instance starts at.
const entryStepOrder = 1

// InstanceService manages the workflow instance lifecycle: starting
// instances from templates and applying actions that advance, hold, or
// terminate them. Every mutation runs as one transaction; concurrent actions
// against the same instance serialize on the instance row lock.
type InstanceService struct {
	templates   ports.TemplateStore
	instances   ports.InstanceStore
	assignments ports.AssignmentStore
	actions     ports.ActionStore
	directory   ports.DirectoryStore
	txManager   *persistence.TransactionManager

	resolver     *AssignmentResolver
	engine       *TransitionEngine
	recorder     *ActionRecorder
	stateMachine *domain.InstanceStateMachine
}

// NewInstanceService creates a new InstanceService
func NewInstanceService(
	templates ports.TemplateStore,
	instances ports.InstanceStore,
	assignments ports.AssignmentStore,
	actions ports.ActionStore,
	directory ports.DirectoryStore,
	txManager *persistence.TransactionManager,
	resolver *AssignmentResolver,
	engine *TransitionEngine,
	recorder *ActionRecorder,
) *InstanceService {
	return &InstanceService{
		templates:    templates,
		instances:    instances,
		assignments:  assignments,
		actions:      actions,
		directory:    directory,
		txManager:    txManager,
		resolver:     resolver,
		engine:       engine,
		recorder:     recorder,
		stateMachine: domain.NewInstanceStateMachine(),
	}
}

// StartInstance creates a running instance of a template for an external
// entity. The instance, its current state, and the initial PENDING
// assignment are committed together or not at all.
func (s *InstanceService) StartInstance(ctx context.Context, templateID, entityType, entityID string) (*models.WorkflowInstance, error) {
	if entityType == "" || entityID == "" {
		return nil, appErrors.NewValidationError("entity", "entity type and id are required")
	}

	var instance *models.WorkflowInstance
	err := s.txManager.WithTransaction(ctx, func(tx *sql.Tx) error {
		templates := s.templates.WithTx(tx)
		directory := s.directory.WithTx(tx)

		template, err := templates.GetByID(ctx, templateID)
		if err != nil {
			return appErrors.NewInternalError("failed to load template", err)
		}
		if template == nil {
			return appErrors.NewNotFoundError("Workflow Template", templateID)
		}
		if !template.IsActive {
			return appErrors.NewValidationError("template_id", "template is deactivated")
		}

		entry, err := templates.GetStepByOrder(ctx, templateID, entryStepOrder)
		if err != nil {
			return appErrors.NewInternalError("failed to load entry step", err)
		}
		if entry == nil {
			return appErrors.NewNotFoundError("Entry step of template", templateID)
		}

		assignee, err := s.resolver.ResolveAssignee(ctx, directory, entry.RoleID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		instance = &models.WorkflowInstance{
			ID:                utils.GenerateID(),
			TemplateID:        templateID,
			CurrentStepID:     &entry.ID,
			CurrentAssigneeID: &assignee.ID,
			EntityType:        entityType,
			EntityID:          entityID,
			Status:            constants.InstanceStatusActive,
			CreatedDate:       now,
		}
		if err := s.instances.WithTx(tx).Insert(ctx, instance); err != nil {
			return appErrors.NewInternalError("failed to create instance", err)
		}

		_, err = s.resolver.CreateAssignment(ctx, s.assignments.WithTx(tx), instance.ID, entry.ID, assignee.ID, now)
		return err
	})
	if err != nil {
		return nil, s.mapContention(err, templateID)
	}

	return instance, nil
}

// TakeActionRequest is the input for applying one action to an instance.
type TakeActionRequest struct {
	InstanceID        string
	UserID            string
	ActionType        constants.ActionType
	Comments          string
	DataModifications map[string]interface{}
}

// TakeActionResult returns the updated instance plus the recorded audit
// entry; for MODIFY actions the entry carries the data modifications the
// caller must apply to the external entity.
type TakeActionResult struct {
	Instance *models.WorkflowInstance `json:"instance"`
	Action   *models.WorkflowAction   `json:"action"`
}

// TakeAction applies one approve/reject/modify action to an instance. The
// audit entry, assignment updates, and instance mutation commit as one unit.
func (s *InstanceService) TakeAction(ctx context.Context, req TakeActionRequest) (*TakeActionResult, error) {
	if !constants.IsValidActionType(string(req.ActionType)) {
		return nil, appErrors.NewValidationError("action_type", "action type must be APPROVE, REJECT, or MODIFY")
	}

	var result *TakeActionResult
	err := s.txManager.WithTransaction(ctx, func(tx *sql.Tx) error {
		templates := s.templates.WithTx(tx)
		instances := s.instances.WithTx(tx)
		assignments := s.assignments.WithTx(tx)
		actions := s.actions.WithTx(tx)
		directory := s.directory.WithTx(tx)

		// The row lock serializes concurrent actions against this instance.
		instance, err := instances.GetByIDForUpdate(ctx, req.InstanceID)
		if err != nil {
			return appErrors.NewInternalError("failed to load instance", err)
		}
		if instance == nil {
			return appErrors.NewNotFoundError("Workflow Instance", req.InstanceID)
		}
		if instance.IsClosed() {
			return appErrors.NewInstanceClosedError(instance.ID, string(instance.Status))
		}
		if instance.CurrentAssigneeID == nil || *instance.CurrentAssigneeID != req.UserID {
			// No audit row is written for unauthorized submissions.
			return appErrors.NewUnauthorizedActionError(instance.ID, req.UserID)
		}
		if instance.CurrentStepID == nil {
			return appErrors.NewInternalError("active instance has no current step", nil)
		}

		step, err := templates.GetStep(ctx, *instance.CurrentStepID)
		if err != nil {
			return appErrors.NewInternalError("failed to load current step", err)
		}
		if step == nil {
			return appErrors.NewInternalError("instance references a missing step", nil)
		}

		if req.ActionType == constants.ActionModify && !step.CanModify {
			// Rejected before recording: no audit row for forbidden modifies.
			return appErrors.NewForbiddenActionError(step.ID, string(req.ActionType))
		}

		action, err := s.recorder.Record(ctx, actions, instance, step, req.UserID, req.ActionType, req.Comments, req.DataModifications)
		if err != nil {
			return err
		}

		if req.ActionType == constants.ActionModify {
			// A modify holds the instance at the current step; the recorded
			// data modifications are surfaced for the entity owner to apply.
			result = &TakeActionResult{Instance: instance, Action: action}
			return nil
		}

		decision, err := s.engine.ComputeNext(ctx, templates, instance, step, req.ActionType, ActionContext{
			Comments:          req.Comments,
			DataModifications: req.DataModifications,
		})
		if err != nil {
			return err
		}

		if err := s.applyDecision(ctx, instances, assignments, directory, instance, step, decision); err != nil {
			return err
		}

		result = &TakeActionResult{Instance: instance, Action: action}
		return nil
	})
	if err != nil {
		return nil, s.mapContention(err, req.InstanceID)
	}

	return result, nil
}

// applyDecision mutates the instance and its assignment history according to
// what the transition engine decided. instance is updated in place so the
// caller returns fresh state.
func (s *InstanceService) applyDecision(
	ctx context.Context,
	instances ports.InstanceStore,
	assignments ports.AssignmentStore,
	directory ports.DirectoryStore,
	instance *models.WorkflowInstance,
	step *models.WorkflowStep,
	decision domain.NextStepDecision,
) error {
	now := time.Now().UTC()

	switch decision.Kind {
	case domain.DecisionAdvance, domain.DecisionRejectTo:
		next := decision.NextStep
		assignee, err := s.resolver.ResolveAssignee(ctx, directory, next.RoleID)
		if err != nil {
			// Aborts the whole transaction: the action record and the
			// half-applied hand-off roll back together.
			return err
		}

		if err := s.resolver.CompleteAssignment(ctx, assignments, instance.ID, step.ID, now); err != nil {
			return err
		}
		if _, err := s.resolver.CreateAssignment(ctx, assignments, instance.ID, next.ID, assignee.ID, now); err != nil {
			return err
		}
		if err := instances.UpdateCurrentState(ctx, instance.ID, &next.ID, &assignee.ID); err != nil {
			return appErrors.NewInternalError("failed to update instance state", err)
		}

		instance.CurrentStepID = &next.ID
		instance.CurrentAssigneeID = &assignee.ID
		return nil

	case domain.DecisionTerminal:
		event := domain.TransitionComplete
		if decision.Outcome == constants.InstanceStatusRejected {
			event = domain.TransitionReject
		}
		newStatus, err := s.stateMachine.Transition(instance.Status, event)
		if err != nil {
			return appErrors.NewInternalError("invalid lifecycle transition", err)
		}

		if decision.Outcome == constants.InstanceStatusCompleted {
			// The approver's terminating action closes out their assignment.
			// Terminal rejection leaves the assignment row untouched.
			if err := s.resolver.CompleteAssignment(ctx, assignments, instance.ID, step.ID, now); err != nil {
				return err
			}
		}
		if err := instances.Close(ctx, instance.ID, newStatus, now); err != nil {
			return appErrors.NewInternalError("failed to close instance", err)
		}

		instance.Status = newStatus
		instance.CurrentAssigneeID = nil
		instance.CompletedDate = &now
		return nil
	}

	return appErrors.NewInternalError("unknown transition decision", nil)
}

// GetInstance returns an instance enriched with its template, current step,
// and current assignee. Read-only.
func (s *InstanceService) GetInstance(ctx context.Context, instanceID string) (*models.EnrichedInstance, error) {
	instance, err := s.instances.GetByID(ctx, instanceID)
	if err != nil {
		return nil, appErrors.NewInternalError("failed to load instance", err)
	}
	if instance == nil {
		return nil, appErrors.NewNotFoundError("Workflow Instance", instanceID)
	}
	return s.enrich(ctx, instance)
}

// GetAssignedWorkflows returns the instances currently waiting on the user,
// ordered by creation time, optionally filtered by status. Read-only.
func (s *InstanceService) GetAssignedWorkflows(ctx context.Context, userID string, status *constants.InstanceStatus) ([]*models.EnrichedInstance, error) {
	instances, err := s.instances.ListByAssignee(ctx, userID, status)
	if err != nil {
		return nil, appErrors.NewInternalError("failed to list assigned workflows", err)
	}

	enriched := make([]*models.EnrichedInstance, 0, len(instances))
	for _, instance := range instances {
		e, err := s.enrich(ctx, instance)
		if err != nil {
			return nil, err
		}
		enriched = append(enriched, e)
	}
	return enriched, nil
}

// ListActions returns an instance's audit log oldest first
func (s *InstanceService) ListActions(ctx context.Context, instanceID string) ([]*models.WorkflowAction, error) {
	instance, err := s.instances.GetByID(ctx, instanceID)
	if err != nil {
		return nil, appErrors.NewInternalError("failed to load instance", err)
	}
	if instance == nil {
		return nil, appErrors.NewNotFoundError("Workflow Instance", instanceID)
	}
	return s.recorder.ListActions(ctx, s.actions, instanceID)
}

// ListAssignments returns an instance's assignment history oldest first
func (s *InstanceService) ListAssignments(ctx context.Context, instanceID string) ([]*models.WorkflowStepAssignment, error) {
	instance, err := s.instances.GetByID(ctx, instanceID)
	if err != nil {
		return nil, appErrors.NewInternalError("failed to load instance", err)
	}
	if instance == nil {
		return nil, appErrors.NewNotFoundError("Workflow Instance", instanceID)
	}

	assignments, err := s.assignments.ListByInstance(ctx, instanceID)
	if err != nil {
		return nil, appErrors.NewInternalError("failed to list assignments", err)
	}
	return assignments, nil
}

// enrich resolves the lookups the projection needs, one boundary at a time
func (s *InstanceService) enrich(ctx context.Context, instance *models.WorkflowInstance) (*models.EnrichedInstance, error) {
	result := &models.EnrichedInstance{Instance: instance}

	template, err := s.templates.GetByID(ctx, instance.TemplateID)
	if err != nil {
		return nil, appErrors.NewInternalError("failed to load template", err)
	}
	result.Template = template

	if instance.CurrentStepID != nil {
		step, err := s.templates.GetStep(ctx, *instance.CurrentStepID)
		if err != nil {
			return nil, appErrors.NewInternalError("failed to load current step", err)
		}
		result.CurrentStep = step
	}

	if instance.CurrentAssigneeID != nil {
		assignee, err := s.directory.GetUserByID(ctx, *instance.CurrentAssigneeID)
		if err != nil {
			return nil, appErrors.NewInternalError("failed to load current assignee", err)
		}
		result.CurrentAssignee = assignee
	}

	return result, nil
}

// mapContention converts lock contention into the conflict error callers are
// expected to retry; everything else passes through verbatim.
func (s *InstanceService) mapContention(err error, instanceID string) error {
	if persistence.IsContention(err) {
		return appErrors.NewConcurrencyConflictError("Workflow Instance", instanceID, err)
	}
	return err
}

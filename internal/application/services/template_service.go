package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/flowgate/backend/internal/domain"
	"github.com/flowgate/backend/internal/domain/models"
	"github.com/flowgate/backend/internal/domain/ports"
	"github.com/flowgate/backend/internal/infrastructure/persistence"
	appErrors "github.com/flowgate/backend/pkg/errors"
	"github.com/flowgate/backend/pkg/constants"
	"github.com/flowgate/backend/pkg/expression"
	"github.com/flowgate/backend/pkg/utils"
)

// StepInput describes one step in a template creation request. Key is the
// caller-supplied correlation used to wire transitions and rejection targets
// before persisted identities exist.
type StepInput struct {
	Key              string
	Name             string
	Order            int
	RoleID           string
	Mandatory        bool
	CanModify        bool
	RejectionStepKey *string
}

// TransitionInput describes one directed edge in a template creation request.
type TransitionInput struct {
	FromStepKey    string
	ToStepKey      string
	ConditionType  *string
	ConditionValue *string
}

// CreateTemplateRequest is the input for creating a workflow template.
type CreateTemplateRequest struct {
	Name        string
	Description string
	Steps       []StepInput
	Transitions []TransitionInput
}

// TemplateService is the template store: it validates a template definition
// as a unit and persists it atomically.
type TemplateService struct {
	templates ports.TemplateStore
	directory ports.DirectoryStore
	txManager *persistence.TransactionManager
	exprs     *expression.Engine
}

// NewTemplateService creates a new TemplateService
func NewTemplateService(
	templates ports.TemplateStore,
	directory ports.DirectoryStore,
	txManager *persistence.TransactionManager,
	exprs *expression.Engine,
) *TemplateService {
	return &TemplateService{
		templates: templates,
		directory: directory,
		txManager: txManager,
		exprs:     exprs,
	}
}

// CreateTemplate validates and persists a template with its steps and
// transitions in one transaction. Partial templates are never observable.
func (s *TemplateService) CreateTemplate(ctx context.Context, req CreateTemplateRequest) (*models.WorkflowTemplate, error) {
	if req.Name == "" {
		return nil, appErrors.NewValidationError("name", "template name is required")
	}
	if len(req.Steps) == 0 {
		return nil, appErrors.NewValidationError("steps", "a template requires at least one step")
	}

	stepIDsByKey, err := s.validateSteps(req.Steps)
	if err != nil {
		return nil, err
	}
	if err := s.validateTransitions(req.Transitions, stepIDsByKey); err != nil {
		return nil, err
	}

	template := &models.WorkflowTemplate{
		ID:          utils.GenerateID(),
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
		CreatedDate: time.Now().UTC(),
	}

	steps := make([]models.WorkflowStep, 0, len(req.Steps))
	for _, in := range req.Steps {
		step := models.WorkflowStep{
			ID:          stepIDsByKey[in.Key],
			TemplateID:  template.ID,
			Name:        in.Name,
			StepOrder:   in.Order,
			RoleID:      in.RoleID,
			IsMandatory: in.Mandatory,
			CanModify:   in.CanModify,
		}
		if in.RejectionStepKey != nil {
			targetID := stepIDsByKey[*in.RejectionStepKey]
			step.RejectionStepID = &targetID
		}
		steps = append(steps, step)
	}

	transitions := make([]models.WorkflowStepTransition, 0, len(req.Transitions))
	for i, in := range req.Transitions {
		tr := models.WorkflowStepTransition{
			ID:         utils.GenerateID(),
			FromStepID: stepIDsByKey[in.FromStepKey],
			ToStepID:   stepIDsByKey[in.ToStepKey],
			// Seq fixes evaluation order from the order edges were supplied
			Seq:            int64(i + 1),
			ConditionType:  in.ConditionType,
			ConditionValue: in.ConditionValue,
		}
		transitions = append(transitions, tr)
	}

	err = s.txManager.WithTransaction(ctx, func(tx *sql.Tx) error {
		directory := s.directory.WithTx(tx)
		for _, in := range req.Steps {
			exists, err := directory.RoleExists(ctx, in.RoleID)
			if err != nil {
				return appErrors.NewInternalError("failed to check role", err)
			}
			if !exists {
				return appErrors.NewValidationError("role_id", fmt.Sprintf("role '%s' does not exist", in.RoleID))
			}
		}

		if err := s.templates.WithTx(tx).Insert(ctx, template, steps, transitions); err != nil {
			return appErrors.NewInternalError("failed to persist template", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	template.Steps = steps
	return template, nil
}

// GetTemplate returns a template with its steps and their outgoing
// transitions
func (s *TemplateService) GetTemplate(ctx context.Context, templateID string) (*models.WorkflowTemplate, error) {
	template, err := s.templates.GetByID(ctx, templateID)
	if err != nil {
		return nil, appErrors.NewInternalError("failed to load template", err)
	}
	if template == nil {
		return nil, appErrors.NewNotFoundError("Workflow Template", templateID)
	}

	steps, err := s.templates.ListSteps(ctx, templateID)
	if err != nil {
		return nil, appErrors.NewInternalError("failed to load template steps", err)
	}
	for i := range steps {
		transitions, err := s.templates.ListOutgoingTransitions(ctx, steps[i].ID)
		if err != nil {
			return nil, appErrors.NewInternalError("failed to load step transitions", err)
		}
		steps[i].Transitions = transitions
	}
	template.Steps = steps

	return template, nil
}

// ListTemplates returns all templates without their step graphs
func (s *TemplateService) ListTemplates(ctx context.Context) ([]*models.WorkflowTemplate, error) {
	templates, err := s.templates.List(ctx)
	if err != nil {
		return nil, appErrors.NewInternalError("failed to list templates", err)
	}
	return templates, nil
}

// DeactivateTemplate stops new instances of the template. Running instances
// keep working.
func (s *TemplateService) DeactivateTemplate(ctx context.Context, templateID string) error {
	if err := s.templates.SetActive(ctx, templateID, false); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.NewNotFoundError("Workflow Template", templateID)
		}
		return appErrors.NewInternalError("failed to deactivate template", err)
	}
	return nil
}

// validateSteps checks key/order uniqueness and rejection targets, and
// assigns persisted ids per correlation key.
func (s *TemplateService) validateSteps(steps []StepInput) (map[string]string, error) {
	stepIDsByKey := make(map[string]string, len(steps))
	ordersSeen := make(map[int]string, len(steps))

	for _, in := range steps {
		if in.Key == "" {
			return nil, appErrors.NewValidationError("steps", "every step requires a correlation key")
		}
		if in.Name == "" {
			return nil, appErrors.NewValidationError("steps", fmt.Sprintf("step '%s' requires a name", in.Key))
		}
		if in.Order < 1 {
			return nil, appErrors.NewValidationError("steps", fmt.Sprintf("step '%s' has invalid order %d", in.Key, in.Order))
		}
		if _, dup := stepIDsByKey[in.Key]; dup {
			return nil, appErrors.NewValidationError("steps", fmt.Sprintf("duplicate step key '%s'", in.Key))
		}
		if other, dup := ordersSeen[in.Order]; dup {
			return nil, appErrors.NewValidationError("steps", fmt.Sprintf("steps '%s' and '%s' share order %d", other, in.Key, in.Order))
		}
		stepIDsByKey[in.Key] = utils.GenerateID()
		ordersSeen[in.Order] = in.Key
	}

	for _, in := range steps {
		if in.RejectionStepKey == nil {
			continue
		}
		if _, ok := stepIDsByKey[*in.RejectionStepKey]; !ok {
			return nil, appErrors.NewValidationError("steps",
				fmt.Sprintf("step '%s' has rejection target '%s' outside the supplied step set", in.Key, *in.RejectionStepKey))
		}
	}

	return stepIDsByKey, nil
}

// validateTransitions checks edge endpoints and condition payloads. Condition
// expressions must compile here so a malformed one is a creation-time
// ValidationError, never a runtime misfire.
func (s *TemplateService) validateTransitions(transitions []TransitionInput, stepIDsByKey map[string]string) error {
	for i, in := range transitions {
		if _, ok := stepIDsByKey[in.FromStepKey]; !ok {
			return appErrors.NewValidationError("transitions",
				fmt.Sprintf("transition %d references unknown from-step '%s'", i, in.FromStepKey))
		}
		if _, ok := stepIDsByKey[in.ToStepKey]; !ok {
			return appErrors.NewValidationError("transitions",
				fmt.Sprintf("transition %d references unknown to-step '%s'", i, in.ToStepKey))
		}

		cond, err := domain.ParseCondition(in.ConditionType, in.ConditionValue)
		if err != nil {
			return appErrors.NewValidationError("transitions", fmt.Sprintf("transition %d: %v", i, err))
		}
		if cond != nil && cond.Type == constants.ConditionExpression {
			if err := s.exprs.Compile(cond.Expression); err != nil {
				return appErrors.NewValidationError("transitions", fmt.Sprintf("transition %d: %v", i, err))
			}
		}
		if cond == nil && in.ConditionValue != nil && *in.ConditionValue != "" {
			return appErrors.NewValidationError("transitions",
				fmt.Sprintf("transition %d has a condition value but no condition type", i))
		}
	}
	return nil
}

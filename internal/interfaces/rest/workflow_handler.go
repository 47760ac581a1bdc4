package rest

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flowgate/backend/internal/application/services"
	"github.com/flowgate/backend/internal/domain/models"
	"github.com/flowgate/backend/pkg/constants"
	appErrors "github.com/flowgate/backend/pkg/errors"
)

// TemplateService defines the interface for template store operations
type TemplateService interface {
	CreateTemplate(ctx context.Context, req services.CreateTemplateRequest) (*models.WorkflowTemplate, error)
	GetTemplate(ctx context.Context, templateID string) (*models.WorkflowTemplate, error)
	ListTemplates(ctx context.Context) ([]*models.WorkflowTemplate, error)
	DeactivateTemplate(ctx context.Context, templateID string) error
}

// InstanceService defines the interface for instance lifecycle operations
type InstanceService interface {
	StartInstance(ctx context.Context, templateID, entityType, entityID string) (*models.WorkflowInstance, error)
	TakeAction(ctx context.Context, req services.TakeActionRequest) (*services.TakeActionResult, error)
	GetInstance(ctx context.Context, instanceID string) (*models.EnrichedInstance, error)
	GetAssignedWorkflows(ctx context.Context, userID string, status *constants.InstanceStatus) ([]*models.EnrichedInstance, error)
	ListActions(ctx context.Context, instanceID string) ([]*models.WorkflowAction, error)
	ListAssignments(ctx context.Context, instanceID string) ([]*models.WorkflowStepAssignment, error)
}

// WorkflowHandler handles workflow API endpoints
type WorkflowHandler struct {
	templates TemplateService
	instances InstanceService
}

// NewWorkflowHandler creates a new WorkflowHandler
func NewWorkflowHandler(templates TemplateService, instances InstanceService) *WorkflowHandler {
	return &WorkflowHandler{templates: templates, instances: instances}
}

// ============================================================================
// Request Types
// ============================================================================

// StepRequest is one step in a template creation request. Key correlates
// transitions and rejection targets before persisted ids exist.
type StepRequest struct {
	Key              string  `json:"key" binding:"required"`
	Name             string  `json:"name" binding:"required"`
	Order            int     `json:"order" binding:"required"`
	RoleID           string  `json:"role_id" binding:"required"`
	Mandatory        bool    `json:"mandatory"`
	CanModify        bool    `json:"can_modify"`
	RejectionStepKey *string `json:"rejection_step_key,omitempty"`
}

// TransitionRequest is one directed edge in a template creation request
type TransitionRequest struct {
	FromStepKey    string          `json:"from_step_key" binding:"required"`
	ToStepKey      string          `json:"to_step_key" binding:"required"`
	ConditionType  *string         `json:"condition_type,omitempty"`
	ConditionValue json.RawMessage `json:"condition_value,omitempty"`
}

// CreateTemplateRequest represents a request to create a workflow template
type CreateTemplateRequest struct {
	Name        string              `json:"name" binding:"required"`
	Description string              `json:"description"`
	Steps       []StepRequest       `json:"steps" binding:"required"`
	Transitions []TransitionRequest `json:"transitions"`
}

// StartWorkflowRequest represents a request to start a workflow instance
type StartWorkflowRequest struct {
	TemplateID string `json:"template_id" binding:"required"`
	EntityType string `json:"entity_type" binding:"required"`
	EntityID   string `json:"entity_id" binding:"required"`
}

// TakeActionRequest represents an approve/reject/modify submission
type TakeActionRequest struct {
	ActionType        string                 `json:"action_type" binding:"required"`
	Comments          string                 `json:"comments"`
	DataModifications map[string]interface{} `json:"data_modifications"`
}

// ============================================================================
// Template Endpoints
// ============================================================================

// CreateTemplate handles POST /api/workflows/templates
func (h *WorkflowHandler) CreateTemplate(c *gin.Context) {
	var req CreateTemplateRequest
	if !BindJSON(c, &req) {
		return
	}

	serviceReq := services.CreateTemplateRequest{
		Name:        req.Name,
		Description: req.Description,
	}
	for _, s := range req.Steps {
		serviceReq.Steps = append(serviceReq.Steps, services.StepInput{
			Key:              s.Key,
			Name:             s.Name,
			Order:            s.Order,
			RoleID:           s.RoleID,
			Mandatory:        s.Mandatory,
			CanModify:        s.CanModify,
			RejectionStepKey: s.RejectionStepKey,
		})
	}
	for _, t := range req.Transitions {
		input := services.TransitionInput{
			FromStepKey:   t.FromStepKey,
			ToStepKey:     t.ToStepKey,
			ConditionType: t.ConditionType,
		}
		if len(t.ConditionValue) > 0 {
			raw := string(t.ConditionValue)
			input.ConditionValue = &raw
		}
		serviceReq.Transitions = append(serviceReq.Transitions, input)
	}

	template, err := h.templates.CreateTemplate(c.Request.Context(), serviceReq)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": template})
}

// GetTemplate handles GET /api/workflows/templates/:templateId
func (h *WorkflowHandler) GetTemplate(c *gin.Context) {
	templateID := c.Param("templateId")
	HandleGetEnvelope(c, "data", func() (interface{}, error) {
		return h.templates.GetTemplate(c.Request.Context(), templateID)
	})
}

// ListTemplates handles GET /api/workflows/templates
func (h *WorkflowHandler) ListTemplates(c *gin.Context) {
	HandleGetEnvelope(c, "data", func() (interface{}, error) {
		return h.templates.ListTemplates(c.Request.Context())
	})
}

// DeactivateTemplate handles POST /api/workflows/templates/:templateId/deactivate
func (h *WorkflowHandler) DeactivateTemplate(c *gin.Context) {
	templateID := c.Param("templateId")

	if err := h.templates.DeactivateTemplate(c.Request.Context(), templateID); err != nil {
		RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"success":              true,
			constants.FieldMessage: "Template deactivated",
		},
	})
}

// ============================================================================
// Instance Endpoints
// ============================================================================

// StartWorkflow handles POST /api/workflows/start
func (h *WorkflowHandler) StartWorkflow(c *gin.Context) {
	var req StartWorkflowRequest
	if !BindJSON(c, &req) {
		return
	}

	instance, err := h.instances.StartInstance(c.Request.Context(), req.TemplateID, req.EntityType, req.EntityID)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": instance})
}

// TakeAction handles POST /api/workflows/instances/:instanceId/actions
func (h *WorkflowHandler) TakeAction(c *gin.Context) {
	instanceID := c.Param("instanceId")
	user := GetUserFromContext(c)
	if user == nil {
		RespondAppError(c, appErrors.NewUnauthorizedError("no authenticated user in request context"))
		return
	}

	var req TakeActionRequest
	if !BindJSON(c, &req) {
		return
	}
	if !constants.IsValidActionType(req.ActionType) {
		RespondAppError(c, appErrors.NewValidationError("action_type", "action type must be APPROVE, REJECT, or MODIFY"))
		return
	}

	result, err := h.instances.TakeAction(c.Request.Context(), services.TakeActionRequest{
		InstanceID:        instanceID,
		UserID:            user.ID,
		ActionType:        constants.ActionType(req.ActionType),
		Comments:          req.Comments,
		DataModifications: req.DataModifications,
	})
	if err != nil {
		RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// GetInstance handles GET /api/workflows/instances/:instanceId
func (h *WorkflowHandler) GetInstance(c *gin.Context) {
	instanceID := c.Param("instanceId")
	HandleGetEnvelope(c, "data", func() (interface{}, error) {
		return h.instances.GetInstance(c.Request.Context(), instanceID)
	})
}

// GetAssigned handles GET /api/workflows/assigned
func (h *WorkflowHandler) GetAssigned(c *gin.Context) {
	user := GetUserFromContext(c)
	if user == nil {
		RespondAppError(c, appErrors.NewUnauthorizedError("no authenticated user in request context"))
		return
	}

	var status *constants.InstanceStatus
	if raw := c.Query("status"); raw != "" {
		if !constants.IsValidInstanceStatus(raw) {
			RespondAppError(c, appErrors.NewValidationError("status", "status must be ACTIVE, COMPLETED, or REJECTED"))
			return
		}
		s := constants.InstanceStatus(raw)
		status = &s
	}

	HandleGetEnvelope(c, "data", func() (interface{}, error) {
		return h.instances.GetAssignedWorkflows(c.Request.Context(), user.ID, status)
	})
}

// ListActions handles GET /api/workflows/instances/:instanceId/actions
func (h *WorkflowHandler) ListActions(c *gin.Context) {
	instanceID := c.Param("instanceId")
	HandleGetEnvelope(c, "data", func() (interface{}, error) {
		return h.instances.ListActions(c.Request.Context(), instanceID)
	})
}

// ListAssignments handles GET /api/workflows/instances/:instanceId/assignments
func (h *WorkflowHandler) ListAssignments(c *gin.Context) {
	instanceID := c.Param("instanceId")
	HandleGetEnvelope(c, "data", func() (interface{}, error) {
		return h.instances.ListAssignments(c.Request.Context(), instanceID)
	})
}

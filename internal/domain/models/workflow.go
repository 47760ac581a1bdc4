package models

import (
	"time"

	"github.com/flowgate/backend/pkg/constants"
)

// WorkflowTemplate is a reusable multi-step approval definition. Templates
// are immutable once published; deactivating one only stops new instances.
type WorkflowTemplate struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	IsActive    bool           `json:"is_active"`
	CreatedDate time.Time      `json:"created_date"`
	Steps       []WorkflowStep `json:"steps,omitempty"`
}

// WorkflowStep is one stop in a template. StepOrder is unique within a
// template and defines the default sequence; order 1 is the entry step.
type WorkflowStep struct {
	ID              string  `json:"id"`
	TemplateID      string  `json:"template_id"`
	Name            string  `json:"name"`
	StepOrder       int     `json:"step_order"`
	RoleID          string  `json:"role_id"`
	IsMandatory     bool    `json:"is_mandatory"`
	CanModify       bool    `json:"can_modify"`
	RejectionStepID *string `json:"rejection_step_id,omitempty"` // must belong to the same template

	Transitions []WorkflowStepTransition `json:"transitions,omitempty"`
}

// WorkflowStepTransition is a directed edge between two steps of the same
// template. Seq is assigned from creation order and fixes the evaluation
// order of a step's outgoing edges.
type WorkflowStepTransition struct {
	ID             string  `json:"id"`
	FromStepID     string  `json:"from_step_id"`
	ToStepID       string  `json:"to_step_id"`
	Seq            int64   `json:"seq"`
	ConditionType  *string `json:"condition_type,omitempty"`
	ConditionValue *string `json:"condition_value,omitempty"` // JSON payload, shape per condition type
}

// WorkflowInstance is a running copy of a template governing one external
// business entity. CurrentStepID and CurrentAssigneeID are null only in
// terminal states.
type WorkflowInstance struct {
	ID                string                   `json:"id"`
	TemplateID        string                   `json:"template_id"`
	CurrentStepID     *string                  `json:"current_step_id,omitempty"`
	CurrentAssigneeID *string                  `json:"current_assignee_id,omitempty"`
	EntityType        string                   `json:"entity_type"`
	EntityID          string                   `json:"entity_id"`
	Status            constants.InstanceStatus `json:"status"`
	CreatedDate       time.Time                `json:"created_date"`
	CompletedDate     *time.Time               `json:"completed_date,omitempty"`
}

// IsClosed reports whether the instance has left ACTIVE.
func (i *WorkflowInstance) IsClosed() bool {
	return i.Status != constants.InstanceStatusActive
}

// WorkflowStepAssignment records one hand-off of an instance to an assignee
// at a step. History is append-only: revisiting a step creates a new row.
type WorkflowStepAssignment struct {
	ID            string                     `json:"id"`
	InstanceID    string                     `json:"instance_id"`
	StepID        string                     `json:"step_id"`
	AssigneeID    string                     `json:"assignee_id"`
	Status        constants.AssignmentStatus `json:"status"`
	AssignedDate  time.Time                  `json:"assigned_date"`
	CompletedDate *time.Time                 `json:"completed_date,omitempty"`
}

// WorkflowAction is one immutable audit entry. Never updated or deleted.
type WorkflowAction struct {
	ID                string                 `json:"id"`
	InstanceID        string                 `json:"instance_id"`
	StepID            string                 `json:"step_id"`
	ActorID           string                 `json:"actor_id"`
	ActionType        constants.ActionType   `json:"action_type"`
	Comments          string                 `json:"comments,omitempty"`
	DataModifications map[string]interface{} `json:"data_modifications,omitempty"`
	ActionDate        time.Time              `json:"action_date"`
}

// Role is a named approval responsibility referenced by steps.
type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedDate time.Time `json:"created_date"`
}

// User is an approver account. A user holds at most one role.
type User struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	RoleID      *string   `json:"role_id,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedDate time.Time `json:"created_date"`
}

// EnrichedInstance is the read-only projection returned by assigned-workflow
// and instance-detail queries.
type EnrichedInstance struct {
	Instance        *WorkflowInstance `json:"instance"`
	Template        *WorkflowTemplate `json:"template,omitempty"`
	CurrentStep     *WorkflowStep     `json:"current_step,omitempty"`
	CurrentAssignee *User             `json:"current_assignee,omitempty"`
}

// Package ports defines the storage interfaces the application services
// depend on. The persistence layer implements them; tests substitute mocks.
package ports

import (
	"context"
	"database/sql"
	"time"

	"github.com/flowgate/backend/internal/domain/models"
	"github.com/flowgate/backend/pkg/constants"
)

// TemplateStore persists workflow templates with their steps and transitions.
type TemplateStore interface {
	// WithTx returns a copy of the store bound to the given transaction.
	WithTx(tx *sql.Tx) TemplateStore

	Insert(ctx context.Context, template *models.WorkflowTemplate, steps []models.WorkflowStep, transitions []models.WorkflowStepTransition) error
	GetByID(ctx context.Context, id string) (*models.WorkflowTemplate, error)
	List(ctx context.Context) ([]*models.WorkflowTemplate, error)
	SetActive(ctx context.Context, id string, active bool) error

	GetStep(ctx context.Context, stepID string) (*models.WorkflowStep, error)
	GetStepByOrder(ctx context.Context, templateID string, order int) (*models.WorkflowStep, error)
	ListSteps(ctx context.Context, templateID string) ([]models.WorkflowStep, error)
	// ListOutgoingTransitions returns a step's outgoing edges in ascending
	// seq order.
	ListOutgoingTransitions(ctx context.Context, fromStepID string) ([]models.WorkflowStepTransition, error)
}

// InstanceStore persists workflow instances.
type InstanceStore interface {
	WithTx(tx *sql.Tx) InstanceStore

	Insert(ctx context.Context, instance *models.WorkflowInstance) error
	GetByID(ctx context.Context, id string) (*models.WorkflowInstance, error)
	// GetByIDForUpdate locks the instance row for the duration of the
	// enclosing transaction, serializing concurrent actions per instance.
	GetByIDForUpdate(ctx context.Context, id string) (*models.WorkflowInstance, error)
	UpdateCurrentState(ctx context.Context, instanceID string, currentStepID, currentAssigneeID *string) error
	Close(ctx context.Context, instanceID string, status constants.InstanceStatus, completedAt time.Time) error
	ListByAssignee(ctx context.Context, userID string, status *constants.InstanceStatus) ([]*models.WorkflowInstance, error)
}

// AssignmentStore persists the append-only step assignment history.
type AssignmentStore interface {
	WithTx(tx *sql.Tx) AssignmentStore

	Insert(ctx context.Context, assignment *models.WorkflowStepAssignment) error
	// CompletePending marks the PENDING assignment of the given instance and
	// step as COMPLETED.
	CompletePending(ctx context.Context, instanceID, stepID string, completedAt time.Time) error
	ListByInstance(ctx context.Context, instanceID string) ([]*models.WorkflowStepAssignment, error)
}

// ActionStore persists the append-only audit log.
type ActionStore interface {
	WithTx(tx *sql.Tx) ActionStore

	Insert(ctx context.Context, action *models.WorkflowAction) error
	// ListByInstance returns actions ordered by timestamp ascending.
	ListByInstance(ctx context.Context, instanceID string) ([]*models.WorkflowAction, error)
}

// DirectoryStore reads role membership, the data assignee resolution runs on.
type DirectoryStore interface {
	WithTx(tx *sql.Tx) DirectoryStore

	RoleExists(ctx context.Context, roleID string) (bool, error)
	GetRoleByID(ctx context.Context, roleID string) (*models.Role, error)
	// FindFirstEligible returns the earliest-created active user holding the
	// role, ties broken by ascending id. Returns nil when the role has no
	// holders.
	FindFirstEligible(ctx context.Context, roleID string) (*models.User, error)
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
}

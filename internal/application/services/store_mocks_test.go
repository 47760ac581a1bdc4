package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/flowgate/backend/internal/domain/models"
	"github.com/flowgate/backend/internal/domain/ports"
	"github.com/flowgate/backend/pkg/constants"
)

// MockTemplateStore is a mock implementation of ports.TemplateStore
type MockTemplateStore struct {
	mock.Mock
}

func (m *MockTemplateStore) WithTx(tx *sql.Tx) ports.TemplateStore {
	return m
}

func (m *MockTemplateStore) Insert(ctx context.Context, template *models.WorkflowTemplate, steps []models.WorkflowStep, transitions []models.WorkflowStepTransition) error {
	args := m.Called(ctx, template, steps, transitions)
	return args.Error(0)
}

func (m *MockTemplateStore) GetByID(ctx context.Context, id string) (*models.WorkflowTemplate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WorkflowTemplate), args.Error(1)
}

func (m *MockTemplateStore) List(ctx context.Context) ([]*models.WorkflowTemplate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.WorkflowTemplate), args.Error(1)
}

func (m *MockTemplateStore) SetActive(ctx context.Context, id string, active bool) error {
	args := m.Called(ctx, id, active)
	return args.Error(0)
}

func (m *MockTemplateStore) GetStep(ctx context.Context, stepID string) (*models.WorkflowStep, error) {
	args := m.Called(ctx, stepID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WorkflowStep), args.Error(1)
}

func (m *MockTemplateStore) GetStepByOrder(ctx context.Context, templateID string, order int) (*models.WorkflowStep, error) {
	args := m.Called(ctx, templateID, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WorkflowStep), args.Error(1)
}

func (m *MockTemplateStore) ListSteps(ctx context.Context, templateID string) ([]models.WorkflowStep, error) {
	args := m.Called(ctx, templateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.WorkflowStep), args.Error(1)
}

func (m *MockTemplateStore) ListOutgoingTransitions(ctx context.Context, fromStepID string) ([]models.WorkflowStepTransition, error) {
	args := m.Called(ctx, fromStepID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.WorkflowStepTransition), args.Error(1)
}

// MockInstanceStore is a mock implementation of ports.InstanceStore
type MockInstanceStore struct {
	mock.Mock
}

func (m *MockInstanceStore) WithTx(tx *sql.Tx) ports.InstanceStore {
	return m
}

func (m *MockInstanceStore) Insert(ctx context.Context, instance *models.WorkflowInstance) error {
	args := m.Called(ctx, instance)
	return args.Error(0)
}

func (m *MockInstanceStore) GetByID(ctx context.Context, id string) (*models.WorkflowInstance, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WorkflowInstance), args.Error(1)
}

func (m *MockInstanceStore) GetByIDForUpdate(ctx context.Context, id string) (*models.WorkflowInstance, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WorkflowInstance), args.Error(1)
}

func (m *MockInstanceStore) UpdateCurrentState(ctx context.Context, instanceID string, currentStepID, currentAssigneeID *string) error {
	args := m.Called(ctx, instanceID, currentStepID, currentAssigneeID)
	return args.Error(0)
}

func (m *MockInstanceStore) Close(ctx context.Context, instanceID string, status constants.InstanceStatus, completedAt time.Time) error {
	args := m.Called(ctx, instanceID, status, completedAt)
	return args.Error(0)
}

func (m *MockInstanceStore) ListByAssignee(ctx context.Context, userID string, status *constants.InstanceStatus) ([]*models.WorkflowInstance, error) {
	args := m.Called(ctx, userID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.WorkflowInstance), args.Error(1)
}

// MockAssignmentStore is a mock implementation of ports.AssignmentStore
type MockAssignmentStore struct {
	mock.Mock
}

func (m *MockAssignmentStore) WithTx(tx *sql.Tx) ports.AssignmentStore {
	return m
}

func (m *MockAssignmentStore) Insert(ctx context.Context, assignment *models.WorkflowStepAssignment) error {
	args := m.Called(ctx, assignment)
	return args.Error(0)
}

func (m *MockAssignmentStore) CompletePending(ctx context.Context, instanceID, stepID string, completedAt time.Time) error {
	args := m.Called(ctx, instanceID, stepID, completedAt)
	return args.Error(0)
}

func (m *MockAssignmentStore) ListByInstance(ctx context.Context, instanceID string) ([]*models.WorkflowStepAssignment, error) {
	args := m.Called(ctx, instanceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.WorkflowStepAssignment), args.Error(1)
}

// MockActionStore is a mock implementation of ports.ActionStore
type MockActionStore struct {
	mock.Mock
}

func (m *MockActionStore) WithTx(tx *sql.Tx) ports.ActionStore {
	return m
}

func (m *MockActionStore) Insert(ctx context.Context, action *models.WorkflowAction) error {
	args := m.Called(ctx, action)
	return args.Error(0)
}

func (m *MockActionStore) ListByInstance(ctx context.Context, instanceID string) ([]*models.WorkflowAction, error) {
	args := m.Called(ctx, instanceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.WorkflowAction), args.Error(1)
}

// MockDirectoryStore is a mock implementation of ports.DirectoryStore
type MockDirectoryStore struct {
	mock.Mock
}

func (m *MockDirectoryStore) WithTx(tx *sql.Tx) ports.DirectoryStore {
	return m
}

func (m *MockDirectoryStore) RoleExists(ctx context.Context, roleID string) (bool, error) {
	args := m.Called(ctx, roleID)
	return args.Bool(0), args.Error(1)
}

func (m *MockDirectoryStore) GetRoleByID(ctx context.Context, roleID string) (*models.Role, error) {
	args := m.Called(ctx, roleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Role), args.Error(1)
}

func (m *MockDirectoryStore) FindFirstEligible(ctx context.Context, roleID string) (*models.User, error) {
	args := m.Called(ctx, roleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockDirectoryStore) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/flowgate/backend/internal/domain/models"
	"github.com/flowgate/backend/internal/domain/ports"
	"github.com/flowgate/backend/pkg/constants"
)

// InstanceRepository persists workflow instances.
type InstanceRepository struct {
	q Queryer
}

// NewInstanceRepository creates a new InstanceRepository
func NewInstanceRepository(db *sql.DB) *InstanceRepository {
	return &InstanceRepository{q: db}
}

// WithTx returns a copy bound to the given transaction
func (r *InstanceRepository) WithTx(tx *sql.Tx) ports.InstanceStore {
	return &InstanceRepository{q: tx}
}

const instanceColumns = "id, template_id, current_step_id, current_assignee_id, entity_type, entity_id, status, created_date, completed_date"

// Insert creates a new instance row
func (r *InstanceRepository) Insert(ctx context.Context, instance *models.WorkflowInstance) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		constants.TableWorkflowInstance, instanceColumns)

	_, err := r.q.ExecContext(ctx, query,
		instance.ID, instance.TemplateID, instance.CurrentStepID, instance.CurrentAssigneeID,
		instance.EntityType, instance.EntityID, string(instance.Status), instance.CreatedDate, instance.CompletedDate)
	return err
}

// GetByID fetches an instance without locking
func (r *InstanceRepository) GetByID(ctx context.Context, id string) (*models.WorkflowInstance, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ? LIMIT 1", instanceColumns, constants.TableWorkflowInstance)
	return r.scanInstance(r.q.QueryRowContext(ctx, query, id))
}

// GetByIDForUpdate fetches an instance with a row lock. Concurrent actions
// against the same instance queue up behind this lock; the second one sees
// the committed result of the first, never a half-updated row.
func (r *InstanceRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.WorkflowInstance, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ? LIMIT 1 FOR UPDATE", instanceColumns, constants.TableWorkflowInstance)
	return r.scanInstance(r.q.QueryRowContext(ctx, query, id))
}

// UpdateCurrentState moves the instance to a new current step + assignee
func (r *InstanceRepository) UpdateCurrentState(ctx context.Context, instanceID string, currentStepID, currentAssigneeID *string) error {
	query := fmt.Sprintf("UPDATE %s SET current_step_id = ?, current_assignee_id = ? WHERE id = ?", constants.TableWorkflowInstance)
	_, err := r.q.ExecContext(ctx, query, currentStepID, currentAssigneeID, instanceID)
	return err
}

// Close sets a terminal status, clears the assignee, and stamps the
// completion time. Completion time is written exactly once since closed
// instances reject all further actions.
func (r *InstanceRepository) Close(ctx context.Context, instanceID string, status constants.InstanceStatus, completedAt time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = ?, current_assignee_id = NULL, completed_date = ?
		WHERE id = ?`,
		constants.TableWorkflowInstance)
	_, err := r.q.ExecContext(ctx, query, string(status), completedAt, instanceID)
	return err
}

// ListByAssignee returns instances currently assigned to the user, oldest
// first, optionally filtered by status
func (r *InstanceRepository) ListByAssignee(ctx context.Context, userID string, status *constants.InstanceStatus) ([]*models.WorkflowInstance, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE current_assignee_id = ?", instanceColumns, constants.TableWorkflowInstance)
	args := []interface{}{userID}

	if status != nil {
		query += " AND status = ?"
		args = append(args, string(*status))
	}
	query += " ORDER BY created_date ASC"

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	instances := make([]*models.WorkflowInstance, 0)
	for rows.Next() {
		instance, err := r.scanInstanceRows(rows)
		if err != nil {
			return nil, err
		}
		instances = append(instances, instance)
	}
	return instances, rows.Err()
}

func (r *InstanceRepository) scanInstance(row *sql.Row) (*models.WorkflowInstance, error) {
	var i models.WorkflowInstance
	var currentStepID, currentAssigneeID sql.NullString
	var status string
	var completedDate sql.NullTime

	err := row.Scan(&i.ID, &i.TemplateID, &currentStepID, &currentAssigneeID,
		&i.EntityType, &i.EntityID, &status, &i.CreatedDate, &completedDate)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	applyInstanceNullables(&i, currentStepID, currentAssigneeID, status, completedDate)
	return &i, nil
}

func (r *InstanceRepository) scanInstanceRows(rows *sql.Rows) (*models.WorkflowInstance, error) {
	var i models.WorkflowInstance
	var currentStepID, currentAssigneeID sql.NullString
	var status string
	var completedDate sql.NullTime

	err := rows.Scan(&i.ID, &i.TemplateID, &currentStepID, &currentAssigneeID,
		&i.EntityType, &i.EntityID, &status, &i.CreatedDate, &completedDate)
	if err != nil {
		return nil, err
	}

	applyInstanceNullables(&i, currentStepID, currentAssigneeID, status, completedDate)
	return &i, nil
}

func applyInstanceNullables(i *models.WorkflowInstance, currentStepID, currentAssigneeID sql.NullString, status string, completedDate sql.NullTime) {
	if currentStepID.Valid {
		sID := currentStepID.String
		i.CurrentStepID = &sID
	}
	if currentAssigneeID.Valid {
		aID := currentAssigneeID.String
		i.CurrentAssigneeID = &aID
	}
	i.Status = constants.InstanceStatus(status)
	if completedDate.Valid {
		t := completedDate.Time
		i.CompletedDate = &t
	}
}

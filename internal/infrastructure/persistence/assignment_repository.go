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

// AssignmentRepository persists the append-only step assignment history. A
// step visited twice produces two rows; rows are never deleted.
type AssignmentRepository struct {
	q Queryer
}

// NewAssignmentRepository creates a new AssignmentRepository
func NewAssignmentRepository(db *sql.DB) *AssignmentRepository {
	return &AssignmentRepository{q: db}
}

// WithTx returns a copy bound to the given transaction
func (r *AssignmentRepository) WithTx(tx *sql.Tx) ports.AssignmentStore {
	return &AssignmentRepository{q: tx}
}

// Insert creates a new assignment row
func (r *AssignmentRepository) Insert(ctx context.Context, assignment *models.WorkflowStepAssignment) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, instance_id, step_id, assignee_id, status, assigned_date, completed_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		constants.TableWorkflowStepAssignment)

	_, err := r.q.ExecContext(ctx, query,
		assignment.ID, assignment.InstanceID, assignment.StepID, assignment.AssigneeID,
		string(assignment.Status), assignment.AssignedDate, assignment.CompletedDate)
	return err
}

// CompletePending marks the PENDING assignment for the given instance and
// step as COMPLETED with the given completion time.
func (r *AssignmentRepository) CompletePending(ctx context.Context, instanceID, stepID string, completedAt time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = ?, completed_date = ?
		WHERE instance_id = ? AND step_id = ? AND status = ?`,
		constants.TableWorkflowStepAssignment)

	_, err := r.q.ExecContext(ctx, query,
		string(constants.AssignmentStatusCompleted), completedAt,
		instanceID, stepID, string(constants.AssignmentStatusPending))
	return err
}

// ListByInstance returns the full assignment history of an instance, oldest
// first
func (r *AssignmentRepository) ListByInstance(ctx context.Context, instanceID string) ([]*models.WorkflowStepAssignment, error) {
	query := fmt.Sprintf(`
		SELECT id, instance_id, step_id, assignee_id, status, assigned_date, completed_date
		FROM %s
		WHERE instance_id = ?
		ORDER BY assigned_date ASC`,
		constants.TableWorkflowStepAssignment)

	rows, err := r.q.QueryContext(ctx, query, instanceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assignments := make([]*models.WorkflowStepAssignment, 0)
	for rows.Next() {
		var a models.WorkflowStepAssignment
		var status string
		var completedDate sql.NullTime
		if err := rows.Scan(&a.ID, &a.InstanceID, &a.StepID, &a.AssigneeID, &status, &a.AssignedDate, &completedDate); err != nil {
			return nil, err
		}
		a.Status = constants.AssignmentStatus(status)
		if completedDate.Valid {
			t := completedDate.Time
			a.CompletedDate = &t
		}
		assignments = append(assignments, &a)
	}
	return assignments, rows.Err()
}

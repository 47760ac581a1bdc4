package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/flowgate/backend/internal/domain/models"
	"github.com/flowgate/backend/internal/domain/ports"
	"github.com/flowgate/backend/pkg/constants"
)

// ActionRepository persists the append-only audit log. Rows are never
// updated or deleted.
type ActionRepository struct {
	q Queryer
}

// NewActionRepository creates a new ActionRepository
func NewActionRepository(db *sql.DB) *ActionRepository {
	return &ActionRepository{q: db}
}

// WithTx returns a copy bound to the given transaction
func (r *ActionRepository) WithTx(tx *sql.Tx) ports.ActionStore {
	return &ActionRepository{q: tx}
}

// Insert appends one audit row
func (r *ActionRepository) Insert(ctx context.Context, action *models.WorkflowAction) error {
	var dataModifications interface{}
	if action.DataModifications != nil {
		encoded, err := json.Marshal(action.DataModifications)
		if err != nil {
			return fmt.Errorf("failed to encode data modifications: %w", err)
		}
		dataModifications = string(encoded)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, instance_id, step_id, actor_id, action_type, comments, data_modifications, action_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		constants.TableWorkflowAction)

	_, err := r.q.ExecContext(ctx, query,
		action.ID, action.InstanceID, action.StepID, action.ActorID,
		string(action.ActionType), action.Comments, dataModifications, action.ActionDate)
	return err
}

// ListByInstance returns an instance's audit log, oldest first. The seq
// column breaks timestamp ties so the order is total.
func (r *ActionRepository) ListByInstance(ctx context.Context, instanceID string) ([]*models.WorkflowAction, error) {
	query := fmt.Sprintf(`
		SELECT id, instance_id, step_id, actor_id, action_type, comments, data_modifications, action_date
		FROM %s
		WHERE instance_id = ?
		ORDER BY action_date ASC, seq ASC`,
		constants.TableWorkflowAction)

	rows, err := r.q.QueryContext(ctx, query, instanceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	actions := make([]*models.WorkflowAction, 0)
	for rows.Next() {
		var a models.WorkflowAction
		var actionType string
		var comments, dataModifications sql.NullString
		if err := rows.Scan(&a.ID, &a.InstanceID, &a.StepID, &a.ActorID, &actionType, &comments, &dataModifications, &a.ActionDate); err != nil {
			return nil, err
		}
		a.ActionType = constants.ActionType(actionType)
		a.Comments = comments.String
		if dataModifications.Valid && dataModifications.String != "" {
			if err := json.Unmarshal([]byte(dataModifications.String), &a.DataModifications); err != nil {
				return nil, fmt.Errorf("failed to decode data modifications for action '%s': %w", a.ID, err)
			}
		}
		actions = append(actions, &a)
	}
	return actions, rows.Err()
}

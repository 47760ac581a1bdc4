package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/flowgate/backend/internal/domain/models"
	"github.com/flowgate/backend/internal/domain/ports"
	"github.com/flowgate/backend/pkg/constants"
)

// TemplateRepository persists workflow templates, their steps, and the
// transition graph between steps.
type TemplateRepository struct {
	q Queryer
}

// NewTemplateRepository creates a new TemplateRepository
func NewTemplateRepository(db *sql.DB) *TemplateRepository {
	return &TemplateRepository{q: db}
}

// WithTx returns a copy bound to the given transaction
func (r *TemplateRepository) WithTx(tx *sql.Tx) ports.TemplateStore {
	return &TemplateRepository{q: tx}
}

// Insert writes the template with all its steps and transitions. Callers run
// it inside a transaction so a partial template is never observable.
func (r *TemplateRepository) Insert(ctx context.Context, template *models.WorkflowTemplate, steps []models.WorkflowStep, transitions []models.WorkflowStepTransition) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, description, is_active, created_date)
		VALUES (?, ?, ?, ?, ?)`,
		constants.TableWorkflowTemplate)
	if _, err := r.q.ExecContext(ctx, query, template.ID, template.Name, template.Description, template.IsActive, template.CreatedDate); err != nil {
		return err
	}

	stepQuery := fmt.Sprintf(`
		INSERT INTO %s (id, template_id, name, step_order, role_id, is_mandatory, can_modify, rejection_step_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		constants.TableWorkflowStep)
	for _, step := range steps {
		if _, err := r.q.ExecContext(ctx, stepQuery,
			step.ID, step.TemplateID, step.Name, step.StepOrder, step.RoleID, step.IsMandatory, step.CanModify, step.RejectionStepID); err != nil {
			return err
		}
	}

	transitionQuery := fmt.Sprintf(`
		INSERT INTO %s (id, from_step_id, to_step_id, seq, condition_type, condition_value)
		VALUES (?, ?, ?, ?, ?, ?)`,
		constants.TableWorkflowStepTransition)
	for _, tr := range transitions {
		if _, err := r.q.ExecContext(ctx, transitionQuery,
			tr.ID, tr.FromStepID, tr.ToStepID, tr.Seq, tr.ConditionType, tr.ConditionValue); err != nil {
			return err
		}
	}

	return nil
}

// GetByID fetches a template row. Steps are loaded separately via ListSteps
// to keep fetch boundaries aligned with ownership.
func (r *TemplateRepository) GetByID(ctx context.Context, id string) (*models.WorkflowTemplate, error) {
	query := fmt.Sprintf(`
		SELECT id, name, description, is_active, created_date
		FROM %s
		WHERE id = ? LIMIT 1`,
		constants.TableWorkflowTemplate)

	var t models.WorkflowTemplate
	var description sql.NullString

	err := r.q.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.Name, &description, &t.IsActive, &t.CreatedDate)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	t.Description = description.String
	return &t, nil
}

// List returns all templates, newest first
func (r *TemplateRepository) List(ctx context.Context) ([]*models.WorkflowTemplate, error) {
	query := fmt.Sprintf(`
		SELECT id, name, description, is_active, created_date
		FROM %s
		ORDER BY created_date DESC`,
		constants.TableWorkflowTemplate)

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := make([]*models.WorkflowTemplate, 0)
	for rows.Next() {
		var t models.WorkflowTemplate
		var description sql.NullString
		if err := rows.Scan(&t.ID, &t.Name, &description, &t.IsActive, &t.CreatedDate); err != nil {
			return nil, err
		}
		t.Description = description.String
		templates = append(templates, &t)
	}
	return templates, rows.Err()
}

// SetActive flips the template's active flag. Running instances are not
// touched; the flag only gates new instance starts.
func (r *TemplateRepository) SetActive(ctx context.Context, id string, active bool) error {
	query := fmt.Sprintf("UPDATE %s SET is_active = ? WHERE id = ?", constants.TableWorkflowTemplate)
	result, err := r.q.ExecContext(ctx, query, active, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// GetStep fetches a single step by id
func (r *TemplateRepository) GetStep(ctx context.Context, stepID string) (*models.WorkflowStep, error) {
	query := fmt.Sprintf(`
		SELECT id, template_id, name, step_order, role_id, is_mandatory, can_modify, rejection_step_id
		FROM %s
		WHERE id = ? LIMIT 1`,
		constants.TableWorkflowStep)

	return r.scanStep(r.q.QueryRowContext(ctx, query, stepID))
}

// GetStepByOrder fetches the step of a template at the given order. Order 1
// is the entry step of every template.
func (r *TemplateRepository) GetStepByOrder(ctx context.Context, templateID string, order int) (*models.WorkflowStep, error) {
	query := fmt.Sprintf(`
		SELECT id, template_id, name, step_order, role_id, is_mandatory, can_modify, rejection_step_id
		FROM %s
		WHERE template_id = ? AND step_order = ? LIMIT 1`,
		constants.TableWorkflowStep)

	return r.scanStep(r.q.QueryRowContext(ctx, query, templateID, order))
}

// ListSteps returns a template's steps in order
func (r *TemplateRepository) ListSteps(ctx context.Context, templateID string) ([]models.WorkflowStep, error) {
	query := fmt.Sprintf(`
		SELECT id, template_id, name, step_order, role_id, is_mandatory, can_modify, rejection_step_id
		FROM %s
		WHERE template_id = ?
		ORDER BY step_order ASC`,
		constants.TableWorkflowStep)

	rows, err := r.q.QueryContext(ctx, query, templateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	steps := make([]models.WorkflowStep, 0)
	for rows.Next() {
		var s models.WorkflowStep
		var rejectionStepID sql.NullString
		if err := rows.Scan(&s.ID, &s.TemplateID, &s.Name, &s.StepOrder, &s.RoleID, &s.IsMandatory, &s.CanModify, &rejectionStepID); err != nil {
			return nil, err
		}
		if rejectionStepID.Valid {
			rID := rejectionStepID.String
			s.RejectionStepID = &rID
		}
		steps = append(steps, s)
	}
	return steps, rows.Err()
}

// ListOutgoingTransitions returns a step's outgoing edges in ascending seq
// order, which fixes the evaluation order during APPROVE processing.
func (r *TemplateRepository) ListOutgoingTransitions(ctx context.Context, fromStepID string) ([]models.WorkflowStepTransition, error) {
	query := fmt.Sprintf(`
		SELECT id, from_step_id, to_step_id, seq, condition_type, condition_value
		FROM %s
		WHERE from_step_id = ?
		ORDER BY seq ASC`,
		constants.TableWorkflowStepTransition)

	rows, err := r.q.QueryContext(ctx, query, fromStepID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transitions := make([]models.WorkflowStepTransition, 0)
	for rows.Next() {
		var tr models.WorkflowStepTransition
		var conditionType, conditionValue sql.NullString
		if err := rows.Scan(&tr.ID, &tr.FromStepID, &tr.ToStepID, &tr.Seq, &conditionType, &conditionValue); err != nil {
			return nil, err
		}
		if conditionType.Valid {
			ct := conditionType.String
			tr.ConditionType = &ct
		}
		if conditionValue.Valid {
			cv := conditionValue.String
			tr.ConditionValue = &cv
		}
		transitions = append(transitions, tr)
	}
	return transitions, rows.Err()
}

func (r *TemplateRepository) scanStep(row *sql.Row) (*models.WorkflowStep, error) {
	var s models.WorkflowStep
	var rejectionStepID sql.NullString

	err := row.Scan(&s.ID, &s.TemplateID, &s.Name, &s.StepOrder, &s.RoleID, &s.IsMandatory, &s.CanModify, &rejectionStepID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if rejectionStepID.Valid {
		rID := rejectionStepID.String
		s.RejectionStepID = &rID
	}
	return &s, nil
}

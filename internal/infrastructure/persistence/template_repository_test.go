package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/flowgate/backend/internal/domain/models"
)

func TestTemplateRepository_Insert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewTemplateRepository(db)
	created := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	template := &models.WorkflowTemplate{
		ID: "tmpl-1", Name: "Expense Approval", Description: "Two step review",
		IsActive: true, CreatedDate: created,
	}
	rejection := "step-1"
	steps := []models.WorkflowStep{
		{ID: "step-1", TemplateID: "tmpl-1", Name: "Manager Review", StepOrder: 1, RoleID: "role-mgr", IsMandatory: true, CanModify: true},
		{ID: "step-2", TemplateID: "tmpl-1", Name: "Finance Review", StepOrder: 2, RoleID: "role-fin", IsMandatory: true, RejectionStepID: &rejection},
	}
	transitions := []models.WorkflowStepTransition{
		{ID: "tr-1", FromStepID: "step-1", ToStepID: "step-2", Seq: 1},
	}

	mock.ExpectExec("INSERT INTO workflow_templates").
		WithArgs("tmpl-1", "Expense Approval", "Two step review", true, created).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO workflow_steps").
		WithArgs("step-1", "tmpl-1", "Manager Review", 1, "role-mgr", true, true, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO workflow_steps").
		WithArgs("step-2", "tmpl-1", "Finance Review", 2, "role-fin", true, false, "step-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO workflow_step_transitions").
		WithArgs("tr-1", "step-1", "step-2", int64(1), nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Insert(context.Background(), template, steps, transitions)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTemplateRepository_SetActive(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewTemplateRepository(db)

	t.Run("Deactivates", func(t *testing.T) {
		mock.ExpectExec("UPDATE workflow_templates SET is_active").
			WithArgs(false, "tmpl-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.SetActive(context.Background(), "tmpl-1", false))
	})

	t.Run("Unknown template", func(t *testing.T) {
		mock.ExpectExec("UPDATE workflow_templates SET is_active").
			WithArgs(false, "missing").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SetActive(context.Background(), "missing", false)

		assert.Error(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTemplateRepository_ListOutgoingTransitions(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewTemplateRepository(db)

	rows := sqlmock.NewRows([]string{"id", "from_step_id", "to_step_id", "seq", "condition_type", "condition_value"}).
		AddRow("tr-1", "step-1", "step-2", int64(1), "expression", `{"expression": "data.amount < 1000"}`).
		AddRow("tr-2", "step-1", "step-3", int64(2), nil, nil)

	mock.ExpectQuery(`(?s)SELECT .+ FROM workflow_step_transitions.+WHERE from_step_id = \?.+ORDER BY seq ASC`).
		WithArgs("step-1").
		WillReturnRows(rows)

	transitions, err := repo.ListOutgoingTransitions(context.Background(), "step-1")

	assert.NoError(t, err)
	assert.Len(t, transitions, 2)
	assert.Equal(t, int64(1), transitions[0].Seq)
	assert.Equal(t, "expression", *transitions[0].ConditionType)
	assert.Nil(t, transitions[1].ConditionType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

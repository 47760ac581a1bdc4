package persistence

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/flowgate/backend/pkg/constants"
)

func TestInstanceRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewInstanceRepository(db)
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("Active instance", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{
			"id", "template_id", "current_step_id", "current_assignee_id",
			"entity_type", "entity_id", "status", "created_date", "completed_date",
		}).AddRow("inst-1", "tmpl-1", "step-1", "user-1", "Expense", "exp-7", "ACTIVE", created, nil)

		mock.ExpectQuery(regexp.QuoteMeta("SELECT id, template_id, current_step_id, current_assignee_id, entity_type, entity_id, status, created_date, completed_date FROM workflow_instances WHERE id = ? LIMIT 1")).
			WithArgs("inst-1").
			WillReturnRows(rows)

		instance, err := repo.GetByID(context.Background(), "inst-1")

		assert.NoError(t, err)
		assert.Equal(t, "inst-1", instance.ID)
		assert.Equal(t, constants.InstanceStatusActive, instance.Status)
		assert.Equal(t, "step-1", *instance.CurrentStepID)
		assert.Equal(t, "user-1", *instance.CurrentAssigneeID)
		assert.Nil(t, instance.CompletedDate)
	})

	t.Run("Closed instance has null step and assignee", func(t *testing.T) {
		completed := created.Add(2 * time.Hour)
		rows := sqlmock.NewRows([]string{
			"id", "template_id", "current_step_id", "current_assignee_id",
			"entity_type", "entity_id", "status", "created_date", "completed_date",
		}).AddRow("inst-2", "tmpl-1", nil, nil, "Expense", "exp-8", "COMPLETED", created, completed)

		mock.ExpectQuery("SELECT (.+) FROM workflow_instances WHERE id = \\? LIMIT 1").
			WithArgs("inst-2").
			WillReturnRows(rows)

		instance, err := repo.GetByID(context.Background(), "inst-2")

		assert.NoError(t, err)
		assert.Nil(t, instance.CurrentStepID)
		assert.Nil(t, instance.CurrentAssigneeID)
		assert.Equal(t, constants.InstanceStatusCompleted, instance.Status)
		assert.Equal(t, completed, *instance.CompletedDate)
	})

	t.Run("Missing instance returns nil", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM workflow_instances WHERE id = \\? LIMIT 1").
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		instance, err := repo.GetByID(context.Background(), "missing")

		assert.NoError(t, err)
		assert.Nil(t, instance)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstanceRepository_GetByIDForUpdate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewInstanceRepository(db)
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{
		"id", "template_id", "current_step_id", "current_assignee_id",
		"entity_type", "entity_id", "status", "created_date", "completed_date",
	}).AddRow("inst-1", "tmpl-1", "step-1", "user-1", "Expense", "exp-7", "ACTIVE", created, nil)

	mock.ExpectQuery("SELECT (.+) FROM workflow_instances WHERE id = \\? LIMIT 1 FOR UPDATE").
		WithArgs("inst-1").
		WillReturnRows(rows)

	instance, err := repo.GetByIDForUpdate(context.Background(), "inst-1")

	assert.NoError(t, err)
	assert.Equal(t, "inst-1", instance.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstanceRepository_Close(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewInstanceRepository(db)
	completedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec("UPDATE workflow_instances").
		WithArgs("REJECTED", completedAt, "inst-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Close(context.Background(), "inst-1", constants.InstanceStatusRejected, completedAt)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstanceRepository_ListByAssignee(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewInstanceRepository(db)
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("Without status filter", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{
			"id", "template_id", "current_step_id", "current_assignee_id",
			"entity_type", "entity_id", "status", "created_date", "completed_date",
		}).
			AddRow("inst-1", "tmpl-1", "step-1", "user-1", "Expense", "exp-7", "ACTIVE", created, nil).
			AddRow("inst-2", "tmpl-1", "step-2", "user-1", "Expense", "exp-8", "ACTIVE", created.Add(time.Minute), nil)

		mock.ExpectQuery("SELECT (.+) FROM workflow_instances WHERE current_assignee_id = \\? ORDER BY created_date ASC").
			WithArgs("user-1").
			WillReturnRows(rows)

		instances, err := repo.ListByAssignee(context.Background(), "user-1", nil)

		assert.NoError(t, err)
		assert.Len(t, instances, 2)
		assert.Equal(t, "inst-1", instances[0].ID)
	})

	t.Run("With status filter", func(t *testing.T) {
		active := constants.InstanceStatusActive

		mock.ExpectQuery("SELECT (.+) FROM workflow_instances WHERE current_assignee_id = \\? AND status = \\? ORDER BY created_date ASC").
			WithArgs("user-1", "ACTIVE").
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "template_id", "current_step_id", "current_assignee_id",
				"entity_type", "entity_id", "status", "created_date", "completed_date",
			}))

		instances, err := repo.ListByAssignee(context.Background(), "user-1", &active)

		assert.NoError(t, err)
		assert.Empty(t, instances)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

package constants

// Table names for the workflow engine schema.
const (
	TableWorkflowTemplate       = "workflow_templates"
	TableWorkflowStep           = "workflow_steps"
	TableWorkflowStepTransition = "workflow_step_transitions"
	TableWorkflowInstance       = "workflow_instances"
	TableWorkflowStepAssignment = "workflow_step_assignments"
	TableWorkflowAction         = "workflow_actions"
	TableRole                   = "roles"
	TableUser                   = "users"
)

// Common field names shared across tables.
const (
	FieldID               = "id"
	FieldName             = "name"
	FieldCreatedDate      = "created_date"
	FieldLastModifiedDate = "last_modified_date"
	FieldEmail            = "email"
	FieldRoleID           = "role_id"
	FieldIsActive         = "is_active"
)

// Sort directions used by query helpers.
const (
	SortASC  = "ASC"
	SortDESC = "DESC"
)

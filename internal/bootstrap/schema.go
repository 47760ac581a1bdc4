package bootstrap

import (
	"context"
	"fmt"
	"log"

	"github.com/flowgate/backend/internal/infrastructure/database"
)

// tableDDL lists every table in dependency order so foreign keys resolve
// on a fresh database.
var tableDDL = []struct {
	name string
	ddl  string
}{
	{
		name: "roles",
		ddl: `CREATE TABLE IF NOT EXISTS roles (
			id VARCHAR(36) PRIMARY KEY,
			name VARCHAR(255) NOT NULL UNIQUE,
			description TEXT,
			created_date DATETIME NOT NULL
		)`,
	},
	{
		name: "users",
		ddl: `CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(36) PRIMARY KEY,
			username VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL UNIQUE,
			password VARCHAR(255) NOT NULL,
			role_id VARCHAR(36),
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_date DATETIME NOT NULL,
			INDEX idx_users_role (role_id, is_active),
			FOREIGN KEY (role_id) REFERENCES roles(id)
		)`,
	},
	{
		name: "workflow_templates",
		ddl: `CREATE TABLE IF NOT EXISTS workflow_templates (
			id VARCHAR(36) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			description TEXT,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_date DATETIME NOT NULL
		)`,
	},
	{
		name: "workflow_steps",
		ddl: `CREATE TABLE IF NOT EXISTS workflow_steps (
			id VARCHAR(36) PRIMARY KEY,
			template_id VARCHAR(36) NOT NULL,
			name VARCHAR(255) NOT NULL,
			step_order INT NOT NULL,
			role_id VARCHAR(36) NOT NULL,
			is_mandatory BOOLEAN NOT NULL DEFAULT TRUE,
			can_modify BOOLEAN NOT NULL DEFAULT FALSE,
			rejection_step_id VARCHAR(36),
			UNIQUE KEY uniq_steps_template_order (template_id, step_order),
			FOREIGN KEY (template_id) REFERENCES workflow_templates(id),
			FOREIGN KEY (role_id) REFERENCES roles(id)
		)`,
	},
	{
		name: "workflow_step_transitions",
		ddl: `CREATE TABLE IF NOT EXISTS workflow_step_transitions (
			id VARCHAR(36) PRIMARY KEY,
			from_step_id VARCHAR(36) NOT NULL,
			to_step_id VARCHAR(36) NOT NULL,
			seq BIGINT NOT NULL,
			condition_type VARCHAR(32),
			condition_value TEXT,
			INDEX idx_transitions_from (from_step_id, seq),
			FOREIGN KEY (from_step_id) REFERENCES workflow_steps(id),
			FOREIGN KEY (to_step_id) REFERENCES workflow_steps(id)
		)`,
	},
	{
		name: "workflow_instances",
		ddl: `CREATE TABLE IF NOT EXISTS workflow_instances (
			id VARCHAR(36) PRIMARY KEY,
			template_id VARCHAR(36) NOT NULL,
			current_step_id VARCHAR(36),
			current_assignee_id VARCHAR(36),
			entity_type VARCHAR(255) NOT NULL,
			entity_id VARCHAR(255) NOT NULL,
			status VARCHAR(32) NOT NULL,
			created_date DATETIME NOT NULL,
			completed_date DATETIME,
			INDEX idx_instances_assignee (current_assignee_id, status),
			INDEX idx_instances_entity (entity_type, entity_id),
			FOREIGN KEY (template_id) REFERENCES workflow_templates(id)
		)`,
	},
	{
		name: "workflow_step_assignments",
		ddl: `CREATE TABLE IF NOT EXISTS workflow_step_assignments (
			id VARCHAR(36) PRIMARY KEY,
			instance_id VARCHAR(36) NOT NULL,
			step_id VARCHAR(36) NOT NULL,
			assignee_id VARCHAR(36) NOT NULL,
			status VARCHAR(32) NOT NULL,
			assigned_date DATETIME NOT NULL,
			completed_date DATETIME,
			INDEX idx_assignments_instance (instance_id, status),
			INDEX idx_assignments_assignee (assignee_id, status),
			FOREIGN KEY (instance_id) REFERENCES workflow_instances(id),
			FOREIGN KEY (step_id) REFERENCES workflow_steps(id)
		)`,
	},
	{
		// seq is an insertion counter so actions on the same instance keep a
		// total order even when action_date timestamps collide.
		name: "workflow_actions",
		ddl: `CREATE TABLE IF NOT EXISTS workflow_actions (
			id VARCHAR(36) PRIMARY KEY,
			seq BIGINT NOT NULL AUTO_INCREMENT UNIQUE,
			instance_id VARCHAR(36) NOT NULL,
			step_id VARCHAR(36) NOT NULL,
			actor_id VARCHAR(36) NOT NULL,
			action_type VARCHAR(32) NOT NULL,
			comments TEXT,
			data_modifications JSON,
			action_date DATETIME NOT NULL,
			INDEX idx_actions_instance (instance_id, action_date, seq),
			FOREIGN KEY (instance_id) REFERENCES workflow_instances(id),
			FOREIGN KEY (actor_id) REFERENCES users(id)
		)`,
	},
}

// InitializeSchema creates all tables if they do not exist yet.
func InitializeSchema(db *database.Connection) error {
	log.Println("🔧 Initializing database schema...")

	ctx := context.Background()
	for _, t := range tableDDL {
		if _, err := db.ExecContext(ctx, t.ddl); err != nil {
			return fmt.Errorf("failed to create table %s: %w", t.name, err)
		}
	}

	log.Printf("✅ Schema ready (%d tables)", len(tableDDL))
	return nil
}

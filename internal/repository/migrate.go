package repository

import (
	"context"
	"fmt"
)

// schemaDDL creates the full schema. Statements are idempotent so Migrate
// can run on every startup. Entities protect the state and schema version
// they reference (RESTRICT); audit logs keep their text when referenced
// definitions disappear (SET NULL).
const schemaDDL = `
CREATE TABLE IF NOT EXISTS workflows (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_workflows_is_active ON workflows (is_active);

CREATE TABLE IF NOT EXISTS states (
	id UUID PRIMARY KEY,
	workflow_id UUID NOT NULL REFERENCES workflows(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	order_index INT NOT NULL DEFAULT 0,
	is_initial BOOLEAN NOT NULL DEFAULT FALSE,
	UNIQUE (workflow_id, name)
);
CREATE INDEX IF NOT EXISTS idx_states_workflow_order ON states (workflow_id, order_index);

CREATE TABLE IF NOT EXISTS transitions (
	id UUID PRIMARY KEY,
	workflow_id UUID NOT NULL REFERENCES workflows(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	from_state_id UUID NOT NULL REFERENCES states(id) ON DELETE CASCADE,
	to_state_id UUID NOT NULL REFERENCES states(id) ON DELETE CASCADE,
	order_index INT NOT NULL DEFAULT 0,
	UNIQUE (workflow_id, from_state_id, to_state_id, name)
);
CREATE INDEX IF NOT EXISTS idx_transitions_from_to ON transitions (from_state_id, to_state_id);

CREATE TABLE IF NOT EXISTS rules (
	id UUID PRIMARY KEY,
	transition_id UUID NOT NULL REFERENCES transitions(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	condition_type TEXT NOT NULL,
	params JSONB NOT NULL DEFAULT '{}',
	eval_order INT NOT NULL DEFAULT 0,
	is_active BOOLEAN NOT NULL DEFAULT TRUE
);
CREATE INDEX IF NOT EXISTS idx_rules_transition_eval ON rules (transition_id, eval_order);

CREATE TABLE IF NOT EXISTS schema_versions (
	id UUID PRIMARY KEY,
	workflow_id UUID NOT NULL REFERENCES workflows(id) ON DELETE CASCADE,
	version INT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (workflow_id, version)
);

CREATE TABLE IF NOT EXISTS schema_fields (
	id UUID PRIMARY KEY,
	schema_version_id UUID NOT NULL REFERENCES schema_versions(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	field_type TEXT NOT NULL,
	required BOOLEAN NOT NULL DEFAULT FALSE,
	options JSONB NOT NULL DEFAULT '{}',
	UNIQUE (schema_version_id, name)
);

CREATE TABLE IF NOT EXISTS entities (
	id UUID PRIMARY KEY,
	workflow_id UUID NOT NULL REFERENCES workflows(id) ON DELETE CASCADE,
	current_state_id UUID NOT NULL REFERENCES states(id) ON DELETE RESTRICT,
	schema_version_id UUID NOT NULL REFERENCES schema_versions(id) ON DELETE RESTRICT,
	parent_id UUID REFERENCES entities(id) ON DELETE SET NULL,
	data JSONB NOT NULL DEFAULT '{}',
	created_by UUID,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_entities_current_state ON entities (current_state_id);
CREATE INDEX IF NOT EXISTS idx_entities_workflow_created ON entities (workflow_id, created_at);

CREATE TABLE IF NOT EXISTS audit_logs (
	id UUID PRIMARY KEY,
	entity_id UUID NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
	actor_id UUID,
	action_type TEXT NOT NULL,
	from_state_id UUID REFERENCES states(id) ON DELETE SET NULL,
	to_state_id UUID REFERENCES states(id) ON DELETE SET NULL,
	rule_id UUID REFERENCES rules(id) ON DELETE SET NULL,
	reason TEXT NOT NULL DEFAULT '',
	metadata JSONB NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_audit_entity_created ON audit_logs (entity_id, created_at);
CREATE INDEX IF NOT EXISTS idx_audit_action_type ON audit_logs (action_type);

CREATE TABLE IF NOT EXISTS user_profiles (
	id UUID PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL DEFAULT '',
	role TEXT NOT NULL DEFAULT 'viewer',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Migrate creates the database schema if it does not exist yet.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

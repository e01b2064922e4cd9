package models

import (
	"time"
)

// Workflow is a named directed graph of states and transitions.
type Workflow struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// State is a node an entity can occupy within a workflow. Name is unique
// per workflow. IsInitial is advisory metadata only; the transition engine
// never consults it.
type State struct {
	ID         string `json:"id" db:"id"`
	WorkflowID string `json:"workflow_id" db:"workflow_id"`
	Name       string `json:"name" db:"name"`
	OrderIndex int    `json:"order_index" db:"order_index"`
	IsInitial  bool   `json:"is_initial" db:"is_initial"`
}

// Transition is a directed, named edge between two states of the same
// workflow, guarded by an ordered set of rules.
type Transition struct {
	ID          string `json:"id" db:"id"`
	WorkflowID  string `json:"workflow_id" db:"workflow_id"`
	Name        string `json:"name" db:"name"`
	FromStateID string `json:"from_state_id" db:"from_state_id"`
	ToStateID   string `json:"to_state_id" db:"to_state_id"`
	OrderIndex  int    `json:"order_index" db:"order_index"`
}

// Rule is a guard condition on a transition. Rules are evaluated in
// ascending EvalOrder (ties broken by id); inactive rules are skipped.
type Rule struct {
	ID            string         `json:"id" db:"id"`
	TransitionID  string         `json:"transition_id" db:"transition_id"`
	Name          string         `json:"name" db:"name"`
	ConditionType ConditionType  `json:"condition_type" db:"condition_type"`
	Params        map[string]any `json:"params" db:"params"`
	EvalOrder     int            `json:"eval_order" db:"eval_order"`
	IsActive      bool           `json:"is_active" db:"is_active"`
}

// SchemaVersion identifies one versioned data shape for a workflow
type SchemaVersion struct {
	ID         string    `json:"id" db:"id"`
	WorkflowID string    `json:"workflow_id" db:"workflow_id"`
	Version    int       `json:"version" db:"version"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// SchemaField declares one field of an entity data payload
type SchemaField struct {
	ID              string         `json:"id" db:"id"`
	SchemaVersionID string         `json:"schema_version_id" db:"schema_version_id"`
	Name            string         `json:"name" db:"name"`
	FieldType       FieldType      `json:"field_type" db:"field_type"`
	Required        bool           `json:"required" db:"required"`
	Options         map[string]any `json:"options" db:"options"`
}

// EnumOptions extracts the list of allowed values for an enum field, if
// any are declared.
func (f *SchemaField) EnumOptions() []any {
	if f.Options == nil {
		return nil
	}
	opts, _ := f.Options["options"].([]any)
	return opts
}

package models

import (
	"time"
)

// Entity is a business record tracked through a workflow's state graph.
// CurrentStateID always names a state of the same workflow and is only
// mutated through the transition engine. Parent forms an optional tree,
// e.g. a request with child approval tasks.
type Entity struct {
	ID              string         `json:"id" db:"id"`
	WorkflowID      string         `json:"workflow_id" db:"workflow_id"`
	CurrentStateID  string         `json:"current_state_id" db:"current_state_id"`
	SchemaVersionID string         `json:"schema_version_id" db:"schema_version_id"`
	ParentID        *string        `json:"parent_id,omitempty" db:"parent_id"`
	Data            map[string]any `json:"data" db:"data"`
	CreatedBy       *string        `json:"created_by,omitempty" db:"created_by"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at" db:"updated_at"`
}

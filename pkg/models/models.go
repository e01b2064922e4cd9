// Package models defines the domain models for the workflow tracker service
package models

import (
	"time"
)

// ConditionType identifies the guard condition a rule evaluates
type ConditionType string

const (
	ConditionFieldPresent ConditionType = "field_present"
	ConditionFieldEquals  ConditionType = "field_equals"
	ConditionFieldIn      ConditionType = "field_in"
	ConditionFieldGT      ConditionType = "field_gt"
	ConditionFieldGTE     ConditionType = "field_gte"
	ConditionFieldLT      ConditionType = "field_lt"
	ConditionFieldLTE     ConditionType = "field_lte"
)

// FieldType represents the declared type of a schema field
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeNumber   FieldType = "number"
	FieldTypeBoolean  FieldType = "boolean"
	FieldTypeDate     FieldType = "date"
	FieldTypeDatetime FieldType = "datetime"
	FieldTypeEnum     FieldType = "enum"
)

// ActionType classifies an audit log entry
type ActionType string

const (
	ActionStateChange ActionType = "state_change"
	ActionFieldUpdate ActionType = "field_update"
	ActionRuleBlock   ActionType = "rule_block"
	ActionRulePass    ActionType = "rule_pass"
	ActionSystem      ActionType = "system"
)

// Role represents the access level of a user profile
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
	RoleViewer   Role = "viewer"
)

// AuditLog is an immutable record of something that happened to an entity.
// State and rule references are nullable so the descriptive text survives
// deletion of the definitions it points at.
type AuditLog struct {
	ID          string         `json:"id" db:"id"`
	EntityID    string         `json:"entity_id" db:"entity_id"`
	ActorID     *string        `json:"actor_id,omitempty" db:"actor_id"`
	ActionType  ActionType     `json:"action_type" db:"action_type"`
	FromStateID *string        `json:"from_state_id,omitempty" db:"from_state_id"`
	ToStateID   *string        `json:"to_state_id,omitempty" db:"to_state_id"`
	RuleID      *string        `json:"rule_id,omitempty" db:"rule_id"`
	Reason      string         `json:"reason" db:"reason"`
	Metadata    map[string]any `json:"metadata,omitempty" db:"metadata"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
}

// UserProfile binds an authenticated user to a role
type UserProfile struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Name      string    `json:"name,omitempty" db:"name"`
	Role      Role      `json:"role" db:"role"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Actor identifies who triggered an engine operation. A nil *Actor means
// the operation was system-initiated.
type Actor struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// HealthStatus represents service health
type HealthStatus struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ProblemDetails represents RFC 7807 Problem Details
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// Package repository defines the persistence contracts for the workflow
// tracker and their PostgreSQL implementation.
package repository

import (
	"context"
	"errors"

	"flowtrack/backend/pkg/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrStateConflict is returned by CommitTransition when the entity's
// current state no longer matches the state the transition was resolved
// against. The caller lost a race and may retry from a fresh read.
var ErrStateConflict = errors.New("entity state changed concurrently")

// Store is the narrow interface the transition engine depends on. The
// engine performs no other I/O; CommitTransition and AppendAudit are the
// only write paths it touches.
type Store interface {
	GetEntity(ctx context.Context, id string) (*models.Entity, error)
	GetTransition(ctx context.Context, id string) (*models.Transition, error)

	// FindTransition locates the edge from fromStateID to toStateID in the
	// given workflow. When duplicates exist the lowest (order_index, id)
	// wins, keeping resolution deterministic.
	FindTransition(ctx context.Context, workflowID, fromStateID, toStateID string) (*models.Transition, error)

	// ListActiveRules returns the active rules of a transition ordered by
	// eval_order, then id.
	ListActiveRules(ctx context.Context, transitionID string) ([]*models.Rule, error)

	// CommitTransition atomically moves the entity to toStateID and appends
	// the audit entry; either both writes are applied or neither is. The
	// entity row is locked and its current state re-checked against
	// fromStateID inside the transaction; on mismatch ErrStateConflict is
	// returned and nothing is written. Returns the updated entity.
	CommitTransition(ctx context.Context, entityID, fromStateID, toStateID string, entry *models.AuditLog) (*models.Entity, error)

	// AppendAudit writes a single audit entry outside any state change,
	// e.g. for blocked rules. Entries are never updated or deleted.
	AppendAudit(ctx context.Context, entry *models.AuditLog) error
}

// EntityFilter narrows ListEntities results. Zero values mean "any".
type EntityFilter struct {
	WorkflowID     string
	CurrentStateID string
	ParentID       string
}

// AuditFilter narrows ListAuditLogs results.
type AuditFilter struct {
	EntityID   string
	ActionType models.ActionType
}

// Repository is the full persistence interface used by the HTTP and MCP
// surfaces: workflow definition management, entity lifecycle and audit
// reads, on top of the engine-facing Store.
type Repository interface {
	Store

	Ping(ctx context.Context) error

	CreateWorkflow(ctx context.Context, w *models.Workflow) error
	GetWorkflow(ctx context.Context, id string) (*models.Workflow, error)
	ListWorkflows(ctx context.Context) ([]*models.Workflow, error)
	UpdateWorkflow(ctx context.Context, w *models.Workflow) error
	DeleteWorkflow(ctx context.Context, id string) error

	CreateState(ctx context.Context, s *models.State) error
	GetState(ctx context.Context, id string) (*models.State, error)
	ListStates(ctx context.Context, workflowID string) ([]*models.State, error)
	UpdateState(ctx context.Context, s *models.State) error
	DeleteState(ctx context.Context, id string) error

	CreateTransition(ctx context.Context, t *models.Transition) error
	ListTransitions(ctx context.Context, workflowID string) ([]*models.Transition, error)
	UpdateTransition(ctx context.Context, t *models.Transition) error
	DeleteTransition(ctx context.Context, id string) error

	CreateRule(ctx context.Context, r *models.Rule) error
	ListRules(ctx context.Context, transitionID string) ([]*models.Rule, error)
	UpdateRule(ctx context.Context, r *models.Rule) error
	DeleteRule(ctx context.Context, id string) error

	CreateSchemaVersion(ctx context.Context, sv *models.SchemaVersion) error
	GetSchemaVersion(ctx context.Context, id string) (*models.SchemaVersion, error)
	ListSchemaVersions(ctx context.Context, workflowID string) ([]*models.SchemaVersion, error)
	CreateSchemaField(ctx context.Context, f *models.SchemaField) error
	ListSchemaFields(ctx context.Context, schemaVersionID string) ([]*models.SchemaField, error)
	DeleteSchemaField(ctx context.Context, id string) error

	CreateEntity(ctx context.Context, e *models.Entity) error
	ListEntities(ctx context.Context, filter EntityFilter) ([]*models.Entity, error)
	UpdateEntityData(ctx context.Context, id string, data map[string]any) error
	DeleteEntity(ctx context.Context, id string) error

	ListAuditLogs(ctx context.Context, filter AuditFilter) ([]*models.AuditLog, error)

	GetUserProfileByEmail(ctx context.Context, email string) (*models.UserProfile, error)
	CreateUserProfile(ctx context.Context, p *models.UserProfile) error
	UpdateUserProfile(ctx context.Context, p *models.UserProfile) error
	ListUserProfiles(ctx context.Context) ([]*models.UserProfile, error)
}

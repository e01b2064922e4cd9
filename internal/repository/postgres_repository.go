package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"flowtrack/backend/pkg/models"
)

// PostgresRepository is a PostgreSQL implementation of the Repository
// interface backed by a pgx connection pool.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Ping verifies database connectivity.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// ---- workflows ----

func (r *PostgresRepository) CreateWorkflow(ctx context.Context, w *models.Workflow) error {
	fillID(&w.ID)
	now := time.Now().UTC()
	w.CreatedAt, w.UpdatedAt = now, now
	_, err := r.db.Exec(ctx,
		`INSERT INTO workflows (id, name, is_active, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		w.ID, w.Name, w.IsActive, w.CreatedAt, w.UpdatedAt)
	return err
}

func (r *PostgresRepository) GetWorkflow(ctx context.Context, id string) (*models.Workflow, error) {
	var w models.Workflow
	err := r.db.QueryRow(ctx,
		`SELECT id, name, is_active, created_at, updated_at FROM workflows WHERE id = $1`, id).
		Scan(&w.ID, &w.Name, &w.IsActive, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *PostgresRepository) ListWorkflows(ctx context.Context) ([]*models.Workflow, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, is_active, created_at, updated_at FROM workflows ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workflows []*models.Workflow
	for rows.Next() {
		var w models.Workflow
		if err := rows.Scan(&w.ID, &w.Name, &w.IsActive, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		workflows = append(workflows, &w)
	}
	return workflows, rows.Err()
}

func (r *PostgresRepository) UpdateWorkflow(ctx context.Context, w *models.Workflow) error {
	w.UpdatedAt = time.Now().UTC()
	tag, err := r.db.Exec(ctx,
		`UPDATE workflows SET name = $1, is_active = $2, updated_at = $3 WHERE id = $4`,
		w.Name, w.IsActive, w.UpdatedAt, w.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteWorkflow(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM workflows WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ---- states ----

func (r *PostgresRepository) CreateState(ctx context.Context, s *models.State) error {
	fillID(&s.ID)
	_, err := r.db.Exec(ctx,
		`INSERT INTO states (id, workflow_id, name, order_index, is_initial) VALUES ($1, $2, $3, $4, $5)`,
		s.ID, s.WorkflowID, s.Name, s.OrderIndex, s.IsInitial)
	return err
}

func (r *PostgresRepository) GetState(ctx context.Context, id string) (*models.State, error) {
	var s models.State
	err := r.db.QueryRow(ctx,
		`SELECT id, workflow_id, name, order_index, is_initial FROM states WHERE id = $1`, id).
		Scan(&s.ID, &s.WorkflowID, &s.Name, &s.OrderIndex, &s.IsInitial)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PostgresRepository) ListStates(ctx context.Context, workflowID string) ([]*models.State, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, workflow_id, name, order_index, is_initial FROM states
		 WHERE workflow_id = $1 ORDER BY order_index, name`, workflowID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var states []*models.State
	for rows.Next() {
		var s models.State
		if err := rows.Scan(&s.ID, &s.WorkflowID, &s.Name, &s.OrderIndex, &s.IsInitial); err != nil {
			return nil, err
		}
		states = append(states, &s)
	}
	return states, rows.Err()
}

func (r *PostgresRepository) UpdateState(ctx context.Context, s *models.State) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE states SET name = $1, order_index = $2, is_initial = $3 WHERE id = $4`,
		s.Name, s.OrderIndex, s.IsInitial, s.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteState fails with a foreign key violation while entities still
// occupy the state; entities protect their current state.
func (r *PostgresRepository) DeleteState(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM states WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ---- transitions ----

func (r *PostgresRepository) CreateTransition(ctx context.Context, t *models.Transition) error {
	fillID(&t.ID)
	_, err := r.db.Exec(ctx,
		`INSERT INTO transitions (id, workflow_id, name, from_state_id, to_state_id, order_index)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.WorkflowID, t.Name, t.FromStateID, t.ToStateID, t.OrderIndex)
	return err
}

func (r *PostgresRepository) GetTransition(ctx context.Context, id string) (*models.Transition, error) {
	var t models.Transition
	err := r.db.QueryRow(ctx,
		`SELECT id, workflow_id, name, from_state_id, to_state_id, order_index FROM transitions WHERE id = $1`, id).
		Scan(&t.ID, &t.WorkflowID, &t.Name, &t.FromStateID, &t.ToStateID, &t.OrderIndex)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *PostgresRepository) FindTransition(ctx context.Context, workflowID, fromStateID, toStateID string) (*models.Transition, error) {
	var t models.Transition
	err := r.db.QueryRow(ctx,
		`SELECT id, workflow_id, name, from_state_id, to_state_id, order_index FROM transitions
		 WHERE workflow_id = $1 AND from_state_id = $2 AND to_state_id = $3
		 ORDER BY order_index, id LIMIT 1`,
		workflowID, fromStateID, toStateID).
		Scan(&t.ID, &t.WorkflowID, &t.Name, &t.FromStateID, &t.ToStateID, &t.OrderIndex)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *PostgresRepository) ListTransitions(ctx context.Context, workflowID string) ([]*models.Transition, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, workflow_id, name, from_state_id, to_state_id, order_index FROM transitions
		 WHERE workflow_id = $1 ORDER BY order_index, name`, workflowID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transitions []*models.Transition
	for rows.Next() {
		var t models.Transition
		if err := rows.Scan(&t.ID, &t.WorkflowID, &t.Name, &t.FromStateID, &t.ToStateID, &t.OrderIndex); err != nil {
			return nil, err
		}
		transitions = append(transitions, &t)
	}
	return transitions, rows.Err()
}

func (r *PostgresRepository) UpdateTransition(ctx context.Context, t *models.Transition) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE transitions SET name = $1, from_state_id = $2, to_state_id = $3, order_index = $4 WHERE id = $5`,
		t.Name, t.FromStateID, t.ToStateID, t.OrderIndex, t.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteTransition(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM transitions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ---- rules ----

func (r *PostgresRepository) CreateRule(ctx context.Context, rule *models.Rule) error {
	fillID(&rule.ID)
	if rule.Params == nil {
		rule.Params = map[string]any{}
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO rules (id, transition_id, name, condition_type, params, eval_order, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rule.ID, rule.TransitionID, rule.Name, rule.ConditionType, rule.Params, rule.EvalOrder, rule.IsActive)
	return err
}

func (r *PostgresRepository) ListActiveRules(ctx context.Context, transitionID string) ([]*models.Rule, error) {
	return r.listRules(ctx,
		`SELECT id, transition_id, name, condition_type, params, eval_order, is_active FROM rules
		 WHERE transition_id = $1 AND is_active ORDER BY eval_order, id`, transitionID)
}

func (r *PostgresRepository) ListRules(ctx context.Context, transitionID string) ([]*models.Rule, error) {
	return r.listRules(ctx,
		`SELECT id, transition_id, name, condition_type, params, eval_order, is_active FROM rules
		 WHERE transition_id = $1 ORDER BY eval_order, id`, transitionID)
}

func (r *PostgresRepository) listRules(ctx context.Context, query, transitionID string) ([]*models.Rule, error) {
	rows, err := r.db.Query(ctx, query, transitionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ruleSet []*models.Rule
	for rows.Next() {
		var rule models.Rule
		if err := rows.Scan(&rule.ID, &rule.TransitionID, &rule.Name, &rule.ConditionType,
			&rule.Params, &rule.EvalOrder, &rule.IsActive); err != nil {
			return nil, err
		}
		ruleSet = append(ruleSet, &rule)
	}
	return ruleSet, rows.Err()
}

func (r *PostgresRepository) UpdateRule(ctx context.Context, rule *models.Rule) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE rules SET name = $1, condition_type = $2, params = $3, eval_order = $4, is_active = $5 WHERE id = $6`,
		rule.Name, rule.ConditionType, rule.Params, rule.EvalOrder, rule.IsActive, rule.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteRule(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM rules WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ---- schema versions and fields ----

func (r *PostgresRepository) CreateSchemaVersion(ctx context.Context, sv *models.SchemaVersion) error {
	fillID(&sv.ID)
	sv.CreatedAt = time.Now().UTC()
	_, err := r.db.Exec(ctx,
		`INSERT INTO schema_versions (id, workflow_id, version, created_at) VALUES ($1, $2, $3, $4)`,
		sv.ID, sv.WorkflowID, sv.Version, sv.CreatedAt)
	return err
}

func (r *PostgresRepository) GetSchemaVersion(ctx context.Context, id string) (*models.SchemaVersion, error) {
	var sv models.SchemaVersion
	err := r.db.QueryRow(ctx,
		`SELECT id, workflow_id, version, created_at FROM schema_versions WHERE id = $1`, id).
		Scan(&sv.ID, &sv.WorkflowID, &sv.Version, &sv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sv, nil
}

func (r *PostgresRepository) ListSchemaVersions(ctx context.Context, workflowID string) ([]*models.SchemaVersion, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, workflow_id, version, created_at FROM schema_versions
		 WHERE workflow_id = $1 ORDER BY version`, workflowID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []*models.SchemaVersion
	for rows.Next() {
		var sv models.SchemaVersion
		if err := rows.Scan(&sv.ID, &sv.WorkflowID, &sv.Version, &sv.CreatedAt); err != nil {
			return nil, err
		}
		versions = append(versions, &sv)
	}
	return versions, rows.Err()
}

func (r *PostgresRepository) CreateSchemaField(ctx context.Context, f *models.SchemaField) error {
	fillID(&f.ID)
	if f.Options == nil {
		f.Options = map[string]any{}
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO schema_fields (id, schema_version_id, name, field_type, required, options)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		f.ID, f.SchemaVersionID, f.Name, f.FieldType, f.Required, f.Options)
	return err
}

func (r *PostgresRepository) ListSchemaFields(ctx context.Context, schemaVersionID string) ([]*models.SchemaField, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, schema_version_id, name, field_type, required, options FROM schema_fields
		 WHERE schema_version_id = $1 ORDER BY name`, schemaVersionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fields []*models.SchemaField
	for rows.Next() {
		var f models.SchemaField
		if err := rows.Scan(&f.ID, &f.SchemaVersionID, &f.Name, &f.FieldType, &f.Required, &f.Options); err != nil {
			return nil, err
		}
		fields = append(fields, &f)
	}
	return fields, rows.Err()
}

func (r *PostgresRepository) DeleteSchemaField(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM schema_fields WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ---- entities ----

const entityColumns = `id, workflow_id, current_state_id, schema_version_id, parent_id, data, created_by, created_at, updated_at`

func (r *PostgresRepository) CreateEntity(ctx context.Context, e *models.Entity) error {
	fillID(&e.ID)
	if e.Data == nil {
		e.Data = map[string]any{}
	}
	if e.CreatedAt.IsZero() {
		now := time.Now().UTC()
		e.CreatedAt, e.UpdatedAt = now, now
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO entities (id, workflow_id, current_state_id, schema_version_id, parent_id, data, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.WorkflowID, e.CurrentStateID, e.SchemaVersionID, e.ParentID, e.Data, e.CreatedBy, e.CreatedAt, e.UpdatedAt)
	return err
}

func (r *PostgresRepository) GetEntity(ctx context.Context, id string) (*models.Entity, error) {
	return scanEntity(r.db.QueryRow(ctx,
		`SELECT `+entityColumns+` FROM entities WHERE id = $1`, id))
}

func (r *PostgresRepository) ListEntities(ctx context.Context, filter EntityFilter) ([]*models.Entity, error) {
	query := `SELECT ` + entityColumns + ` FROM entities WHERE 1=1`
	var args []any
	if filter.WorkflowID != "" {
		args = append(args, filter.WorkflowID)
		query += fmt.Sprintf(" AND workflow_id = $%d", len(args))
	}
	if filter.CurrentStateID != "" {
		args = append(args, filter.CurrentStateID)
		query += fmt.Sprintf(" AND current_state_id = $%d", len(args))
	}
	if filter.ParentID != "" {
		args = append(args, filter.ParentID)
		query += fmt.Sprintf(" AND parent_id = $%d", len(args))
	}
	query += " ORDER BY created_at"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entities []*models.Entity
	for rows.Next() {
		var e models.Entity
		if err := rows.Scan(&e.ID, &e.WorkflowID, &e.CurrentStateID, &e.SchemaVersionID,
			&e.ParentID, &e.Data, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		entities = append(entities, &e)
	}
	return entities, rows.Err()
}

func (r *PostgresRepository) UpdateEntityData(ctx context.Context, id string, data map[string]any) error {
	if data == nil {
		data = map[string]any{}
	}
	tag, err := r.db.Exec(ctx,
		`UPDATE entities SET data = $1, updated_at = $2 WHERE id = $3`,
		data, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteEntity(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM entities WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CommitTransition applies a state change and its audit entry in a single
// transaction. The entity row is locked first and its current state
// re-checked so concurrent callers serialize on the row; the loser gets
// ErrStateConflict and no writes.
func (r *PostgresRepository) CommitTransition(ctx context.Context, entityID, fromStateID, toStateID string, entry *models.AuditLog) (*models.Entity, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var currentStateID string
	err = tx.QueryRow(ctx,
		`SELECT current_state_id FROM entities WHERE id = $1 FOR UPDATE`, entityID).
		Scan(&currentStateID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if currentStateID != fromStateID {
		return nil, ErrStateConflict
	}

	if _, err := tx.Exec(ctx,
		`UPDATE entities SET current_state_id = $1, updated_at = $2 WHERE id = $3`,
		toStateID, time.Now().UTC(), entityID); err != nil {
		return nil, fmt.Errorf("update entity state: %w", err)
	}

	if err := insertAudit(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("insert audit entry: %w", err)
	}

	entity, err := scanEntity(tx.QueryRow(ctx,
		`SELECT `+entityColumns+` FROM entities WHERE id = $1`, entityID))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return entity, nil
}

// ---- audit logs ----

func (r *PostgresRepository) AppendAudit(ctx context.Context, entry *models.AuditLog) error {
	return insertAudit(ctx, r.db, entry)
}

// execQuerier is the subset of pgx satisfied by both *pgxpool.Pool and
// pgx.Tx, letting audit inserts run inside or outside a transaction.
type execQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertAudit(ctx context.Context, db execQuerier, entry *models.AuditLog) error {
	fillID(&entry.ID)
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.Metadata == nil {
		entry.Metadata = map[string]any{}
	}
	_, err := db.Exec(ctx,
		`INSERT INTO audit_logs (id, entity_id, actor_id, action_type, from_state_id, to_state_id, rule_id, reason, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		entry.ID, entry.EntityID, entry.ActorID, entry.ActionType, entry.FromStateID,
		entry.ToStateID, entry.RuleID, entry.Reason, entry.Metadata, entry.CreatedAt)
	return err
}

func (r *PostgresRepository) ListAuditLogs(ctx context.Context, filter AuditFilter) ([]*models.AuditLog, error) {
	query := `SELECT id, entity_id, actor_id, action_type, from_state_id, to_state_id, rule_id, reason, metadata, created_at
		FROM audit_logs WHERE 1=1`
	var args []any
	if filter.EntityID != "" {
		args = append(args, filter.EntityID)
		query += fmt.Sprintf(" AND entity_id = $%d", len(args))
	}
	if filter.ActionType != "" {
		args = append(args, filter.ActionType)
		query += fmt.Sprintf(" AND action_type = $%d", len(args))
	}
	query += " ORDER BY created_at, id"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.AuditLog
	for rows.Next() {
		var entry models.AuditLog
		if err := rows.Scan(&entry.ID, &entry.EntityID, &entry.ActorID, &entry.ActionType,
			&entry.FromStateID, &entry.ToStateID, &entry.RuleID, &entry.Reason,
			&entry.Metadata, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

// ---- user profiles ----

func (r *PostgresRepository) GetUserProfileByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	var p models.UserProfile
	err := r.db.QueryRow(ctx,
		`SELECT id, email, name, role, created_at, updated_at FROM user_profiles WHERE email = $1`, email).
		Scan(&p.ID, &p.Email, &p.Name, &p.Role, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostgresRepository) CreateUserProfile(ctx context.Context, p *models.UserProfile) error {
	fillID(&p.ID)
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	_, err := r.db.Exec(ctx,
		`INSERT INTO user_profiles (id, email, name, role, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.Email, p.Name, p.Role, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *PostgresRepository) UpdateUserProfile(ctx context.Context, p *models.UserProfile) error {
	p.UpdatedAt = time.Now().UTC()
	tag, err := r.db.Exec(ctx,
		`UPDATE user_profiles SET name = $1, role = $2, updated_at = $3 WHERE id = $4`,
		p.Name, p.Role, p.UpdatedAt, p.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) ListUserProfiles(ctx context.Context) ([]*models.UserProfile, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, email, name, role, created_at, updated_at FROM user_profiles ORDER BY email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*models.UserProfile
	for rows.Next() {
		var p models.UserProfile
		if err := rows.Scan(&p.ID, &p.Email, &p.Name, &p.Role, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		profiles = append(profiles, &p)
	}
	return profiles, rows.Err()
}

// ---- helpers ----

func fillID(id *string) {
	if *id == "" {
		*id = uuid.New().String()
	}
}

func scanEntity(row pgx.Row) (*models.Entity, error) {
	var e models.Entity
	err := row.Scan(&e.ID, &e.WorkflowID, &e.CurrentStateID, &e.SchemaVersionID,
		&e.ParentID, &e.Data, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

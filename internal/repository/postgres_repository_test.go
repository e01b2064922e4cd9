package repository

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"flowtrack/backend/pkg/models"
)

func TestPostgresRepository(t *testing.T) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test-db"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2)),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	}()

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatal(err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()

	repo := NewPostgresRepository(pool)
	require.NoError(t, repo.Migrate(ctx))

	// Shared fixture: a two-state workflow with one guarded transition.
	workflow := &models.Workflow{Name: "IT Access Request", IsActive: true}
	require.NoError(t, repo.CreateWorkflow(ctx, workflow))

	stateNew := &models.State{WorkflowID: workflow.ID, Name: "New", OrderIndex: 0, IsInitial: true}
	stateReview := &models.State{WorkflowID: workflow.ID, Name: "In Review", OrderIndex: 1}
	require.NoError(t, repo.CreateState(ctx, stateNew))
	require.NoError(t, repo.CreateState(ctx, stateReview))

	submit := &models.Transition{
		WorkflowID:  workflow.ID,
		Name:        "Submit",
		FromStateID: stateNew.ID,
		ToStateID:   stateReview.ID,
	}
	require.NoError(t, repo.CreateTransition(ctx, submit))

	version := &models.SchemaVersion{WorkflowID: workflow.ID, Version: 1}
	require.NoError(t, repo.CreateSchemaVersion(ctx, version))
	require.NoError(t, repo.CreateSchemaField(ctx, &models.SchemaField{
		SchemaVersionID: version.ID,
		Name:            "requester",
		FieldType:       models.FieldTypeText,
		Required:        true,
	}))

	t.Run("workflow round trip", func(t *testing.T) {
		got, err := repo.GetWorkflow(ctx, workflow.ID)
		require.NoError(t, err)
		assert.Equal(t, "IT Access Request", got.Name)
		assert.True(t, got.IsActive)

		_, err = repo.GetWorkflow(ctx, "00000000-0000-0000-0000-000000000000")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("active rules ordered and filtered", func(t *testing.T) {
		second := &models.Rule{
			TransitionID:  submit.ID,
			Name:          "Require system",
			ConditionType: models.ConditionFieldPresent,
			Params:        map[string]any{"field": "system"},
			EvalOrder:     1,
			IsActive:      true,
		}
		first := &models.Rule{
			TransitionID:  submit.ID,
			Name:          "Require requester",
			ConditionType: models.ConditionFieldPresent,
			Params:        map[string]any{"field": "requester"},
			EvalOrder:     0,
			IsActive:      true,
		}
		inactive := &models.Rule{
			TransitionID:  submit.ID,
			Name:          "Disabled",
			ConditionType: models.ConditionFieldPresent,
			Params:        map[string]any{"field": "never"},
			EvalOrder:     0,
			IsActive:      false,
		}
		require.NoError(t, repo.CreateRule(ctx, second))
		require.NoError(t, repo.CreateRule(ctx, first))
		require.NoError(t, repo.CreateRule(ctx, inactive))

		active, err := repo.ListActiveRules(ctx, submit.ID)
		require.NoError(t, err)
		require.Len(t, active, 2)
		assert.Equal(t, "Require requester", active[0].Name)
		assert.Equal(t, "Require system", active[1].Name)
		assert.Equal(t, "requester", active[0].Params["field"])
	})

	t.Run("find transition deterministic", func(t *testing.T) {
		got, err := repo.FindTransition(ctx, workflow.ID, stateNew.ID, stateReview.ID)
		require.NoError(t, err)
		assert.Equal(t, submit.ID, got.ID)

		_, err = repo.FindTransition(ctx, workflow.ID, stateReview.ID, stateNew.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("commit transition atomically", func(t *testing.T) {
		entity := &models.Entity{
			WorkflowID:      workflow.ID,
			CurrentStateID:  stateNew.ID,
			SchemaVersionID: version.ID,
			Data:            map[string]any{"requester": "Sam"},
		}
		require.NoError(t, repo.CreateEntity(ctx, entity))

		entry := &models.AuditLog{
			EntityID:    entity.ID,
			ActionType:  models.ActionStateChange,
			FromStateID: &stateNew.ID,
			ToStateID:   &stateReview.ID,
			Reason:      "Transitioned via Submit",
		}
		updated, err := repo.CommitTransition(ctx, entity.ID, stateNew.ID, stateReview.ID, entry)
		require.NoError(t, err)
		assert.Equal(t, stateReview.ID, updated.CurrentStateID)

		trail, err := repo.ListAuditLogs(ctx, AuditFilter{EntityID: entity.ID})
		require.NoError(t, err)
		require.Len(t, trail, 1)
		assert.Equal(t, models.ActionStateChange, trail[0].ActionType)
		assert.Equal(t, "Transitioned via Submit", trail[0].Reason)
	})

	t.Run("commit transition conflict leaves no trace", func(t *testing.T) {
		entity := &models.Entity{
			WorkflowID:      workflow.ID,
			CurrentStateID:  stateReview.ID,
			SchemaVersionID: version.ID,
			Data:            map[string]any{},
		}
		require.NoError(t, repo.CreateEntity(ctx, entity))

		// The caller resolved against stateNew, but the entity has moved on.
		entry := &models.AuditLog{
			EntityID:   entity.ID,
			ActionType: models.ActionStateChange,
			Reason:     "stale",
		}
		_, err := repo.CommitTransition(ctx, entity.ID, stateNew.ID, stateReview.ID, entry)
		assert.ErrorIs(t, err, ErrStateConflict)

		got, err := repo.GetEntity(ctx, entity.ID)
		require.NoError(t, err)
		assert.Equal(t, stateReview.ID, got.CurrentStateID)

		trail, err := repo.ListAuditLogs(ctx, AuditFilter{EntityID: entity.ID})
		require.NoError(t, err)
		assert.Empty(t, trail)
	})

	t.Run("append audit for blocked rule", func(t *testing.T) {
		entity := &models.Entity{
			WorkflowID:      workflow.ID,
			CurrentStateID:  stateNew.ID,
			SchemaVersionID: version.ID,
			Data:            map[string]any{},
		}
		require.NoError(t, repo.CreateEntity(ctx, entity))

		entry := &models.AuditLog{
			EntityID:    entity.ID,
			ActionType:  models.ActionRuleBlock,
			FromStateID: &stateNew.ID,
			ToStateID:   &stateReview.ID,
			Reason:      "requester is required",
		}
		require.NoError(t, repo.AppendAudit(ctx, entry))

		trail, err := repo.ListAuditLogs(ctx, AuditFilter{EntityID: entity.ID, ActionType: models.ActionRuleBlock})
		require.NoError(t, err)
		require.Len(t, trail, 1)
		assert.Equal(t, "requester is required", trail[0].Reason)

		// State unchanged by a blocked attempt.
		got, err := repo.GetEntity(ctx, entity.ID)
		require.NoError(t, err)
		assert.Equal(t, stateNew.ID, got.CurrentStateID)
	})

	t.Run("occupied state cannot be deleted", func(t *testing.T) {
		err := repo.DeleteState(ctx, stateNew.ID)
		assert.Error(t, err, "states referenced by entities are protected")
	})

	t.Run("entity filters", func(t *testing.T) {
		entities, err := repo.ListEntities(ctx, EntityFilter{WorkflowID: workflow.ID, CurrentStateID: stateReview.ID})
		require.NoError(t, err)
		for _, e := range entities {
			assert.Equal(t, stateReview.ID, e.CurrentStateID)
		}
		assert.NotEmpty(t, entities)
	})

	t.Run("user profiles", func(t *testing.T) {
		profile := &models.UserProfile{Email: "ops@example.com", Role: models.RoleOperator}
		require.NoError(t, repo.CreateUserProfile(ctx, profile))

		got, err := repo.GetUserProfileByEmail(ctx, "ops@example.com")
		require.NoError(t, err)
		assert.Equal(t, models.RoleOperator, got.Role)

		_, err = repo.GetUserProfileByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

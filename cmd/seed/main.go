package main

import (
	"context"
	"fmt"
	"log"

	"flowtrack/backend/internal/config"
	"flowtrack/backend/internal/logging"
	"flowtrack/backend/internal/repository"
	"flowtrack/backend/pkg/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	ctx := context.Background()
	logger := logging.NewLogger()

	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.SSLMode,
	)
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pool.Close()

	repo := repository.NewPostgresRepository(pool)
	if err := repo.Migrate(ctx); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	// 1. Ensure an admin user exists
	adminEmail := "admin@example.com"
	if _, err := repo.GetUserProfileByEmail(ctx, adminEmail); err != nil {
		logger.Info("Creating admin user", "email", adminEmail)
		admin := &models.UserProfile{Email: adminEmail, Name: "Admin", Role: models.RoleAdmin}
		if err := repo.CreateUserProfile(ctx, admin); err != nil {
			log.Fatalf("Failed to create admin user: %v", err)
		}
	}

	// 2. Skip if the sample workflow is already seeded
	existing, err := repo.ListWorkflows(ctx)
	if err != nil {
		log.Fatalf("Failed to list workflows: %v", err)
	}
	for _, w := range existing {
		if w.Name == "IT Access Request" {
			logger.Info("Sample workflow already seeded", "id", w.ID)
			return
		}
	}

	// 3. Workflow and schema
	workflow := &models.Workflow{Name: "IT Access Request", IsActive: true}
	if err := repo.CreateWorkflow(ctx, workflow); err != nil {
		log.Fatalf("Failed to create workflow: %v", err)
	}

	version := &models.SchemaVersion{WorkflowID: workflow.ID, Version: 1}
	if err := repo.CreateSchemaVersion(ctx, version); err != nil {
		log.Fatalf("Failed to create schema version: %v", err)
	}

	fields := []*models.SchemaField{
		{Name: "requester", FieldType: models.FieldTypeText, Required: true},
		{Name: "department", FieldType: models.FieldTypeEnum, Required: true,
			Options: map[string]any{"options": []any{"Engineering", "Finance", "HR"}}},
		{Name: "system", FieldType: models.FieldTypeText, Required: true},
		{Name: "priority", FieldType: models.FieldTypeEnum, Required: true,
			Options: map[string]any{"options": []any{"Low", "Medium", "High"}}},
		{Name: "manager_approval", FieldType: models.FieldTypeBoolean},
	}
	for _, f := range fields {
		f.SchemaVersionID = version.ID
		if err := repo.CreateSchemaField(ctx, f); err != nil {
			log.Fatalf("Failed to create schema field %s: %v", f.Name, err)
		}
	}

	// 4. States
	stateNames := []struct {
		name      string
		order     int
		isInitial bool
	}{
		{"New", 0, true},
		{"In Review", 1, false},
		{"Approved", 2, false},
		{"Done", 3, false},
	}
	states := map[string]*models.State{}
	for _, sn := range stateNames {
		state := &models.State{
			WorkflowID: workflow.ID,
			Name:       sn.name,
			OrderIndex: sn.order,
			IsInitial:  sn.isInitial,
		}
		if err := repo.CreateState(ctx, state); err != nil {
			log.Fatalf("Failed to create state %s: %v", sn.name, err)
		}
		states[sn.name] = state
	}

	// 5. Transitions
	edges := []struct {
		name string
		from string
		to   string
	}{
		{"Submit", "New", "In Review"},
		{"Approve", "In Review", "Approved"},
		{"Complete", "Approved", "Done"},
	}
	transitions := map[string]*models.Transition{}
	for i, edge := range edges {
		transition := &models.Transition{
			WorkflowID:  workflow.ID,
			Name:        edge.name,
			FromStateID: states[edge.from].ID,
			ToStateID:   states[edge.to].ID,
			OrderIndex:  i,
		}
		if err := repo.CreateTransition(ctx, transition); err != nil {
			log.Fatalf("Failed to create transition %s: %v", edge.name, err)
		}
		transitions[edge.name] = transition
	}

	// 6. Guard rules: Submit requires requester and system; Approve needs
	// manager approval for high-priority requests.
	rules := []*models.Rule{
		{
			TransitionID:  transitions["Submit"].ID,
			Name:          "Require requester",
			ConditionType: models.ConditionFieldPresent,
			Params:        map[string]any{"field": "requester"},
			EvalOrder:     0,
			IsActive:      true,
		},
		{
			TransitionID:  transitions["Submit"].ID,
			Name:          "Require system",
			ConditionType: models.ConditionFieldPresent,
			Params:        map[string]any{"field": "system"},
			EvalOrder:     1,
			IsActive:      true,
		},
		{
			TransitionID:  transitions["Approve"].ID,
			Name:          "High priority needs manager approval",
			ConditionType: models.ConditionFieldEquals,
			Params: map[string]any{
				"field":    "priority",
				"value":    "High",
				"requires": "manager_approval",
			},
			EvalOrder: 0,
			IsActive:  true,
		},
	}
	for _, rule := range rules {
		if err := repo.CreateRule(ctx, rule); err != nil {
			log.Fatalf("Failed to create rule %s: %v", rule.Name, err)
		}
	}

	// 7. Sample entities: one request and a child approval task
	parent := &models.Entity{
		WorkflowID:      workflow.ID,
		CurrentStateID:  states["New"].ID,
		SchemaVersionID: version.ID,
		Data: map[string]any{
			"requester":  "Alice Example",
			"department": "Engineering",
			"system":     "GitLab",
			"priority":   "High",
		},
	}
	if err := repo.CreateEntity(ctx, parent); err != nil {
		log.Fatalf("Failed to create sample entity: %v", err)
	}

	child := &models.Entity{
		WorkflowID:      workflow.ID,
		CurrentStateID:  states["New"].ID,
		SchemaVersionID: version.ID,
		ParentID:        &parent.ID,
		Data: map[string]any{
			"requester":  "Alice Example",
			"department": "Engineering",
			"system":     "GitLab approval task",
			"priority":   "Low",
		},
	}
	if err := repo.CreateEntity(ctx, child); err != nil {
		log.Fatalf("Failed to create child entity: %v", err)
	}

	logger.Info("Seeding complete!",
		"workflow", workflow.ID,
		"entity", parent.ID,
		"child", child.ID,
	)
}

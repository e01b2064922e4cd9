package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"flowtrack/backend/internal/repository"
	"flowtrack/backend/pkg/models"
)

// MockRepository satisfies repository.Repository for entity service tests.
type MockRepository struct {
	MockStore
}

func (m *MockRepository) Ping(ctx context.Context) error { return nil }

func (m *MockRepository) CreateWorkflow(ctx context.Context, w *models.Workflow) error { return nil }
func (m *MockRepository) GetWorkflow(ctx context.Context, id string) (*models.Workflow, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Workflow), args.Error(1)
}
func (m *MockRepository) ListWorkflows(ctx context.Context) ([]*models.Workflow, error) {
	return nil, nil
}
func (m *MockRepository) UpdateWorkflow(ctx context.Context, w *models.Workflow) error { return nil }
func (m *MockRepository) DeleteWorkflow(ctx context.Context, id string) error          { return nil }

func (m *MockRepository) CreateState(ctx context.Context, s *models.State) error { return nil }
func (m *MockRepository) GetState(ctx context.Context, id string) (*models.State, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.State), args.Error(1)
}
func (m *MockRepository) ListStates(ctx context.Context, workflowID string) ([]*models.State, error) {
	return nil, nil
}
func (m *MockRepository) UpdateState(ctx context.Context, s *models.State) error { return nil }
func (m *MockRepository) DeleteState(ctx context.Context, id string) error       { return nil }

func (m *MockRepository) CreateTransition(ctx context.Context, t *models.Transition) error {
	return nil
}
func (m *MockRepository) ListTransitions(ctx context.Context, workflowID string) ([]*models.Transition, error) {
	return nil, nil
}
func (m *MockRepository) UpdateTransition(ctx context.Context, t *models.Transition) error {
	return nil
}
func (m *MockRepository) DeleteTransition(ctx context.Context, id string) error { return nil }

func (m *MockRepository) CreateRule(ctx context.Context, r *models.Rule) error { return nil }
func (m *MockRepository) ListRules(ctx context.Context, transitionID string) ([]*models.Rule, error) {
	return nil, nil
}
func (m *MockRepository) UpdateRule(ctx context.Context, r *models.Rule) error { return nil }
func (m *MockRepository) DeleteRule(ctx context.Context, id string) error      { return nil }

func (m *MockRepository) CreateSchemaVersion(ctx context.Context, sv *models.SchemaVersion) error {
	return nil
}
func (m *MockRepository) GetSchemaVersion(ctx context.Context, id string) (*models.SchemaVersion, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SchemaVersion), args.Error(1)
}
func (m *MockRepository) ListSchemaVersions(ctx context.Context, workflowID string) ([]*models.SchemaVersion, error) {
	return nil, nil
}
func (m *MockRepository) CreateSchemaField(ctx context.Context, f *models.SchemaField) error {
	return nil
}
func (m *MockRepository) ListSchemaFields(ctx context.Context, schemaVersionID string) ([]*models.SchemaField, error) {
	args := m.Called(ctx, schemaVersionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.SchemaField), args.Error(1)
}
func (m *MockRepository) DeleteSchemaField(ctx context.Context, id string) error { return nil }

func (m *MockRepository) CreateEntity(ctx context.Context, e *models.Entity) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}
func (m *MockRepository) ListEntities(ctx context.Context, filter repository.EntityFilter) ([]*models.Entity, error) {
	return nil, nil
}
func (m *MockRepository) UpdateEntityData(ctx context.Context, id string, data map[string]any) error {
	args := m.Called(ctx, id, data)
	return args.Error(0)
}
func (m *MockRepository) DeleteEntity(ctx context.Context, id string) error { return nil }

func (m *MockRepository) ListAuditLogs(ctx context.Context, filter repository.AuditFilter) ([]*models.AuditLog, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AuditLog), args.Error(1)
}

func (m *MockRepository) GetUserProfileByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	return nil, repository.ErrNotFound
}
func (m *MockRepository) CreateUserProfile(ctx context.Context, p *models.UserProfile) error {
	return nil
}
func (m *MockRepository) UpdateUserProfile(ctx context.Context, p *models.UserProfile) error {
	return nil
}
func (m *MockRepository) ListUserProfiles(ctx context.Context) ([]*models.UserProfile, error) {
	return nil, nil
}

func requestSchemaFields() []*models.SchemaField {
	return []*models.SchemaField{
		{ID: "f-1", SchemaVersionID: "sv-1", Name: "requester", FieldType: models.FieldTypeText, Required: true},
		{ID: "f-2", SchemaVersionID: "sv-1", Name: "priority", FieldType: models.FieldTypeEnum,
			Options: map[string]any{"options": []any{"Low", "Medium", "High"}}},
		{ID: "f-3", SchemaVersionID: "sv-1", Name: "manager_approval", FieldType: models.FieldTypeBoolean},
	}
}

func setupCreateMocks(repo *MockRepository) {
	repo.On("GetWorkflow", mock.Anything, "wf-1").Return(&models.Workflow{ID: "wf-1", Name: "Test", IsActive: true}, nil)
	repo.On("GetState", mock.Anything, "state-new").Return(&models.State{ID: "state-new", WorkflowID: "wf-1", Name: "New"}, nil)
	repo.On("GetSchemaVersion", mock.Anything, "sv-1").Return(&models.SchemaVersion{ID: "sv-1", WorkflowID: "wf-1", Version: 1}, nil)
	repo.On("ListSchemaFields", mock.Anything, "sv-1").Return(requestSchemaFields(), nil)
}

func TestCreateEntity(t *testing.T) {
	repo := new(MockRepository)
	setupCreateMocks(repo)
	repo.On("CreateEntity", mock.Anything, mock.MatchedBy(func(e *models.Entity) bool {
		return e.WorkflowID == "wf-1" && e.CurrentStateID == "state-new" && e.ID != ""
	})).Return(nil)
	repo.On("AppendAudit", mock.Anything, mock.MatchedBy(func(entry *models.AuditLog) bool {
		return entry.ActionType == models.ActionSystem && entry.Reason == "Entity created"
	})).Return(nil)

	svc := NewEntityService(repo)
	entity, err := svc.Create(context.Background(), CreateEntityInput{
		WorkflowID:      "wf-1",
		CurrentStateID:  "state-new",
		SchemaVersionID: "sv-1",
		Data:            map[string]any{"requester": "Sam", "priority": "Low"},
	}, &models.Actor{ID: "user-1", Role: models.RoleOperator})

	require.NoError(t, err)
	assert.NotEmpty(t, entity.ID)
	assert.Equal(t, "state-new", entity.CurrentStateID)
	repo.AssertExpectations(t)
}

func TestCreateEntity_RequiredFieldMissing(t *testing.T) {
	repo := new(MockRepository)
	setupCreateMocks(repo)

	svc := NewEntityService(repo)
	_, err := svc.Create(context.Background(), CreateEntityInput{
		WorkflowID:      "wf-1",
		CurrentStateID:  "state-new",
		SchemaVersionID: "sv-1",
		Data:            map[string]any{"priority": "Low"},
	}, nil)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "requester is required", verr.Detail)
	repo.AssertNotCalled(t, "CreateEntity", mock.Anything, mock.Anything)
}

func TestCreateEntity_EnumValueRejected(t *testing.T) {
	repo := new(MockRepository)
	setupCreateMocks(repo)

	svc := NewEntityService(repo)
	_, err := svc.Create(context.Background(), CreateEntityInput{
		WorkflowID:      "wf-1",
		CurrentStateID:  "state-new",
		SchemaVersionID: "sv-1",
		Data:            map[string]any{"requester": "Sam", "priority": "Urgent"},
	}, nil)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Detail, "priority must be one of")
}

func TestCreateEntity_StateFromOtherWorkflow(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetWorkflow", mock.Anything, "wf-1").Return(&models.Workflow{ID: "wf-1"}, nil)
	repo.On("GetState", mock.Anything, "state-foreign").Return(&models.State{ID: "state-foreign", WorkflowID: "wf-2"}, nil)

	svc := NewEntityService(repo)
	_, err := svc.Create(context.Background(), CreateEntityInput{
		WorkflowID:      "wf-1",
		CurrentStateID:  "state-foreign",
		SchemaVersionID: "sv-1",
	}, nil)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "state does not belong to workflow", verr.Detail)
}

func TestUpdateData(t *testing.T) {
	entity := testEntity()
	entity.Data = map[string]any{"requester": "Sam", "priority": "Low"}

	repo := new(MockRepository)
	repo.On("GetEntity", mock.Anything, "entity-1").Return(entity, nil)
	repo.On("ListSchemaFields", mock.Anything, "sv-1").Return(requestSchemaFields(), nil)
	repo.On("UpdateEntityData", mock.Anything, "entity-1", mock.Anything).Return(nil)
	repo.On("AppendAudit", mock.Anything, mock.MatchedBy(func(entry *models.AuditLog) bool {
		return entry.ActionType == models.ActionFieldUpdate &&
			entry.Reason == "Updated fields: manager_approval, priority"
	})).Return(nil)

	svc := NewEntityService(repo)
	updated, err := svc.UpdateData(context.Background(), "entity-1",
		map[string]any{"requester": "Sam", "priority": "High", "manager_approval": true}, nil)

	require.NoError(t, err)
	assert.Equal(t, "High", updated.Data["priority"])
	repo.AssertExpectations(t)
}

func TestHistory(t *testing.T) {
	entries := []*models.AuditLog{
		{ID: "a-1", EntityID: "entity-1", ActionType: models.ActionSystem, Reason: "Entity created"},
		{ID: "a-2", EntityID: "entity-1", ActionType: models.ActionStateChange, Reason: "Transitioned via Submit"},
	}

	repo := new(MockRepository)
	repo.On("GetEntity", mock.Anything, "entity-1").Return(testEntity(), nil)
	repo.On("ListAuditLogs", mock.Anything, repository.AuditFilter{EntityID: "entity-1"}).Return(entries, nil)

	svc := NewEntityService(repo)
	got, err := svc.History(context.Background(), "entity-1")

	require.NoError(t, err)
	assert.Len(t, got, 2)
}

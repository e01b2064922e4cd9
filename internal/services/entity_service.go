package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"flowtrack/backend/internal/repository"
	"flowtrack/backend/pkg/models"
)

// ValidationError reports an invalid entity payload or reference. The API
// layer maps it to a 400 response.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string { return e.Detail }

// CreateEntityInput carries the caller-supplied parts of a new entity.
type CreateEntityInput struct {
	WorkflowID      string         `json:"workflow_id"`
	CurrentStateID  string         `json:"current_state_id"`
	SchemaVersionID string         `json:"schema_version_id"`
	ParentID        string         `json:"parent_id,omitempty"`
	Data            map[string]any `json:"data"`
}

// EntityService manages entity lifecycle outside of state transitions:
// creation with schema validation, and data payload updates. Every
// mutation appends an audit entry.
type EntityService struct {
	repo repository.Repository
}

// NewEntityService creates a new EntityService.
func NewEntityService(repo repository.Repository) *EntityService {
	return &EntityService{repo: repo}
}

// Create validates the input against the workflow's schema and persists a
// new entity in the caller-named state. The state the entity starts in is
// whatever the caller provides (is_initial is advisory only); it must
// belong to the same workflow as the entity.
func (s *EntityService) Create(ctx context.Context, in CreateEntityInput, actor *models.Actor) (*models.Entity, error) {
	if _, err := s.repo.GetWorkflow(ctx, in.WorkflowID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &ValidationError{Detail: "unknown workflow"}
		}
		return nil, fmt.Errorf("load workflow %s: %w", in.WorkflowID, err)
	}

	state, err := s.repo.GetState(ctx, in.CurrentStateID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &ValidationError{Detail: "unknown state"}
		}
		return nil, fmt.Errorf("load state %s: %w", in.CurrentStateID, err)
	}
	if state.WorkflowID != in.WorkflowID {
		return nil, &ValidationError{Detail: "state does not belong to workflow"}
	}

	version, err := s.repo.GetSchemaVersion(ctx, in.SchemaVersionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &ValidationError{Detail: "unknown schema version"}
		}
		return nil, fmt.Errorf("load schema version %s: %w", in.SchemaVersionID, err)
	}
	if version.WorkflowID != in.WorkflowID {
		return nil, &ValidationError{Detail: "schema version does not belong to workflow"}
	}

	if in.ParentID != "" {
		parent, err := s.repo.GetEntity(ctx, in.ParentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, &ValidationError{Detail: "unknown parent entity"}
			}
			return nil, fmt.Errorf("load parent %s: %w", in.ParentID, err)
		}
		if parent.WorkflowID != in.WorkflowID {
			return nil, &ValidationError{Detail: "parent entity belongs to a different workflow"}
		}
	}

	if err := s.validateData(ctx, in.SchemaVersionID, in.Data); err != nil {
		return nil, err
	}

	data := in.Data
	if data == nil {
		data = map[string]any{}
	}
	now := time.Now().UTC()
	entity := &models.Entity{
		ID:              uuid.New().String(),
		WorkflowID:      in.WorkflowID,
		CurrentStateID:  in.CurrentStateID,
		SchemaVersionID: in.SchemaVersionID,
		Data:            data,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if in.ParentID != "" {
		entity.ParentID = &in.ParentID
	}
	if actor != nil {
		entity.CreatedBy = &actor.ID
	}

	if err := s.repo.CreateEntity(ctx, entity); err != nil {
		return nil, fmt.Errorf("create entity: %w", err)
	}

	entry := newAuditEntry(entity.ID, actor, models.ActionSystem, "Entity created")
	entry.ToStateID = &entity.CurrentStateID
	if err := s.repo.AppendAudit(ctx, entry); err != nil {
		return nil, fmt.Errorf("record entity creation: %w", err)
	}
	return entity, nil
}

// UpdateData replaces an entity's data payload after validating it against
// the entity's schema version, and appends a field_update audit entry
// naming the fields that changed.
func (s *EntityService) UpdateData(ctx context.Context, entityID string, data map[string]any, actor *models.Actor) (*models.Entity, error) {
	entity, err := s.repo.GetEntity(ctx, entityID)
	if err != nil {
		return nil, fmt.Errorf("load entity %s: %w", entityID, err)
	}

	if err := s.validateData(ctx, entity.SchemaVersionID, data); err != nil {
		return nil, err
	}

	changed := changedFields(entity.Data, data)
	if err := s.repo.UpdateEntityData(ctx, entityID, data); err != nil {
		return nil, fmt.Errorf("update entity data: %w", err)
	}
	entity.Data = data

	reason := "Updated fields"
	if len(changed) > 0 {
		reason = "Updated fields: "
		for i, name := range changed {
			if i > 0 {
				reason += ", "
			}
			reason += name
		}
	}
	entry := newAuditEntry(entityID, actor, models.ActionFieldUpdate, reason)
	if err := s.repo.AppendAudit(ctx, entry); err != nil {
		return nil, fmt.Errorf("record field update: %w", err)
	}
	return entity, nil
}

// History returns the entity's audit trail, oldest first.
func (s *EntityService) History(ctx context.Context, entityID string) ([]*models.AuditLog, error) {
	if _, err := s.repo.GetEntity(ctx, entityID); err != nil {
		return nil, fmt.Errorf("load entity %s: %w", entityID, err)
	}
	return s.repo.ListAuditLogs(ctx, repository.AuditFilter{EntityID: entityID})
}

// validateData checks the payload against the declared schema fields:
// required fields must carry a non-empty value, and present values must
// match their declared type. Undeclared fields are allowed through; the
// payload is deliberately open-ended.
func (s *EntityService) validateData(ctx context.Context, schemaVersionID string, data map[string]any) error {
	fields, err := s.repo.ListSchemaFields(ctx, schemaVersionID)
	if err != nil {
		return fmt.Errorf("load schema fields: %w", err)
	}

	for _, field := range fields {
		v, present := data[field.Name]
		if !present || v == nil || v == "" {
			if field.Required {
				return &ValidationError{Detail: fmt.Sprintf("%s is required", field.Name)}
			}
			continue
		}
		if err := checkFieldType(field, v); err != nil {
			return err
		}
	}
	return nil
}

func checkFieldType(field *models.SchemaField, v any) error {
	switch field.FieldType {
	case models.FieldTypeNumber:
		if !isNumeric(v) {
			return &ValidationError{Detail: fmt.Sprintf("%s must be a number", field.Name)}
		}
	case models.FieldTypeBoolean:
		if _, ok := v.(bool); !ok {
			return &ValidationError{Detail: fmt.Sprintf("%s must be a boolean", field.Name)}
		}
	case models.FieldTypeText, models.FieldTypeDate, models.FieldTypeDatetime:
		if _, ok := v.(string); !ok {
			return &ValidationError{Detail: fmt.Sprintf("%s must be a string", field.Name)}
		}
	case models.FieldTypeEnum:
		options := field.EnumOptions()
		for _, opt := range options {
			if opt == v {
				return nil
			}
		}
		return &ValidationError{Detail: fmt.Sprintf("%s must be one of %v", field.Name, options)}
	}
	return nil
}

func isNumeric(v any) bool {
	switch t := v.(type) {
	case float64, float32, int, int32, int64, uint, uint64:
		return true
	case string:
		_, err := strconv.ParseFloat(t, 64)
		return err == nil
	default:
		return false
	}
}

// changedFields reports the keys whose values differ between the old and
// new payload, sorted for stable audit text.
func changedFields(before, after map[string]any) []string {
	seen := map[string]bool{}
	var names []string
	for k, v := range after {
		if prev, ok := before[k]; !ok || fmt.Sprintf("%v", prev) != fmt.Sprintf("%v", v) {
			if !seen[k] {
				names = append(names, k)
				seen[k] = true
			}
		}
	}
	for k := range before {
		if _, ok := after[k]; !ok && !seen[k] {
			names = append(names, k)
			seen[k] = true
		}
	}
	sort.Strings(names)
	return names
}

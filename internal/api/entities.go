package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"

	"flowtrack/backend/internal/auth"
	"flowtrack/backend/internal/repository"
	"flowtrack/backend/internal/services"
	"flowtrack/backend/pkg/models"
)

// ListEntities returns entities, optionally filtered by workflow, current
// state or parent
// (GET /api/v1/entities)
func (s *Server) ListEntities(c echo.Context) error {
	ctx := c.Request().Context()

	var filter repository.EntityFilter
	params := c.QueryParams()
	if err := runtime.BindQueryParameter("form", true, false, "workflow_id", params, &filter.WorkflowID); err != nil {
		return problem(c, http.StatusBadRequest, "Bad Request", "invalid workflow_id: "+err.Error())
	}
	if err := runtime.BindQueryParameter("form", true, false, "current_state_id", params, &filter.CurrentStateID); err != nil {
		return problem(c, http.StatusBadRequest, "Bad Request", "invalid current_state_id: "+err.Error())
	}
	if err := runtime.BindQueryParameter("form", true, false, "parent_id", params, &filter.ParentID); err != nil {
		return problem(c, http.StatusBadRequest, "Bad Request", "invalid parent_id: "+err.Error())
	}

	entities, err := s.Repo.ListEntities(ctx, filter)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, entities)
}

// CreateEntity creates an entity after validating its payload against the
// workflow schema
// (POST /api/v1/entities)
func (s *Server) CreateEntity(c echo.Context) error {
	ctx := c.Request().Context()

	var in services.CreateEntityInput
	if err := c.Bind(&in); err != nil {
		return problem(c, http.StatusBadRequest, "Bad Request", "Invalid request body: "+err.Error())
	}

	actor, _ := auth.ActorFrom(ctx)
	entity, err := s.Entities.Create(ctx, in, actor)
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			return problem(c, http.StatusBadRequest, "Bad Request", verr.Detail)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create entity: "+err.Error())
	}
	return c.JSON(http.StatusCreated, entity)
}

// GetEntity returns a single entity
// (GET /api/v1/entities/:id)
func (s *Server) GetEntity(c echo.Context) error {
	ctx := c.Request().Context()

	entity, err := s.Repo.GetEntity(ctx, c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		return problem(c, http.StatusNotFound, "Not Found", "entity not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, entity)
}

// UpdateEntityData replaces an entity's data payload
// (PUT /api/v1/entities/:id/data)
func (s *Server) UpdateEntityData(c echo.Context) error {
	ctx := c.Request().Context()

	var data map[string]any
	if err := c.Bind(&data); err != nil {
		return problem(c, http.StatusBadRequest, "Bad Request", "Invalid request body: "+err.Error())
	}

	actor, _ := auth.ActorFrom(ctx)
	entity, err := s.Entities.UpdateData(ctx, c.Param("id"), data, actor)
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			return problem(c, http.StatusBadRequest, "Bad Request", verr.Detail)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return problem(c, http.StatusNotFound, "Not Found", "entity not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, entity)
}

// DeleteEntity deletes an entity and its audit trail
// (DELETE /api/v1/entities/:id)
func (s *Server) DeleteEntity(c echo.Context) error {
	ctx := c.Request().Context()

	err := s.Repo.DeleteEntity(ctx, c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		return problem(c, http.StatusNotFound, "Not Found", "entity not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// transitionBody selects the transition to apply, by id or by target state.
type transitionBody struct {
	Transition string `json:"transition"`
	ToState    string `json:"to_state"`
}

// blockedResponse is the body returned when a guard rule stops a transition.
type blockedResponse struct {
	Detail string `json:"detail"`
	Rule   string `json:"rule"`
	Reason string `json:"reason"`
}

// TransitionEntity applies a workflow transition to an entity
// (POST /api/v1/entities/:id/transition)
func (s *Server) TransitionEntity(c echo.Context) error {
	ctx := c.Request().Context()

	var body transitionBody
	if err := c.Bind(&body); err != nil {
		return problem(c, http.StatusBadRequest, "Bad Request", "Invalid request body: "+err.Error())
	}

	actor, _ := auth.ActorFrom(ctx)
	entity, err := s.Transitions.ApplyTransition(ctx, services.TransitionRequest{
		EntityID:     c.Param("id"),
		TransitionID: body.Transition,
		ToStateID:    body.ToState,
	}, actor)

	switch {
	case err == nil:
		return c.JSON(http.StatusOK, entity)
	case errors.Is(err, services.ErrMissingSelector):
		return problem(c, http.StatusBadRequest, "Bad Request", "Provide to_state or transition.")
	case errors.Is(err, services.ErrInvalidTransition):
		return problem(c, http.StatusBadRequest, "Bad Request", "Invalid transition.")
	case errors.Is(err, services.ErrStateMismatch):
		return problem(c, http.StatusBadRequest, "Bad Request", "Transition does not match entity state.")
	case errors.Is(err, repository.ErrNotFound):
		return problem(c, http.StatusNotFound, "Not Found", "entity not found")
	case errors.Is(err, repository.ErrStateConflict):
		return problem(c, http.StatusConflict, "Conflict", "Entity state changed concurrently; retry.")
	}

	var blocked *services.BlockedError
	if errors.As(err, &blocked) {
		return c.JSON(http.StatusBadRequest, blockedResponse{
			Detail: "Rule blocked transition",
			Rule:   blocked.RuleID,
			Reason: blocked.Reason,
		})
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

// EntityHistory returns the audit trail of an entity, oldest first
// (GET /api/v1/entities/:id/history)
func (s *Server) EntityHistory(c echo.Context) error {
	ctx := c.Request().Context()

	trail, err := s.Entities.History(ctx, c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		return problem(c, http.StatusNotFound, "Not Found", "entity not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if trail == nil {
		trail = []*models.AuditLog{}
	}
	return c.JSON(http.StatusOK, trail)
}

// ListAuditLogs returns audit entries, optionally filtered by entity or
// action type. The trail is read-only; there are no write endpoints.
// (GET /api/v1/audit-logs)
func (s *Server) ListAuditLogs(c echo.Context) error {
	ctx := c.Request().Context()

	var filter repository.AuditFilter
	params := c.QueryParams()
	if err := runtime.BindQueryParameter("form", true, false, "entity_id", params, &filter.EntityID); err != nil {
		return problem(c, http.StatusBadRequest, "Bad Request", "invalid entity_id: "+err.Error())
	}
	var action string
	if err := runtime.BindQueryParameter("form", true, false, "action_type", params, &action); err != nil {
		return problem(c, http.StatusBadRequest, "Bad Request", "invalid action_type: "+err.Error())
	}
	filter.ActionType = models.ActionType(action)

	logs, err := s.Repo.ListAuditLogs(ctx, filter)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if logs == nil {
		logs = []*models.AuditLog{}
	}
	return c.JSON(http.StatusOK, logs)
}

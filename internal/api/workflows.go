package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"flowtrack/backend/internal/repository"
	"flowtrack/backend/pkg/models"
)

// ListWorkflows returns all workflow definitions
// (GET /api/v1/workflows)
func (s *Server) ListWorkflows(c echo.Context) error {
	ctx := c.Request().Context()

	workflows, err := s.Repo.ListWorkflows(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, workflows)
}

// CreateWorkflow creates a workflow definition
// (POST /api/v1/workflows)
func (s *Server) CreateWorkflow(c echo.Context) error {
	ctx := c.Request().Context()

	var workflow models.Workflow
	if err := c.Bind(&workflow); err != nil {
		return problem(c, http.StatusBadRequest, "Bad Request", "Invalid request body: "+err.Error())
	}
	if workflow.Name == "" {
		return problem(c, http.StatusBadRequest, "Bad Request", "name is required")
	}

	if err := s.Repo.CreateWorkflow(ctx, &workflow); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to save workflow: "+err.Error())
	}
	return c.JSON(http.StatusCreated, workflow)
}

// GetWorkflow returns a single workflow definition
// (GET /api/v1/workflows/:id)
func (s *Server) GetWorkflow(c echo.Context) error {
	ctx := c.Request().Context()

	workflow, err := s.Repo.GetWorkflow(ctx, c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		return problem(c, http.StatusNotFound, "Not Found", "workflow not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, workflow)
}

// UpdateWorkflow updates a workflow definition
// (PUT /api/v1/workflows/:id)
func (s *Server) UpdateWorkflow(c echo.Context) error {
	ctx := c.Request().Context()

	var workflow models.Workflow
	if err := c.Bind(&workflow); err != nil {
		return problem(c, http.StatusBadRequest, "Bad Request", "Invalid request body: "+err.Error())
	}
	workflow.ID = c.Param("id")

	err := s.Repo.UpdateWorkflow(ctx, &workflow)
	if errors.Is(err, repository.ErrNotFound) {
		return problem(c, http.StatusNotFound, "Not Found", "workflow not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, workflow)
}

// DeleteWorkflow deletes a workflow definition and everything under it
// (DELETE /api/v1/workflows/:id)
func (s *Server) DeleteWorkflow(c echo.Context) error {
	ctx := c.Request().Context()

	err := s.Repo.DeleteWorkflow(ctx, c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		return problem(c, http.StatusNotFound, "Not Found", "workflow not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// ListStates returns the states of a workflow
// (GET /api/v1/workflows/:id/states)
func (s *Server) ListStates(c echo.Context) error {
	ctx := c.Request().Context()

	states, err := s.Repo.ListStates(ctx, c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, states)
}

// CreateState adds a state to a workflow
// (POST /api/v1/workflows/:id/states)
func (s *Server) CreateState(c echo.Context) error {
	ctx := c.Request().Context()

	var state models.State
	if err := c.Bind(&state); err != nil {
		return problem(c, http.StatusBadRequest, "Bad Request", "Invalid request body: "+err.Error())
	}
	state.WorkflowID = c.Param("id")
	if state.Name == "" {
		return problem(c, http.StatusBadRequest, "Bad Request", "name is required")
	}

	if err := s.Repo.CreateState(ctx, &state); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to save state: "+err.Error())
	}
	return c.JSON(http.StatusCreated, state)
}

// UpdateState updates a state definition
// (PUT /api/v1/states/:id)
func (s *Server) UpdateState(c echo.Context) error {
	ctx := c.Request().Context()

	var state models.State
	if err := c.Bind(&state); err != nil {
		return problem(c, http.StatusBadRequest, "Bad Request", "Invalid request body: "+err.Error())
	}
	state.ID = c.Param("id")

	err := s.Repo.UpdateState(ctx, &state)
	if errors.Is(err, repository.ErrNotFound) {
		return problem(c, http.StatusNotFound, "Not Found", "state not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, state)
}

// DeleteState deletes a state. States still referenced by entities are
// protected at the database level and the delete fails.
// (DELETE /api/v1/states/:id)
func (s *Server) DeleteState(c echo.Context) error {
	ctx := c.Request().Context()

	err := s.Repo.DeleteState(ctx, c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		return problem(c, http.StatusNotFound, "Not Found", "state not found")
	}
	if err != nil {
		return problem(c, http.StatusConflict, "Conflict", "state is still referenced: "+err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// ListTransitions returns the transitions of a workflow
// (GET /api/v1/workflows/:id/transitions)
func (s *Server) ListTransitions(c echo.Context) error {
	ctx := c.Request().Context()

	transitions, err := s.Repo.ListTransitions(ctx, c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, transitions)
}

// checkTransitionEndpoints verifies that both endpoint states exist and
// belong to the transition's workflow. A non-empty detail describes the
// violation; err reports a repository failure.
func (s *Server) checkTransitionEndpoints(ctx context.Context, transition *models.Transition) (detail string, err error) {
	endpoints := []struct {
		label   string
		stateID string
	}{
		{"from_state", transition.FromStateID},
		{"to_state", transition.ToStateID},
	}
	for _, ep := range endpoints {
		state, err := s.Repo.GetState(ctx, ep.stateID)
		if errors.Is(err, repository.ErrNotFound) {
			return "unknown " + ep.label, nil
		}
		if err != nil {
			return "", err
		}
		if state.WorkflowID != transition.WorkflowID {
			return ep.label + " belongs to a different workflow", nil
		}
	}
	return "", nil
}

// CreateTransition adds a transition to a workflow
// (POST /api/v1/workflows/:id/transitions)
func (s *Server) CreateTransition(c echo.Context) error {
	ctx := c.Request().Context()

	var transition models.Transition
	if err := c.Bind(&transition); err != nil {
		return problem(c, http.StatusBadRequest, "Bad Request", "Invalid request body: "+err.Error())
	}
	transition.WorkflowID = c.Param("id")
	if transition.Name == "" || transition.FromStateID == "" || transition.ToStateID == "" {
		return problem(c, http.StatusBadRequest, "Bad Request", "name, from_state_id and to_state_id are required")
	}
	detail, err := s.checkTransitionEndpoints(ctx, &transition)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if detail != "" {
		return problem(c, http.StatusBadRequest, "Bad Request", detail)
	}

	if err := s.Repo.CreateTransition(ctx, &transition); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to save transition: "+err.Error())
	}
	return c.JSON(http.StatusCreated, transition)
}

// UpdateTransition updates a transition definition
// (PUT /api/v1/transitions/:id)
func (s *Server) UpdateTransition(c echo.Context) error {
	ctx := c.Request().Context()

	var transition models.Transition
	if err := c.Bind(&transition); err != nil {
		return problem(c, http.StatusBadRequest, "Bad Request", "Invalid request body: "+err.Error())
	}
	transition.ID = c.Param("id")

	existing, err := s.Repo.GetTransition(ctx, transition.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return problem(c, http.StatusNotFound, "Not Found", "transition not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	// The workflow an edge belongs to is immutable; only the endpoints move.
	transition.WorkflowID = existing.WorkflowID
	if transition.FromStateID == "" {
		transition.FromStateID = existing.FromStateID
	}
	if transition.ToStateID == "" {
		transition.ToStateID = existing.ToStateID
	}
	detail, err := s.checkTransitionEndpoints(ctx, &transition)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if detail != "" {
		return problem(c, http.StatusBadRequest, "Bad Request", detail)
	}

	err = s.Repo.UpdateTransition(ctx, &transition)
	if errors.Is(err, repository.ErrNotFound) {
		return problem(c, http.StatusNotFound, "Not Found", "transition not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, transition)
}

// DeleteTransition deletes a transition definition
// (DELETE /api/v1/transitions/:id)
func (s *Server) DeleteTransition(c echo.Context) error {
	ctx := c.Request().Context()

	err := s.Repo.DeleteTransition(ctx, c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		return problem(c, http.StatusNotFound, "Not Found", "transition not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// ListRules returns every rule of a transition, active or not
// (GET /api/v1/transitions/:id/rules)
func (s *Server) ListRules(c echo.Context) error {
	ctx := c.Request().Context()

	rules, err := s.Repo.ListRules(ctx, c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, rules)
}

// CreateRule attaches a guard rule to a transition
// (POST /api/v1/transitions/:id/rules)
func (s *Server) CreateRule(c echo.Context) error {
	ctx := c.Request().Context()

	var rule models.Rule
	if err := c.Bind(&rule); err != nil {
		return problem(c, http.StatusBadRequest, "Bad Request", "Invalid request body: "+err.Error())
	}
	rule.TransitionID = c.Param("id")
	if rule.Name == "" || rule.ConditionType == "" {
		return problem(c, http.StatusBadRequest, "Bad Request", "name and condition_type are required")
	}

	if err := s.Repo.CreateRule(ctx, &rule); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to save rule: "+err.Error())
	}
	return c.JSON(http.StatusCreated, rule)
}

// UpdateRule updates a rule, including flipping is_active
// (PUT /api/v1/rules/:id)
func (s *Server) UpdateRule(c echo.Context) error {
	ctx := c.Request().Context()

	var rule models.Rule
	if err := c.Bind(&rule); err != nil {
		return problem(c, http.StatusBadRequest, "Bad Request", "Invalid request body: "+err.Error())
	}
	rule.ID = c.Param("id")

	err := s.Repo.UpdateRule(ctx, &rule)
	if errors.Is(err, repository.ErrNotFound) {
		return problem(c, http.StatusNotFound, "Not Found", "rule not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, rule)
}

// DeleteRule deletes a rule definition
// (DELETE /api/v1/rules/:id)
func (s *Server) DeleteRule(c echo.Context) error {
	ctx := c.Request().Context()

	err := s.Repo.DeleteRule(ctx, c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		return problem(c, http.StatusNotFound, "Not Found", "rule not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// ListSchemaVersions returns the schema versions of a workflow
// (GET /api/v1/workflows/:id/schema-versions)
func (s *Server) ListSchemaVersions(c echo.Context) error {
	ctx := c.Request().Context()

	versions, err := s.Repo.ListSchemaVersions(ctx, c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, versions)
}

// CreateSchemaVersion adds a schema version to a workflow
// (POST /api/v1/workflows/:id/schema-versions)
func (s *Server) CreateSchemaVersion(c echo.Context) error {
	ctx := c.Request().Context()

	var version models.SchemaVersion
	if err := c.Bind(&version); err != nil {
		return problem(c, http.StatusBadRequest, "Bad Request", "Invalid request body: "+err.Error())
	}
	version.WorkflowID = c.Param("id")

	if err := s.Repo.CreateSchemaVersion(ctx, &version); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to save schema version: "+err.Error())
	}
	return c.JSON(http.StatusCreated, version)
}

// ListSchemaFields returns the fields of a schema version
// (GET /api/v1/schema-versions/:id/fields)
func (s *Server) ListSchemaFields(c echo.Context) error {
	ctx := c.Request().Context()

	fields, err := s.Repo.ListSchemaFields(ctx, c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, fields)
}

// CreateSchemaField adds a field to a schema version
// (POST /api/v1/schema-versions/:id/fields)
func (s *Server) CreateSchemaField(c echo.Context) error {
	ctx := c.Request().Context()

	var field models.SchemaField
	if err := c.Bind(&field); err != nil {
		return problem(c, http.StatusBadRequest, "Bad Request", "Invalid request body: "+err.Error())
	}
	field.SchemaVersionID = c.Param("id")
	if field.Name == "" || field.FieldType == "" {
		return problem(c, http.StatusBadRequest, "Bad Request", "name and field_type are required")
	}

	if err := s.Repo.CreateSchemaField(ctx, &field); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to save schema field: "+err.Error())
	}
	return c.JSON(http.StatusCreated, field)
}

// DeleteSchemaField deletes a schema field
// (DELETE /api/v1/schema-fields/:id)
func (s *Server) DeleteSchemaField(c echo.Context) error {
	ctx := c.Request().Context()

	err := s.Repo.DeleteSchemaField(ctx, c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		return problem(c, http.StatusNotFound, "Not Found", "schema field not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
